package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"walletapi/internal/middleware"
	"walletapi/internal/services"
	"walletapi/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedPost(t *testing.T, handler http.HandlerFunc, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestDepositReturnsFormattedBalance(t *testing.T) {
	f := newTestHandler()
	f.service.balance = 500

	rec := authedPost(t, f.handler.Deposit, "u1", `{"amount":"2.50"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"7.50"`)
}

func TestDepositRejectsMalformedAmount(t *testing.T) {
	f := newTestHandler()

	for _, amount := range []string{"abc", "1.234", ""} {
		rec := authedPost(t, f.handler.Deposit, "u1", `{"amount":"`+amount+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "amount %q", amount)
	}
}

func TestDepositMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid amount", services.ErrInvalidAmount, http.StatusBadRequest},
		{"wallet missing", services.ErrWalletNotFound, http.StatusNotFound},
		{"storage failure", services.ErrStorage, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestHandler()
			f.service.err = tc.err
			rec := authedPost(t, f.handler.Deposit, "u1", `{"amount":"1.00"}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestTransferReturnsOperationID(t *testing.T) {
	f := newTestHandler()
	f.service.operationID = "op-123"

	rec := authedPost(t, f.handler.Transfer, "u1", `{"to_username":"bob","amount":"3.00"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transaction_id":"op-123"`)
}

func TestTransferMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient balance", services.ErrInsufficientBalance, http.StatusBadRequest},
		{"self transfer", services.ErrSelfTransfer, http.StatusBadRequest},
		{"recipient missing", services.ErrTargetUserNotFound, http.StatusNotFound},
		{"recipient wallet missing", services.ErrTargetWalletNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestHandler()
			f.service.err = tc.err
			rec := authedPost(t, f.handler.Transfer, "u1", `{"to_username":"bob","amount":"3.00"}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestTransferRequiresRecipient(t *testing.T) {
	f := newTestHandler()

	rec := authedPost(t, f.handler.Transfer, "u1", `{"amount":"3.00"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelfCheckReportsDrift(t *testing.T) {
	f := newTestHandler()
	f.wallets.checks = []store.WalletLedgerCheck{
		{WalletID: "w1", Balance: 1000, LedgerSum: 1000},
		{WalletID: "w2", Balance: 900, LedgerSum: 1000, Difference: -100},
	}

	req := httptest.NewRequest(http.MethodGet, "/wallet/self-check", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	f.handler.SelfCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"consistent":false`)
}
