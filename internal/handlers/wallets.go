package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"walletapi/internal/middleware"
	"walletapi/internal/money"
	"walletapi/internal/services"
)

type amountRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": money.FormatMinor(balance)})
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	amount, err := money.ParseMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	balance, err := h.service.Deposit(r.Context(), userID, amount)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": money.FormatMinor(balance)})
}

type transferRequest struct {
	ToUsername string `json:"to_username" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	amount, err := money.ParseMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	operationID, err := h.service.Transfer(r.Context(), userID, req.ToUsername, amount)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transaction_id": operationID})
}

// SelfCheck recomputes each wallet balance from its ledger entries and
// reports any drift.
func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	checks, err := h.wallets.LedgerCheck(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "self check failed")
		return
	}
	out := make([]map[string]any, 0, len(checks))
	consistent := true
	for _, c := range checks {
		ok := c.Balance == c.LedgerSum
		if !ok {
			consistent = false
		}
		out = append(out, map[string]any{
			"wallet_id":  c.WalletID,
			"balance":    money.FormatMinor(c.Balance),
			"ledger_sum": money.FormatMinor(c.LedgerSum),
			"consistent": ok,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"consistent": consistent,
		"wallets":    out,
	})
}

func respondWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, services.ErrInsufficientBalance):
		respondError(w, http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, services.ErrSelfTransfer):
		respondError(w, http.StatusBadRequest, "cannot transfer to yourself")
	case errors.Is(err, services.ErrWalletNotFound):
		respondError(w, http.StatusNotFound, "wallet not found")
	case errors.Is(err, services.ErrTargetUserNotFound):
		respondError(w, http.StatusNotFound, "recipient not found")
	case errors.Is(err, services.ErrTargetWalletNotFound):
		respondError(w, http.StatusNotFound, "recipient wallet not found")
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
