package handlers

import (
	"context"
	"database/sql"
	"time"

	"walletapi/internal/config"
	"walletapi/internal/models"
	"walletapi/internal/realtime"
	"walletapi/internal/services"
	"walletapi/internal/store"

	"github.com/jmoiron/sqlx"
)

// fakeTxRunner executes the callback directly. Stub stores ignore the tx
// argument, so passing nil is safe here.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	users     map[string]models.User
	createErr error
	created   []string
}

func (s *stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, passwordHash string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, username)
	return nil
}

func (s *stubUserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	u, ok := s.users[username]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return models.User{}, sql.ErrNoRows
}

type stubWalletStore struct {
	checks []store.WalletLedgerCheck
}

func (s *stubWalletStore) Create(ctx context.Context, tx store.Execer, id, userID string) error {
	return nil
}

func (s *stubWalletStore) LedgerCheck(ctx context.Context, userID string) ([]store.WalletLedgerCheck, error) {
	return s.checks, nil
}

type stubAuditStore struct {
	actions []string
	entries []store.AuditLog
}

func (s *stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	s.actions = append(s.actions, action)
	return nil
}

func (s *stubAuditStore) ListByActor(ctx context.Context, actorID string, limit int) ([]store.AuditLog, error) {
	return s.entries, nil
}

type stubWalletService struct {
	balance     int64
	operationID string
	err         error
}

func (s *stubWalletService) GetBalance(ctx context.Context, userID string) (int64, error) {
	return s.balance, s.err
}

func (s *stubWalletService) Deposit(ctx context.Context, userID string, amountMinor int64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.balance + amountMinor, nil
}

func (s *stubWalletService) Transfer(ctx context.Context, userID, targetUsername string, amountMinor int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.operationID, nil
}

type stubReportService struct {
	details []store.TransactionDetail
	meta    services.ListMeta
	top     []models.Transaction
	users   []store.UserTotal
	weekly  services.WeeklyStats
	err     error

	lastFilter store.ListFilter
	lastLimit  int
}

func (s *stubReportService) List(ctx context.Context, filter store.ListFilter) ([]store.TransactionDetail, services.ListMeta, error) {
	s.lastFilter = filter
	return s.details, s.meta, s.err
}

func (s *stubReportService) TopTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	s.lastLimit = limit
	return s.top, s.err
}

func (s *stubReportService) TopUsers(ctx context.Context, limit int) ([]store.UserTotal, error) {
	s.lastLimit = limit
	return s.users, s.err
}

func (s *stubReportService) Weekly(ctx context.Context) (services.WeeklyStats, error) {
	return s.weekly, s.err
}

type handlerFixture struct {
	handler *Handler
	users   *stubUserStore
	wallets *stubWalletStore
	audit   *stubAuditStore
	service *stubWalletService
	reports *stubReportService
}

func newTestHandler() *handlerFixture {
	cfg := config.Config{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
	f := &handlerFixture{
		users:   &stubUserStore{users: map[string]models.User{}},
		wallets: &stubWalletStore{},
		audit:   &stubAuditStore{},
		service: &stubWalletService{},
		reports: &stubReportService{},
	}
	f.handler = New(cfg, &fakeTxRunner{}, f.users, f.wallets, f.audit, f.service, f.reports, realtime.NewHub(), nil)
	return f
}
