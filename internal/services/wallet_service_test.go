package services

import (
	"context"
	"database/sql"
	"sync"

	"walletapi/internal/models"
	"walletapi/internal/realtime"
	"walletapi/internal/store"

	"github.com/jmoiron/sqlx"
)

// fakeTxRunner runs the unit of work directly. The mutex serializes
// concurrent units of work the way serializable transactions on the same rows
// would be.
type fakeTxRunner struct {
	mu  sync.Mutex
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(nil)
}

type stubWalletStore struct {
	getByUserFn          func(ctx context.Context, userID string) (models.Wallet, error)
	getByUserForUpdateFn func(ctx context.Context, tx store.Getter, userID string) (models.Wallet, error)
	updateBalanceFn      func(ctx context.Context, tx store.Execer, walletID string, balance int64) error
}

func (s stubWalletStore) GetByUser(ctx context.Context, userID string) (models.Wallet, error) {
	if s.getByUserFn == nil {
		return models.Wallet{}, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubWalletStore) GetByUserForUpdate(ctx context.Context, tx store.Getter, userID string) (models.Wallet, error) {
	if s.getByUserForUpdateFn == nil {
		return models.Wallet{}, sql.ErrNoRows
	}
	return s.getByUserForUpdateFn(ctx, tx, userID)
}

func (s stubWalletStore) UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balance int64) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, walletID, balance)
}

type stubUserStore struct {
	lookupFn func(ctx context.Context, tx store.Getter, username string) (models.User, error)
}

func (s stubUserStore) LookupByUsername(ctx context.Context, tx store.Getter, username string) (models.User, error) {
	if s.lookupFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.lookupFn(ctx, tx, username)
}

type stubLedgerStore struct {
	insertFn func(ctx context.Context, tx store.Execer, entries []store.TransactionInput) error
}

func (s stubLedgerStore) Insert(ctx context.Context, tx store.Execer, entries []store.TransactionInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, entries)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	mu    sync.Mutex
	calls []realtime.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update realtime.BalanceUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, update)
}

// memoryLedger backs the engine with a mutable in-memory world for the
// property-style tests: wallets keyed by user, appended entries, no SQL.
type memoryLedger struct {
	mu      sync.Mutex
	wallets map[string]*models.Wallet // keyed by user id
	users   map[string]models.User    // keyed by username
	entries []store.TransactionInput
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		wallets: make(map[string]*models.Wallet),
		users:   make(map[string]models.User),
	}
}

func (m *memoryLedger) addUser(id, username string, balance int64) {
	m.users[username] = models.User{ID: id, Username: username}
	m.wallets[id] = &models.Wallet{ID: "w-" + id, UserID: id, Balance: balance}
}

func (m *memoryLedger) GetByUser(_ context.Context, userID string) (models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		return models.Wallet{}, sql.ErrNoRows
	}
	return *wallet, nil
}

func (m *memoryLedger) GetByUserForUpdate(_ context.Context, _ store.Getter, userID string) (models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		return models.Wallet{}, sql.ErrNoRows
	}
	return *wallet, nil
}

func (m *memoryLedger) UpdateBalance(_ context.Context, _ store.Execer, walletID string, balance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wallet := range m.wallets {
		if wallet.ID == walletID {
			wallet.Balance = balance
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryLedger) LookupByUsername(_ context.Context, _ store.Getter, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (m *memoryLedger) Insert(_ context.Context, _ store.Execer, entries []store.TransactionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memoryLedger) totalBalance() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, wallet := range m.wallets {
		sum += wallet.Balance
	}
	return sum
}

func (m *memoryLedger) signedSum(walletID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, entry := range m.entries {
		if entry.WalletID != walletID {
			continue
		}
		sum += models.SignedAmount(entry.Type, entry.Amount)
	}
	return sum
}

func newMemoryService(world *memoryLedger) (*WalletService, *stubHub) {
	hub := &stubHub{}
	return NewWalletService(&fakeTxRunner{}, world, world, world, stubAuditStore{}, hub), hub
}
