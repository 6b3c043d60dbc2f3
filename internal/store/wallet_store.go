package store

import (
	"context"

	"walletapi/internal/models"
)

type WalletStore struct {
	db DB
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

// WalletLedgerCheck compares a wallet's stored balance against the signed sum
// of its ledger entries.
type WalletLedgerCheck struct {
	WalletID   string `db:"wallet_id"`
	Balance    int64  `db:"balance"`
	LedgerSum  int64  `db:"ledger_sum"`
	Difference int64  `db:"difference"`
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, id, userID string) error {
	query := `
		INSERT INTO wallets (id, user_id, balance)
		VALUES ($1, $2, 0)
	`
	_, err := tx.ExecContext(ctx, query, id, userID)
	return err
}

func (s *WalletStore) GetByUser(ctx context.Context, userID string) (models.Wallet, error) {
	var row models.Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

// GetByUserForUpdate locks the wallet row for the rest of the transaction so
// no concurrent operation can read a stale balance between check and debit.
func (s *WalletStore) GetByUserForUpdate(ctx context.Context, tx Getter, userID string) (models.Wallet, error) {
	var row models.Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, walletID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, walletID)
	return err
}

func (s *WalletStore) LedgerCheck(ctx context.Context, userID string) ([]WalletLedgerCheck, error) {
	var rows []WalletLedgerCheck
	err := s.db.SelectContext(ctx, &rows, `
		SELECT w.id AS wallet_id,
		       w.balance,
		       COALESCE(SUM(CASE WHEN t.type = 'transfer' THEN -t.amount ELSE t.amount END), 0) AS ledger_sum,
		       (w.balance - COALESCE(SUM(CASE WHEN t.type = 'transfer' THEN -t.amount ELSE t.amount END), 0)) AS difference
		FROM wallets w
		LEFT JOIN transactions t ON t.wallet_id = w.id
		WHERE w.user_id = $1
		GROUP BY w.id, w.balance
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
