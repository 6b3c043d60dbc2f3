package store

import (
	"context"
	"fmt"
	"time"

	"walletapi/internal/models"
)

// TransactionStore is the append-only ledger. Entries are written inside the
// same transaction as the balance updates they record and are never changed
// afterwards; there are no UPDATE or DELETE statements here.
type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID                 string
	OperationID        string
	WalletID           string
	Type               string
	Amount             int64
	CounterpartyUserID *string
}

// TransactionDetail is a ledger entry joined with its owning and counterparty
// usernames for listing endpoints.
type TransactionDetail struct {
	ID                   string    `db:"id"`
	OperationID          string    `db:"operation_id"`
	WalletID             string    `db:"wallet_id"`
	Username             string    `db:"username"`
	Type                 string    `db:"type"`
	Status               string    `db:"status"`
	Amount               int64     `db:"amount"`
	CounterpartyUsername *string   `db:"counterparty_username"`
	CreatedAt            time.Time `db:"created_at"`
}

type ListFilter struct {
	Username string
	Type     string
	Status   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type UserTotal struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
	Total    int64  `db:"total"`
}

type DailyStat struct {
	Day       time.Time `db:"day"`
	Deposits  int64     `db:"deposits"`
	Transfers int64     `db:"transfers"`
	Volume    int64     `db:"volume"`
}

func (s *TransactionStore) Insert(ctx context.Context, tx Execer, entries []TransactionInput) error {
	query := `
		INSERT INTO transactions (id, operation_id, wallet_id, type, status, amount, counterparty_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query, entry.ID, entry.OperationID, entry.WalletID, entry.Type, models.TransactionStatusSuccess, entry.Amount, entry.CounterpartyUserID); err != nil {
			return err
		}
	}
	return nil
}

// SumByWallet returns the signed ledger sum for a wallet; it must always equal
// the wallet's stored balance.
func (s *TransactionStore) SumByWallet(ctx context.Context, walletID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(CASE WHEN type = 'transfer' THEN -amount ELSE amount END), 0)
		FROM transactions
		WHERE wallet_id = $1
	`, walletID)
	return sum, err
}

// TopByWallet returns the largest entries for one wallet, ties broken by
// insertion order.
func (s *TransactionStore) TopByWallet(ctx context.Context, walletID string, limit int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, operation_id, wallet_id, type, status, amount, counterparty_user_id, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY amount DESC, created_at ASC, id ASC
		LIMIT $2
	`, walletID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) List(ctx context.Context, filter ListFilter) ([]TransactionDetail, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	param := 1
	if filter.Username != "" {
		where += fmt.Sprintf(" AND u.username ILIKE '%%' || $%d || '%%'", param)
		args = append(args, filter.Username)
		param++
	}
	if filter.Type != "" {
		where += fmt.Sprintf(" AND t.type = $%d", param)
		args = append(args, filter.Type)
		param++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND t.status = $%d", param)
		args = append(args, filter.Status)
		param++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND t.created_at >= $%d", param)
		args = append(args, *filter.From)
		param++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND t.created_at <= $%d", param)
		args = append(args, *filter.To)
		param++
	}

	base := `
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		JOIN users u ON u.id = w.user_id
		LEFT JOIN users cu ON cu.id = t.counterparty_user_id
	` + where

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT t.id, t.operation_id, t.wallet_id, u.username, t.type, t.status, t.amount,
		       cu.username AS counterparty_username, t.created_at
	` + base + fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d", param, param+1)
	args = append(args, filter.Limit, filter.Offset)

	var rows []TransactionDetail
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// TopUsersByValue ranks users by the total positive amount across all their
// ledger entries.
func (s *TransactionStore) TopUsersByValue(ctx context.Context, limit int) ([]UserTotal, error) {
	var rows []UserTotal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT u.id AS user_id,
		       u.username,
		       COALESCE(SUM(t.amount), 0) AS total
		FROM users u
		JOIN wallets w ON w.user_id = u.id
		LEFT JOIN transactions t ON t.wallet_id = w.id
		GROUP BY u.id, u.username
		ORDER BY total DESC, u.username ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DailyStats buckets ledger activity by calendar day since the given time.
func (s *TransactionStore) DailyStats(ctx context.Context, since time.Time) ([]DailyStat, error) {
	var rows []DailyStat
	err := s.db.SelectContext(ctx, &rows, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*) FILTER (WHERE type = 'deposit') AS deposits,
		       COUNT(*) FILTER (WHERE type = 'transfer') AS transfers,
		       COALESCE(SUM(amount), 0) AS volume
		FROM transactions
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1 ASC
	`, since)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
