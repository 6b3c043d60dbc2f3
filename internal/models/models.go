package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Wallet is the per-user balance record. Balance is int64 minor units and is
// only ever mutated through the wallet service inside one transaction.
type Wallet struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is an immutable ledger entry. Type "deposit" credits the owning
// wallet, type "transfer" debits it; amounts are always positive.
type Transaction struct {
	ID                 string    `db:"id" json:"id"`
	OperationID        string    `db:"operation_id" json:"operation_id"`
	WalletID           string    `db:"wallet_id" json:"wallet_id"`
	Type               string    `db:"type" json:"type"`
	Status             string    `db:"status" json:"status"`
	Amount             int64     `db:"amount" json:"amount"`
	CounterpartyUserID *string   `db:"counterparty_user_id" json:"counterparty_user_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeTransfer = "transfer"

	TransactionStatusSuccess = "success"
)

// SignedAmount applies the ledger sign convention: deposits credit, transfers
// debit.
func SignedAmount(txType string, amount int64) int64 {
	if txType == TransactionTypeTransfer {
		return -amount
	}
	return amount
}
