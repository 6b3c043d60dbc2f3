package handlers

import (
	"context"

	"walletapi/internal/models"
	"walletapi/internal/services"
	"walletapi/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, passwordHash string) error
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type WalletStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID string) error
	LedgerCheck(ctx context.Context, userID string) ([]store.WalletLedgerCheck, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	ListByActor(ctx context.Context, actorID string, limit int) ([]store.AuditLog, error)
}

type WalletService interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Deposit(ctx context.Context, userID string, amountMinor int64) (int64, error)
	Transfer(ctx context.Context, userID, targetUsername string, amountMinor int64) (string, error)
}

type ReportService interface {
	List(ctx context.Context, filter store.ListFilter) ([]store.TransactionDetail, services.ListMeta, error)
	TopTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	TopUsers(ctx context.Context, limit int) ([]store.UserTotal, error)
	Weekly(ctx context.Context) (services.WeeklyStats, error)
}
