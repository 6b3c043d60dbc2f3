package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"walletapi/internal/db"
	"walletapi/internal/models"
	"walletapi/internal/money"
	"walletapi/internal/realtime"
	"walletapi/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrTargetUserNotFound   = errors.New("target user not found")
	ErrTargetWalletNotFound = errors.New("target wallet not found")
	ErrSelfTransfer         = errors.New("cannot transfer to own wallet")

	// ErrStorage marks unexpected persistence failures, as opposed to the
	// precondition errors above.
	ErrStorage = errors.New("storage failure")
)

type WalletStore interface {
	GetByUser(ctx context.Context, userID string) (models.Wallet, error)
	GetByUserForUpdate(ctx context.Context, tx store.Getter, userID string) (models.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balance int64) error
}

type UserStore interface {
	LookupByUsername(ctx context.Context, tx store.Getter, username string) (models.User, error)
}

type LedgerStore interface {
	Insert(ctx context.Context, tx store.Execer, entries []store.TransactionInput) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update realtime.BalanceUpdate)
}

// WalletService is the balance transfer engine. Every operation runs as one
// serializable transaction: all precondition checks read locked rows, and the
// balance updates commit together with their ledger entries or not at all.
type WalletService struct {
	txRunner db.TxRunner
	wallets  WalletStore
	users    UserStore
	ledger   LedgerStore
	audit    AuditStore
	hub      BalanceHub
}

func NewWalletService(txRunner db.TxRunner, wallets WalletStore, users UserStore, ledger LedgerStore, audit AuditStore, hub BalanceHub) *WalletService {
	return &WalletService{
		txRunner: txRunner,
		wallets:  wallets,
		users:    users,
		ledger:   ledger,
		audit:    audit,
		hub:      hub,
	}
}

func (s *WalletService) GetBalance(ctx context.Context, userID string) (int64, error) {
	wallet, err := s.wallets.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrWalletNotFound
		}
		return 0, storageErr(err)
	}
	return wallet.Balance, nil
}

// Deposit credits the user's wallet and appends the matching ledger entry in
// one transaction. Returns the new balance.
func (s *WalletService) Deposit(ctx context.Context, userID string, amountMinor int64) (int64, error) {
	if amountMinor <= 0 {
		return 0, ErrInvalidAmount
	}
	var walletID string
	var balanceAfter int64
	operationID := uuid.NewString()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.GetByUserForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrWalletNotFound
			}
			return storageErr(err)
		}
		walletID = wallet.ID
		balanceAfter = wallet.Balance + amountMinor
		if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, balanceAfter); err != nil {
			return storageErr(err)
		}
		entry := store.TransactionInput{
			ID:          uuid.NewString(),
			OperationID: operationID,
			WalletID:    wallet.ID,
			Type:        models.TransactionTypeDeposit,
			Amount:      amountMinor,
		}
		if err := s.ledger.Insert(ctx, tx, []store.TransactionInput{entry}); err != nil {
			return storageErr(err)
		}
		data, _ := json.Marshal(map[string]string{"wallet_id": wallet.ID})
		if err := s.audit.Log(ctx, tx, userID, "deposit", "operation", operationID, string(data)); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastBalance(userID, realtime.BalanceUpdate{
		WalletID: walletID,
		Balance:  money.FormatMinor(balanceAfter),
	})
	return balanceAfter, nil
}

// Transfer moves amountMinor from the caller's wallet to the wallet of the
// user named targetUsername. Preconditions are checked in order, each with its
// own error, and any failure leaves balances and ledger untouched.
//
// The source row is always locked first; opposing transfers can therefore
// deadlock, which the transaction runner resolves by retrying.
func (s *WalletService) Transfer(ctx context.Context, userID, targetUsername string, amountMinor int64) (string, error) {
	if amountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	operationID := uuid.NewString()
	var sourceID, targetID string
	var targetUserID string
	var sourceAfter, targetAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		source, err := s.wallets.GetByUserForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrWalletNotFound
			}
			return storageErr(err)
		}
		if source.Balance < amountMinor {
			return ErrInsufficientBalance
		}
		targetUser, err := s.users.LookupByUsername(ctx, tx, targetUsername)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTargetUserNotFound
			}
			return storageErr(err)
		}
		if targetUser.ID == userID {
			return ErrSelfTransfer
		}
		target, err := s.wallets.GetByUserForUpdate(ctx, tx, targetUser.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTargetWalletNotFound
			}
			return storageErr(err)
		}

		sourceID = source.ID
		targetID = target.ID
		targetUserID = targetUser.ID
		sourceAfter = source.Balance - amountMinor
		targetAfter = target.Balance + amountMinor

		if err := s.wallets.UpdateBalance(ctx, tx, source.ID, sourceAfter); err != nil {
			return storageErr(err)
		}
		if err := s.wallets.UpdateBalance(ctx, tx, target.ID, targetAfter); err != nil {
			return storageErr(err)
		}

		entries := []store.TransactionInput{
			{
				ID:                 uuid.NewString(),
				OperationID:        operationID,
				WalletID:           source.ID,
				Type:               models.TransactionTypeTransfer,
				Amount:             amountMinor,
				CounterpartyUserID: &targetUser.ID,
			},
			{
				ID:                 uuid.NewString(),
				OperationID:        operationID,
				WalletID:           target.ID,
				Type:               models.TransactionTypeDeposit,
				Amount:             amountMinor,
				CounterpartyUserID: &userID,
			},
		}
		if err := ensureConserved(entries); err != nil {
			return err
		}
		if err := s.ledger.Insert(ctx, tx, entries); err != nil {
			return storageErr(err)
		}
		data, _ := json.Marshal(map[string]string{
			"source_wallet_id": source.ID,
			"target_wallet_id": target.ID,
		})
		if err := s.audit.Log(ctx, tx, userID, "transfer", "operation", operationID, string(data)); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.hub.BroadcastBalance(userID, realtime.BalanceUpdate{
		WalletID: sourceID,
		Balance:  money.FormatMinor(sourceAfter),
	})
	s.hub.BroadcastBalance(targetUserID, realtime.BalanceUpdate{
		WalletID: targetID,
		Balance:  money.FormatMinor(targetAfter),
	})
	return operationID, nil
}

// ensureConserved verifies that the signed entries of a transfer cancel out,
// so the operation cannot create or destroy value.
func ensureConserved(entries []store.TransactionInput) error {
	var sum int64
	for _, entry := range entries {
		if entry.Amount <= 0 {
			return ErrInvalidAmount
		}
		sum += models.SignedAmount(entry.Type, entry.Amount)
	}
	if sum != 0 {
		return fmt.Errorf("ledger entries are not conserved: sum %d", sum)
	}
	return nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
