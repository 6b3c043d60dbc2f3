package main

import (
	"context"
	"log"

	"walletapi/internal/auth"
	"walletapi/internal/config"
	"walletapi/internal/db"
	"walletapi/internal/realtime"
	"walletapi/internal/services"
	"walletapi/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Seeds a handful of demo accounts with some activity between them.
// Safe to run repeatedly against an empty database only.
func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	ledger := store.NewTransactionStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	service := services.NewWalletService(txRunner, wallets, users, ledger, audit, realtime.NewHub())

	demo := []struct {
		username string
		password string
		deposit  int64
	}{
		{"alice", "password123", 50000},
		{"bob", "password123", 20000},
		{"carol", "password123", 7500},
	}

	ids := make(map[string]string, len(demo))
	for _, d := range demo {
		hash, err := auth.HashPassword(d.password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		userID := uuid.NewString()
		err = txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if err := users.Create(ctx, tx, userID, d.username, hash); err != nil {
				return err
			}
			return wallets.Create(ctx, tx, uuid.NewString(), userID)
		})
		if err != nil {
			log.Fatalf("failed to create %s: %v", d.username, err)
		}
		ids[d.username] = userID
		if _, err := service.Deposit(ctx, userID, d.deposit); err != nil {
			log.Fatalf("failed to fund %s: %v", d.username, err)
		}
		log.Printf("seeded %s", d.username)
	}

	transfers := []struct {
		from, to string
		amount   int64
	}{
		{"alice", "bob", 12500},
		{"alice", "carol", 3000},
		{"bob", "carol", 5000},
	}
	for _, t := range transfers {
		if _, err := service.Transfer(ctx, ids[t.from], t.to, t.amount); err != nil {
			log.Fatalf("failed transfer %s -> %s: %v", t.from, t.to, err)
		}
	}
	log.Println("seeding complete")
}
