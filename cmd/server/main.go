package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walletapi/internal/config"
	"walletapi/internal/db"
	"walletapi/internal/handlers"
	"walletapi/internal/realtime"
	"walletapi/internal/services"
	"walletapi/internal/store"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid redis url: %v", err)
		}
		cache = redis.NewClient(opts)
		if err := cache.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unavailable, login rate limiting disabled: %v", err)
			cache = nil
		}
	}

	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	ledger := store.NewTransactionStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := realtime.NewHub()
	service := services.NewWalletService(txRunner, wallets, users, ledger, audit, hub)
	reports := services.NewReportService(ledger, wallets)

	handler := handlers.New(cfg, txRunner, users, wallets, audit, service, reports, hub, cache)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("wallet API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
