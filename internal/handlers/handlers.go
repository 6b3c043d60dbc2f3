package handlers

import (
	"encoding/json"
	"net/http"

	"walletapi/internal/config"
	"walletapi/internal/db"
	"walletapi/internal/realtime"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	cfg      config.Config
	txRunner db.TxRunner
	users    UserStore
	wallets  WalletStore
	audit    AuditStore
	service  WalletService
	reports  ReportService
	hub      *realtime.Hub
	cache    *redis.Client
	validate *validator.Validate
}

func New(cfg config.Config, txRunner db.TxRunner, users UserStore, wallets WalletStore, audit AuditStore, service WalletService, reports ReportService, hub *realtime.Hub, cache *redis.Client) *Handler {
	return &Handler{
		cfg:      cfg,
		txRunner: txRunner,
		users:    users,
		wallets:  wallets,
		audit:    audit,
		service:  service,
		reports:  reports,
		hub:      hub,
		cache:    cache,
		validate: validator.New(),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondValidationError(w http.ResponseWriter, err error) {
	details := make(map[string]string)
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range fieldErrors {
			details[fieldErr.Field()] = "failed on '" + fieldErr.Tag() + "' validation"
		}
	}
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "validation failed",
		"details": details,
	})
}
