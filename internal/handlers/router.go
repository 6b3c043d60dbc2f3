package handlers

import (
	"net/http"

	"walletapi/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.With(middleware.LoginRateLimit(h.cache, h.cfg.LoginRatePerMin)).Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/activity", h.Activity)
	})

	router.Route("/wallet", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/balance", h.GetBalance)
		r.Post("/deposit", h.Deposit)
		r.Post("/transfer", h.Transfer)
		r.Get("/self-check", h.SelfCheck)
	})

	router.Route("/transactions", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/", h.ListTransactions)
		r.Get("/top", h.TopTransactions)
		r.Get("/top-users", h.TopUsers)
		r.Get("/stats", h.Stats)
	})

	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
