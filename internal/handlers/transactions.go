package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"walletapi/internal/middleware"
	"walletapi/internal/money"
	"walletapi/internal/services"
	"walletapi/internal/store"
)

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	filter := store.ListFilter{
		Username: q.Get("username"),
		Type:     q.Get("type"),
		Status:   q.Get("status"),
	}
	if v := q.Get("from_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from_date")
			return
		}
		filter.From = &t
	}
	if v := q.Get("to_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to_date")
			return
		}
		filter.To = &t
	}
	page := parsePositiveInt(q.Get("page"), 1)
	limit := parsePositiveInt(q.Get("limit"), 10)
	if limit > 100 {
		limit = 100
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	details, meta, err := h.reports.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": transactionViews(details),
		"meta":         meta,
	})
}

func (h *Handler) TopTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), 0)
	txs, err := h.reports.TopTransactions(r.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			respondError(w, http.StatusNotFound, "wallet not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load top transactions")
		return
	}
	out := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		out = append(out, map[string]any{
			"id":         tx.ID,
			"type":       tx.Type,
			"amount":     money.FormatMinor(tx.Amount),
			"created_at": tx.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (h *Handler) TopUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), 0)
	totals, err := h.reports.TopUsers(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load top users")
		return
	}
	out := make([]map[string]any, 0, len(totals))
	for _, t := range totals {
		out = append(out, map[string]any{
			"username": t.Username,
			"total":    money.FormatMinor(t.Total),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	stats, err := h.reports.Weekly(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	days := make([]map[string]any, 0, len(stats.Days))
	for _, d := range stats.Days {
		days = append(days, map[string]any{
			"day":       d.Day.Format("2006-01-02"),
			"deposits":  d.Deposits,
			"transfers": d.Transfers,
			"volume":    money.FormatMinor(d.Volume),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total_volume": money.FormatMinor(stats.TotalVolume),
		"total_count":  stats.TotalCount,
		"days":         days,
	})
}

func transactionViews(details []store.TransactionDetail) []map[string]any {
	out := make([]map[string]any, 0, len(details))
	for _, d := range details {
		view := map[string]any{
			"id":         d.ID,
			"username":   d.Username,
			"type":       d.Type,
			"status":     d.Status,
			"amount":     money.FormatMinor(d.Amount),
			"created_at": d.CreatedAt,
		}
		if d.CounterpartyUsername != nil {
			view["counterparty"] = *d.CounterpartyUsername
		}
		out = append(out, view)
	}
	return out
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
