package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"walletapi/internal/models"
	"walletapi/internal/store"
)

type ReportLedgerStore interface {
	TopByWallet(ctx context.Context, walletID string, limit int) ([]models.Transaction, error)
	List(ctx context.Context, filter store.ListFilter) ([]store.TransactionDetail, int, error)
	TopUsersByValue(ctx context.Context, limit int) ([]store.UserTotal, error)
	DailyStats(ctx context.Context, since time.Time) ([]store.DailyStat, error)
}

type ReportWalletStore interface {
	GetByUser(ctx context.Context, userID string) (models.Wallet, error)
}

// ReportService serves read-only aggregation over the ledger. Nothing here
// mutates state.
type ReportService struct {
	ledger  ReportLedgerStore
	wallets ReportWalletStore
}

func NewReportService(ledger ReportLedgerStore, wallets ReportWalletStore) *ReportService {
	return &ReportService{ledger: ledger, wallets: wallets}
}

type ListMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func (s *ReportService) List(ctx context.Context, filter store.ListFilter) ([]store.TransactionDetail, ListMeta, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	rows, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, ListMeta{}, storageErr(err)
	}
	meta := ListMeta{
		Total: total,
		Page:  filter.Offset/filter.Limit + 1,
		Limit: filter.Limit,
	}
	meta.TotalPages = (total + filter.Limit - 1) / filter.Limit
	return rows, meta, nil
}

// TopTransactions returns the caller's largest ledger entries.
func (s *ReportService) TopTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 5
	}
	wallet, err := s.wallets.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, storageErr(err)
	}
	rows, err := s.ledger.TopByWallet(ctx, wallet.ID, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

func (s *ReportService) TopUsers(ctx context.Context, limit int) ([]store.UserTotal, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.ledger.TopUsersByValue(ctx, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

type WeeklyStats struct {
	TotalVolume int64             `json:"total_volume"`
	TotalCount  int64             `json:"total_count"`
	Days        []store.DailyStat `json:"days"`
}

// Weekly aggregates the last seven days of ledger activity per calendar day.
func (s *ReportService) Weekly(ctx context.Context) (WeeklyStats, error) {
	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -6)
	days, err := s.ledger.DailyStats(ctx, since)
	if err != nil {
		return WeeklyStats{}, storageErr(err)
	}
	stats := WeeklyStats{Days: days}
	for _, day := range days {
		stats.TotalVolume += day.Volume
		stats.TotalCount += day.Deposits + day.Transfers
	}
	return stats, nil
}
