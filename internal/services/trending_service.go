package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weseeyou/backend/internal/models"
)

const DefaultTrendingPeriod = "7d"

var trendingPeriods = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// ParsePeriod maps a trending window name to its duration.
func ParsePeriod(period string) (time.Duration, error) {
	d, ok := trendingPeriods[period]
	if !ok {
		return 0, &ValidationError{Field: "period", Reason: fmt.Sprintf("unknown period %q: must be 24h, 7d or 30d", period)}
	}
	return d, nil
}

type TrendingEntry struct {
	Account           models.Account `json:"account"`
	RecentReportCount int64          `json:"recent_report_count"`
}

type TrendingService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTrendingService(db *gorm.DB) *TrendingService {
	return &TrendingService{db: db, now: utcNow}
}

// Trending ranks accounts last flagged inside the window by total flag count,
// most recently flagged first on ties. RecentReportCount is counted exactly
// from the report ledger for the same window.
func (s *TrendingService) Trending(ctx context.Context, period string, limit int) ([]TrendingEntry, error) {
	window, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	limit, err = clampLimit(limit, 10, 100)
	if err != nil {
		return nil, err
	}

	now := s.now()
	since := now.Add(-window)
	db := s.db.WithContext(ctx)

	var accounts []models.Account
	err = db.Where("last_flagged_at >= ? AND last_flagged_at <= ?", since, now).
		Order("flag_count DESC").
		Order("last_flagged_at DESC").
		Order("handle").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, storageErr("trending accounts", err)
	}

	entries := make([]TrendingEntry, 0, len(accounts))
	if len(accounts) == 0 {
		return entries, nil
	}

	ids := make([]uuid.UUID, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}

	var rows []struct {
		AccountID uuid.UUID
		Total     int64
	}
	err = db.Model(&models.Report{}).
		Select("account_id, COUNT(*) AS total").
		Where("account_id IN ? AND created_at >= ? AND created_at <= ?", ids, since, now).
		Group("account_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("trending report counts", err)
	}

	recent := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		recent[r.AccountID] = r.Total
	}
	for _, a := range accounts {
		entries = append(entries, TrendingEntry{Account: a, RecentReportCount: recent[a.ID]})
	}
	return entries, nil
}
