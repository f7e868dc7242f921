package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weseeyou/backend/internal/models"
)

const searchLimit = 20

type AccountDetail struct {
	Account           models.Account            `json:"account"`
	CategoryBreakdown map[models.Category]int64 `json:"category_breakdown"`
	TotalReports      int64                     `json:"total_reports"`
}

type AccountFilter struct {
	Platform string
	Status   string
	Limit    int
	Offset   int
}

type AdminStats struct {
	TotalReports      int64            `json:"total_reports"`
	TotalAccounts     int64            `json:"total_accounts"`
	FlaggedAccounts   int64            `json:"flagged_accounts"`
	ReviewingAccounts int64            `json:"reviewing_accounts"`
	VerifiedAccounts  int64            `json:"verified_accounts"`
	HighPriority      []models.Account `json:"high_priority_accounts"`
	RecentReports     []ReportView     `json:"recent_reports"`
	AlertThreshold    int              `json:"alert_threshold"`
}

// ExportRow is one blocklist line.
type ExportRow struct {
	Platform      models.Platform      `json:"platform"`
	Handle        string               `json:"handle"`
	FlagCount     int                  `json:"flag_count"`
	SafetyTier    models.SafetyTier    `json:"safety_tier"`
	SafetyScore   int                  `json:"safety_score"`
	Status        models.AccountStatus `json:"status"`
	LastFlaggedAt *time.Time           `json:"last_flagged_at"`
}

type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// Get looks an account up by its identity. The handle is normalized first.
func (s *AccountService) Get(ctx context.Context, platform, handle string) (*models.Account, error) {
	p, err := models.ParsePlatform(platform)
	if err != nil {
		return nil, invalid("platform", err)
	}
	h, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}

	acct, err := findIdentity(s.db.WithContext(ctx), p, h)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get account", err)
	}
	return acct, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	acct, err := loadAccount(s.db.WithContext(ctx), id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get account", err)
	}
	return acct, nil
}

// Detail returns the account with a per-category report breakdown.
func (s *AccountService) Detail(ctx context.Context, id uuid.UUID) (*AccountDetail, error) {
	acct, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Category models.Category
		Total    int64
	}
	err = s.db.WithContext(ctx).Model(&models.Report{}).
		Select("category, COUNT(*) AS total").
		Where("account_id = ?", id).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("category breakdown", err)
	}

	detail := &AccountDetail{Account: *acct, CategoryBreakdown: make(map[models.Category]int64, len(rows))}
	for _, r := range rows {
		detail.CategoryBreakdown[r.Category] = r.Total
		detail.TotalReports += r.Total
	}
	return detail, nil
}

// Search matches a handle substring, most reported first, capped at 20.
func (s *AccountService) Search(ctx context.Context, query, platform string) ([]models.Account, error) {
	q := strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(query), "@")))
	if q == "" {
		return nil, &ValidationError{Field: "handle", Reason: "handle is required"}
	}

	tx := s.db.WithContext(ctx).Where("handle LIKE ? ESCAPE '\\'", "%"+escapeLike(q)+"%")
	if platform != "" && platform != "all" {
		p, err := models.ParsePlatform(platform)
		if err != nil {
			return nil, invalid("platform", err)
		}
		tx = tx.Where("platform = ?", p)
	}

	accounts := []models.Account{}
	if err := tx.Order("flag_count DESC").Order("handle").Limit(searchLimit).Find(&accounts).Error; err != nil {
		return nil, storageErr("search accounts", err)
	}
	return accounts, nil
}

// List is the moderator account listing, most reported first.
func (s *AccountService) List(ctx context.Context, f AccountFilter) ([]models.Account, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Account{})
	if f.Platform != "" && f.Platform != "all" {
		p, err := models.ParsePlatform(f.Platform)
		if err != nil {
			return nil, 0, invalid("platform", err)
		}
		q = q.Where("platform = ?", p)
	}
	if f.Status != "" && f.Status != "all" {
		st, err := models.ParseStatus(f.Status)
		if err != nil {
			return nil, 0, invalid("status", err)
		}
		q = q.Where("status = ?", st)
	}
	limit, err := clampLimit(f.Limit, 50, 200)
	if err != nil {
		return nil, 0, err
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storageErr("count accounts", err)
	}
	accounts := []models.Account{}
	if err := q.Order("flag_count DESC").Order("handle").Limit(limit).Offset(max(f.Offset, 0)).Find(&accounts).Error; err != nil {
		return nil, 0, storageErr("list accounts", err)
	}
	return accounts, total, nil
}

// Stats backs the moderator dashboard.
func (s *AccountService) Stats(ctx context.Context) (*AdminStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminStats{AlertThreshold: models.PublicAlertThreshold}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalReports, db.Model(&models.Report{})},
		{&stats.TotalAccounts, db.Model(&models.Account{})},
		{&stats.FlaggedAccounts, db.Model(&models.Account{}).Where("flag_count >= ?", models.PublicAlertThreshold)},
		{&stats.ReviewingAccounts, db.Model(&models.Account{}).Where("status = ?", models.StatusReviewing)},
		{&stats.VerifiedAccounts, db.Model(&models.Account{}).Where("status = ?", models.StatusVerified)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, storageErr("admin stats", err)
		}
	}

	stats.HighPriority = []models.Account{}
	err := db.Where("flag_count >= ?", models.PublicAlertThreshold).
		Order("flag_count DESC").Order("handle").Limit(5).
		Find(&stats.HighPriority).Error
	if err != nil {
		return nil, storageErr("high priority accounts", err)
	}

	recent := db.Table("reports").Joins("JOIN accounts ON accounts.id = reports.account_id")
	stats.RecentReports, err = scanReportViews(recent, 5, 0)
	if err != nil {
		return nil, storageErr("recent reports", err)
	}
	return stats, nil
}

// ExportRows supplies the blocklist, optionally restricted to one tier.
func (s *AccountService) ExportRows(ctx context.Context, tier string) ([]ExportRow, error) {
	q := s.db.WithContext(ctx).Model(&models.Account{})
	if tier != "" && tier != "all" {
		t, err := models.ParseTier(tier)
		if err != nil {
			return nil, invalid("tier", err)
		}
		q = q.Where("safety_tier = ?", t)
	}

	rows := []ExportRow{}
	err := q.Select("platform, handle, flag_count, safety_tier, safety_score, status, last_flagged_at").
		Order("flag_count DESC").Order("handle").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("export accounts", err)
	}
	return rows, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
