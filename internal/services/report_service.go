package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weseeyou/backend/internal/events"
	"github.com/weseeyou/backend/internal/metrics"
	"github.com/weseeyou/backend/internal/models"
	"github.com/weseeyou/backend/internal/notify"
)

const (
	maxDescriptionLength = 5000
	maxEvidenceURLs      = 10
)

type SubmitReportInput struct {
	Platform     string
	Handle       string
	ReporterID   uuid.UUID
	Category     string
	Description  *string
	EvidenceURLs []string
}

type SubmitResult struct {
	AccountID        uuid.UUID         `json:"account_id"`
	ReportID         uuid.UUID         `json:"report_id"`
	FlagCount        int               `json:"new_flag_count"`
	AccountCreated   bool              `json:"account_created"`
	ThresholdReached bool              `json:"threshold_reached"`
	SafetyScore      int               `json:"safety_score"`
	SafetyTier       models.SafetyTier `json:"safety_tier"`
}

// ReportView is a report joined with its account for moderator listings.
// It never carries reporter data.
type ReportView struct {
	ID            uuid.UUID                   `json:"id"`
	AccountID     uuid.UUID                   `json:"account_id"`
	Category      models.Category             `json:"category"`
	Description   *string                     `json:"description,omitempty"`
	EvidenceURLs  datatypes.JSONSlice[string] `gorm:"column:evidence_urls" json:"evidence_urls"`
	CreatedAt     time.Time                   `json:"created_at"`
	Platform      models.Platform             `json:"platform"`
	Handle        string                      `json:"handle"`
	FlagCount     int                         `json:"flag_count"`
	AccountStatus models.AccountStatus        `json:"account_status"`
}

type ReportFilter struct {
	Category string
	Platform string
	Limit    int
	Offset   int
}

type ReportService struct {
	db        *gorm.DB
	resolver  *IdentityResolver
	detector  *events.Detector
	digester  *ReporterDigester
	publisher notify.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewReportService(db *gorm.DB, detector *events.Detector, digester *ReporterDigester, publisher notify.Publisher, m *metrics.Metrics) *ReportService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &ReportService{
		db:        db,
		resolver:  NewIdentityResolver(m),
		detector:  detector,
		digester:  digester,
		publisher: publisher,
		metrics:   m,
		now:       utcNow,
	}
}

// Submit records one report. Identity resolution, the counter increment, the
// report row and the resulting feed events commit together or not at all.
func (s *ReportService) Submit(ctx context.Context, in SubmitReportInput) (*SubmitResult, error) {
	start := time.Now()

	platform, err := models.ParsePlatform(in.Platform)
	if err != nil {
		return nil, invalid("platform", err)
	}
	handle, err := NormalizeHandle(in.Handle)
	if err != nil {
		return nil, err
	}
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, invalid("category", err)
	}
	if in.ReporterID == uuid.Nil {
		return nil, &ValidationError{Field: "reporter_id", Reason: "reporter is required"}
	}
	description, err := cleanDescription(in.Description)
	if err != nil {
		return nil, err
	}
	evidence, err := cleanEvidence(in.EvidenceURLs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		result  SubmitResult
		emitted []models.ActivityEvent
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, created, err := s.resolver.Resolve(tx, platform, handle, now)
		if err != nil {
			return fmt.Errorf("resolve identity: %w", err)
		}

		updated, previous, err := incrementFlagCount(tx, acct.ID, now)
		if err != nil {
			return fmt.Errorf("increment flag count: %w", err)
		}

		report := models.Report{
			ID:             uuid.New(),
			AccountID:      updated.ID,
			Category:       category,
			Description:    description,
			EvidenceURLs:   evidence,
			ReporterDigest: s.digester.Digest(in.ReporterID),
			CreatedAt:      now,
		}
		if err := tx.Omit(clause.Associations).Create(&report).Error; err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		evs := s.detector.ForReport(updated, previous, updated.FlagCount, now)
		if err := tx.Create(&evs).Error; err != nil {
			return fmt.Errorf("insert activity events: %w", err)
		}

		crossed := s.detector.CrossedThreshold(previous, updated.FlagCount)
		if crossed {
			title, message := thresholdNotice(updated)
			if err := notifyReporters(tx, updated, models.NotificationAlert, title, message, now); err != nil {
				return err
			}
		}

		result = SubmitResult{
			AccountID:        updated.ID,
			ReportID:         report.ID,
			FlagCount:        updated.FlagCount,
			AccountCreated:   created,
			ThresholdReached: crossed,
			SafetyScore:      updated.SafetyScore,
			SafetyTier:       updated.SafetyTier,
		}
		emitted = evs
		return nil
	})
	if err != nil {
		slog.Error("report submission failed", "action", "submit_report", "platform", string(platform), "error", err)
		return nil, storageErr("submit report", err)
	}

	if s.metrics != nil {
		s.metrics.ReportsSubmitted.WithLabelValues(string(platform), string(category)).Inc()
		if result.ThresholdReached {
			s.metrics.ThresholdCrossings.Inc()
		}
		s.metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	}
	if result.ThresholdReached {
		slog.Info("account reached alert threshold", "account_id", result.AccountID.String(), "flag_count", result.FlagCount)
	}

	publishEvents(ctx, s.publisher, s.metrics, emitted)
	return &result, nil
}

// CountByReporter returns how many reports the given principal has filed.
func (s *ReportService) CountByReporter(ctx context.Context, reporterID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_digest = ?", s.digester.Digest(reporterID)).
		Count(&n).Error
	if err != nil {
		return 0, storageErr("count reporter reports", err)
	}
	return n, nil
}

// List returns reports newest first, optionally filtered by category and the
// platform of the reported account.
func (s *ReportService) List(ctx context.Context, f ReportFilter) ([]ReportView, int64, error) {
	q := s.db.WithContext(ctx).Table("reports").
		Joins("JOIN accounts ON accounts.id = reports.account_id")

	if f.Category != "" && f.Category != "all" {
		c, err := models.ParseCategory(f.Category)
		if err != nil {
			return nil, 0, invalid("category", err)
		}
		q = q.Where("reports.category = ?", c)
	}
	if f.Platform != "" && f.Platform != "all" {
		p, err := models.ParsePlatform(f.Platform)
		if err != nil {
			return nil, 0, invalid("platform", err)
		}
		q = q.Where("accounts.platform = ?", p)
	}
	limit, err := clampLimit(f.Limit, 50, 200)
	if err != nil {
		return nil, 0, err
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storageErr("count reports", err)
	}

	views, err := scanReportViews(q, limit, max(f.Offset, 0))
	if err != nil {
		return nil, 0, storageErr("list reports", err)
	}
	return views, total, nil
}

func scanReportViews(q *gorm.DB, limit, offset int) ([]ReportView, error) {
	views := []ReportView{}
	err := q.Select("reports.id, reports.account_id, reports.category, reports.description, reports.evidence_urls, reports.created_at, " +
		"accounts.platform, accounts.handle, accounts.flag_count, accounts.status AS account_status").
		Order("reports.created_at DESC").
		Order("reports.id").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	return views, err
}

// publishEvents hands committed events to the stream. Failures are logged and
// counted; the events are already durable in activity_events.
func publishEvents(ctx context.Context, p notify.Publisher, m *metrics.Metrics, evs []models.ActivityEvent) {
	if err := p.Publish(ctx, evs); err != nil {
		if m != nil {
			m.PublishFailures.Add(float64(len(evs)))
		}
		slog.Warn("activity publish failed", "action", "publish_feed", "error", err)
	}
}

func cleanDescription(d *string) (*string, error) {
	if d == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxDescriptionLength {
		return nil, &ValidationError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", maxDescriptionLength)}
	}
	return &trimmed, nil
}

func cleanEvidence(urls []string) (datatypes.JSONSlice[string], error) {
	out := make(datatypes.JSONSlice[string], 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	if len(out) > maxEvidenceURLs {
		return nil, &ValidationError{Field: "evidence_urls", Reason: fmt.Sprintf("at most %d evidence links", maxEvidenceURLs)}
	}
	return out, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// clampLimit applies a default for zero, rejects negatives and caps at max.
func clampLimit(limit, def, maxLimit int) (int, error) {
	switch {
	case limit < 0:
		return 0, &ValidationError{Field: "limit", Reason: "must not be negative"}
	case limit == 0:
		return def, nil
	case limit > maxLimit:
		return maxLimit, nil
	}
	return limit, nil
}
