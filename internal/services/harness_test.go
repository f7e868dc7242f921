package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weseeyou/backend/internal/events"
	"github.com/weseeyou/backend/internal/metrics"
	"github.com/weseeyou/backend/internal/models"
	"github.com/weseeyou/backend/internal/testdb"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evs []models.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) Published() []models.ActivityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ActivityEvent(nil), p.events...)
}

type harness struct {
	db         *gorm.DB
	clock      *fakeClock
	publisher  *recordingPublisher
	metrics    *metrics.Metrics
	reports    *ReportService
	moderation *ModerationService
	accounts   *AccountService
	trending   *TrendingService
	feed       *FeedService
	inbox      *NotificationService
}

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testdb.Open(t)
	clock := &fakeClock{t: baseTime}
	pub := &recordingPublisher{}
	m := metrics.New()
	digester := NewReporterDigester("test-pepper")
	detector := events.NewDetector(models.PublicAlertThreshold)

	h := &harness{
		db:         db,
		clock:      clock,
		publisher:  pub,
		metrics:    m,
		reports:    NewReportService(db, detector, digester, pub, m),
		moderation: NewModerationService(db, detector, pub, m),
		accounts:   NewAccountService(db),
		trending:   NewTrendingService(db),
		feed:       NewFeedService(db),
		inbox:      NewNotificationService(db, digester),
	}
	h.reports.now = clock.Now
	h.moderation.now = clock.Now
	h.trending.now = clock.Now
	return h
}

func (h *harness) submit(t *testing.T, platform, handle string) *SubmitResult {
	t.Helper()
	res, err := h.reports.Submit(context.Background(), SubmitReportInput{
		Platform:   platform,
		Handle:     handle,
		ReporterID: uuid.New(),
		Category:   string(models.CategoryThreats),
	})
	if err != nil {
		t.Fatalf("Submit(%s, %q): %v", platform, handle, err)
	}
	return res
}

// submitAs records one report filed by reporter.
func (h *harness) submitAs(t *testing.T, reporter uuid.UUID, platform, handle string) *SubmitResult {
	t.Helper()
	res, err := h.reports.Submit(context.Background(), SubmitReportInput{
		Platform:   platform,
		Handle:     handle,
		ReporterID: reporter,
		Category:   string(models.CategoryThreats),
	})
	if err != nil {
		t.Fatalf("Submit(%s, %q): %v", platform, handle, err)
	}
	return res
}

// submitAt records n reports for the identity with the clock set to at.
func (h *harness) submitAt(t *testing.T, at time.Time, platform, handle string, n int) {
	t.Helper()
	h.clock.Set(at)
	for i := 0; i < n; i++ {
		h.submit(t, platform, handle)
	}
}

func (h *harness) countRows(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := h.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (h *harness) eventCount(t *testing.T, accountID uuid.UUID, kind models.ActivityType) int64 {
	t.Helper()
	return h.countRows(t, &models.ActivityEvent{}, "account_id = ? AND activity_type = ?", accountID, kind)
}

func requireValidation(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if errors.Is(err, ErrStorage) {
		t.Fatalf("validation error must not be a storage failure: %v", err)
	}
}
