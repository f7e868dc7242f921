package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/weseeyou/backend/internal/models"
)

func TestSubmitCreatesAccountOnFirstReport(t *testing.T) {
	h := newHarness(t)
	desc := "  sent threatening DMs  "

	res, err := h.reports.Submit(context.Background(), SubmitReportInput{
		Platform:     "instagram",
		Handle:       "@Someone",
		ReporterID:   uuid.New(),
		Category:     "threats",
		Description:  &desc,
		EvidenceURLs: []string{" https://example.com/1 ", ""},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.AccountCreated || res.FlagCount != 1 || res.ThresholdReached {
		t.Fatalf("result = %+v, want created account with one flag", res)
	}
	if res.SafetyScore != 90 || res.SafetyTier != models.TierClean {
		t.Fatalf("classification = %d/%s, want 90/clean", res.SafetyScore, res.SafetyTier)
	}

	acct, err := h.accounts.GetByID(context.Background(), res.AccountID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if acct.Handle != "someone" || acct.Status != models.StatusOpen {
		t.Fatalf("account = %+v", acct)
	}
	if acct.FirstFlaggedAt == nil || !acct.FirstFlaggedAt.Equal(baseTime) {
		t.Fatalf("first_flagged_at = %v, want %v", acct.FirstFlaggedAt, baseTime)
	}
	if acct.SafetyScore != 90 || acct.SafetyTier != models.TierClean {
		t.Fatalf("cached classification = %d/%s", acct.SafetyScore, acct.SafetyTier)
	}

	var report models.Report
	if err := h.db.Where("id = ?", res.ReportID).First(&report).Error; err != nil {
		t.Fatalf("load report: %v", err)
	}
	if report.Description == nil || *report.Description != "sent threatening DMs" {
		t.Fatalf("description = %v", report.Description)
	}
	if len(report.EvidenceURLs) != 1 || report.EvidenceURLs[0] != "https://example.com/1" {
		t.Fatalf("evidence = %v", report.EvidenceURLs)
	}
}

func TestSubmitThresholdScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var last *SubmitResult
	for i := 1; i <= 4; i++ {
		h.clock.Set(baseTime.Add(time.Duration(i) * time.Minute))
		last = h.submit(t, "x", "abuser1")
		if last.FlagCount != i {
			t.Fatalf("report %d: flag count = %d", i, last.FlagCount)
		}
		if got, want := last.ThresholdReached, i == models.PublicAlertThreshold; got != want {
			t.Fatalf("report %d: threshold_reached = %v, want %v", i, got, want)
		}
	}
	id := last.AccountID

	if n := h.eventCount(t, id, models.ActivityThresholdReached); n != 1 {
		t.Fatalf("threshold events = %d, want 1", n)
	}
	if n := h.eventCount(t, id, models.ActivityNewReport); n != 4 {
		t.Fatalf("new_report events = %d, want 4", n)
	}

	acct, err := h.accounts.Get(ctx, "x", "abuser1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !acct.FirstFlaggedAt.Equal(baseTime.Add(time.Minute)) || !acct.LastFlaggedAt.Equal(baseTime.Add(4*time.Minute)) {
		t.Fatalf("flag window = %v..%v", acct.FirstFlaggedAt, acct.LastFlaggedAt)
	}
	if acct.SafetyTier != models.TierWarning {
		t.Fatalf("tier at 4 reports = %s, want warning", acct.SafetyTier)
	}

	updated, err := h.moderation.SetStatus(ctx, SetStatusInput{AccountID: id, Status: "verified"})
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.Status != models.StatusVerified || updated.SafetyTier != models.TierDanger {
		t.Fatalf("after verify = %s/%s, want verified/danger", updated.Status, updated.SafetyTier)
	}
	if updated.FlagCount != 4 {
		t.Fatalf("status change altered flag count: %d", updated.FlagCount)
	}
	if n := h.eventCount(t, id, models.ActivityStatusChanged); n != 1 {
		t.Fatalf("status_changed events = %d, want 1", n)
	}
	if n := h.eventCount(t, id, models.ActivityVerified); n != 1 {
		t.Fatalf("verified events = %d, want 1", n)
	}

	// Further reports past the threshold never fire again.
	h.submit(t, "x", "abuser1")
	if n := h.eventCount(t, id, models.ActivityThresholdReached); n != 1 {
		t.Fatalf("threshold events after fifth report = %d, want 1", n)
	}
}

func TestConcurrentSubmitsAgainstNewIdentity(t *testing.T) {
	h := newHarness(t)
	const n = 25

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		counts  = map[int]bool{}
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.reports.Submit(context.Background(), SubmitReportInput{
				Platform:   "x",
				Handle:     "@Target",
				ReporterID: uuid.New(),
				Category:   "hate_speech",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.AccountCreated {
				created++
			}
			counts[res.FlagCount] = true
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("submit errors: %v", errs)
	}
	if created != 1 {
		t.Fatalf("account_created reported %d times, want 1", created)
	}
	// Every caller observed a distinct post-increment count.
	for i := 1; i <= n; i++ {
		if !counts[i] {
			t.Fatalf("no caller observed flag count %d", i)
		}
	}

	acct, err := h.accounts.Get(context.Background(), "x", "target")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acct.FlagCount != n {
		t.Fatalf("flag_count = %d, want %d", acct.FlagCount, n)
	}
	if got := h.countRows(t, &models.Account{}, ""); got != 1 {
		t.Fatalf("accounts = %d, want 1", got)
	}
	if got := h.countRows(t, &models.Report{}, "account_id = ?", acct.ID); got != n {
		t.Fatalf("reports = %d, want %d", got, n)
	}
	if got := h.eventCount(t, acct.ID, models.ActivityThresholdReached); got != 1 {
		t.Fatalf("threshold events = %d, want 1", got)
	}
	if got := testutil.ToFloat64(h.metrics.ThresholdCrossings); got != 1 {
		t.Fatalf("threshold metric = %v, want 1", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	long := strings.Repeat("x", maxDescriptionLength+1)
	tooMany := make([]string, maxEvidenceURLs+1)
	for i := range tooMany {
		tooMany[i] = "https://example.com"
	}

	tests := []struct {
		name string
		in   SubmitReportInput
	}{
		{"unknown platform", SubmitReportInput{Platform: "myspace", Handle: "a", ReporterID: uuid.New(), Category: "threats"}},
		{"empty handle", SubmitReportInput{Platform: "x", Handle: " @ ", ReporterID: uuid.New(), Category: "threats"}},
		{"unknown category", SubmitReportInput{Platform: "x", Handle: "a", ReporterID: uuid.New(), Category: "spam"}},
		{"missing reporter", SubmitReportInput{Platform: "x", Handle: "a", Category: "threats"}},
		{"long description", SubmitReportInput{Platform: "x", Handle: "a", ReporterID: uuid.New(), Category: "threats", Description: &long}},
		{"too much evidence", SubmitReportInput{Platform: "x", Handle: "a", ReporterID: uuid.New(), Category: "threats", EvidenceURLs: tooMany}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.reports.Submit(context.Background(), tt.in)
			requireValidation(t, err)
		})
	}

	if n := h.countRows(t, &models.Account{}, ""); n != 0 {
		t.Fatalf("rejected submissions created %d accounts", n)
	}
	if n := h.countRows(t, &models.Report{}, ""); n != 0 {
		t.Fatalf("rejected submissions created %d reports", n)
	}
}

func TestSubmitRollsBackOnStorageFailure(t *testing.T) {
	h := newHarness(t)
	if err := h.db.Migrator().DropTable(&models.ActivityEvent{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := h.reports.Submit(context.Background(), SubmitReportInput{
		Platform:   "x",
		Handle:     "rollback",
		ReporterID: uuid.New(),
		Category:   "other",
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if n := h.countRows(t, &models.Account{}, ""); n != 0 {
		t.Fatalf("accounts = %d after failed submit, want 0", n)
	}
	if n := h.countRows(t, &models.Report{}, ""); n != 0 {
		t.Fatalf("reports = %d after failed submit, want 0", n)
	}
	if got := len(h.publisher.Published()); got != 0 {
		t.Fatalf("published %d events for a rolled back submit", got)
	}
}

func TestSubmitPublishesCommittedEvents(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.submit(t, "instagram", "streamed")
	}

	published := h.publisher.Published()
	if len(published) != 4 {
		t.Fatalf("published %d events, want 4", len(published))
	}
	last := published[len(published)-1]
	if last.ActivityType != models.ActivityThresholdReached || last.ID == 0 {
		t.Fatalf("last event = %+v, want persisted threshold_reached", last)
	}
}

func TestSubmitSurvivesPublisherFailure(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("stream unavailable")

	res := h.submit(t, "x", "offline")
	if res.FlagCount != 1 {
		t.Fatalf("flag count = %d", res.FlagCount)
	}
	if n := h.eventCount(t, res.AccountID, models.ActivityNewReport); n != 1 {
		t.Fatalf("feed rows = %d, want 1", n)
	}
	if got := testutil.ToFloat64(h.metrics.PublishFailures); got != 1 {
		t.Fatalf("publish failure metric = %v, want 1", got)
	}
}

func TestCountByReporter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reporter := uuid.New()

	for _, handle := range []string{"one", "two", "one"} {
		_, err := h.reports.Submit(ctx, SubmitReportInput{Platform: "x", Handle: handle, ReporterID: reporter, Category: "other"})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	h.submit(t, "x", "one")

	n, err := h.reports.CountByReporter(ctx, reporter)
	if err != nil {
		t.Fatalf("CountByReporter: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	other, err := h.reports.CountByReporter(ctx, uuid.New())
	if err != nil || other != 0 {
		t.Fatalf("unknown reporter count = %d, %v", other, err)
	}
}

func TestReporterIdentityIsNotStoredOrExposed(t *testing.T) {
	h := newHarness(t)
	reporter := uuid.New()

	res, err := h.reports.Submit(context.Background(), SubmitReportInput{Platform: "x", Handle: "anon", ReporterID: reporter, Category: "other"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var report models.Report
	if err := h.db.Where("id = ?", res.ReportID).First(&report).Error; err != nil {
		t.Fatalf("load report: %v", err)
	}
	if report.ReporterDigest == "" || strings.Contains(report.ReporterDigest, reporter.String()) {
		t.Fatalf("stored digest %q leaks the reporter", report.ReporterDigest)
	}

	body, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(body), "reporter") || strings.Contains(string(body), report.ReporterDigest) {
		t.Fatalf("report JSON exposes reporter data: %s", body)
	}

	views, _, err := h.reports.List(context.Background(), ReportFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	body, _ = json.Marshal(views)
	if strings.Contains(string(body), "reporter") {
		t.Fatalf("report listing exposes reporter data: %s", body)
	}
}

func TestListReports(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.clock.Set(baseTime)
	h.submit(t, "x", "alpha")
	h.clock.Set(baseTime.Add(time.Hour))
	if _, err := h.reports.Submit(ctx, SubmitReportInput{Platform: "instagram", Handle: "beta", ReporterID: uuid.New(), Category: "hate_speech"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.clock.Set(baseTime.Add(2 * time.Hour))
	h.submit(t, "instagram", "gamma")

	all, total, err := h.reports.List(ctx, ReportFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total=%d len=%d, want 3", total, len(all))
	}
	if all[0].Handle != "gamma" || all[2].Handle != "alpha" {
		t.Fatalf("order = %s,%s,%s, want newest first", all[0].Handle, all[1].Handle, all[2].Handle)
	}

	ig, total, err := h.reports.List(ctx, ReportFilter{Platform: "instagram", Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(ig) != 1 || ig[0].Handle != "gamma" {
		t.Fatalf("instagram page = %+v total=%d", ig, total)
	}

	hate, total, err := h.reports.List(ctx, ReportFilter{Category: "hate_speech"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || hate[0].Handle != "beta" || hate[0].Platform != models.PlatformInstagram {
		t.Fatalf("hate_speech = %+v", hate)
	}

	_, _, err = h.reports.List(ctx, ReportFilter{Category: "spam"})
	requireValidation(t, err)
	_, _, err = h.reports.List(ctx, ReportFilter{Limit: -1})
	requireValidation(t, err)
}
