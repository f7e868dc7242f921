package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/weseeyou/backend/internal/models"
)

func TestSetStatusUnknownAccount(t *testing.T) {
	h := newHarness(t)

	_, err := h.moderation.SetStatus(context.Background(), SetStatusInput{AccountID: uuid.New(), Status: "verified"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if n := h.countRows(t, &models.AuditLog{}, ""); n != 0 {
		t.Fatalf("audit rows = %d, want 0", n)
	}
	if n := h.countRows(t, &models.ActivityEvent{}, ""); n != 0 {
		t.Fatalf("events = %d, want 0", n)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t)
	res := h.submit(t, "x", "someone")

	_, err := h.moderation.SetStatus(context.Background(), SetStatusInput{AccountID: res.AccountID, Status: "banned"})
	requireValidation(t, err)
}

func TestSetStatusOverridesClassification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.submitAt(t, baseTime, "x", "heavy", 8)
	acct, err := h.accounts.Get(ctx, "x", "heavy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acct.SafetyScore != 20 || acct.SafetyTier != models.TierDanger {
		t.Fatalf("derived classification = %d/%s, want 20/danger", acct.SafetyScore, acct.SafetyTier)
	}

	cleared, err := h.moderation.SetStatus(ctx, SetStatusInput{AccountID: acct.ID, Status: "cleared"})
	if err != nil {
		t.Fatalf("SetStatus cleared: %v", err)
	}
	if cleared.SafetyTier != models.TierClean || cleared.SafetyScore != 100 {
		t.Fatalf("cleared = %d/%s, want 100/clean", cleared.SafetyScore, cleared.SafetyTier)
	}
	if n := h.eventCount(t, acct.ID, models.ActivityVerified); n != 0 {
		t.Fatalf("clearing emitted %d verified events", n)
	}

	// Reports keep counting while cleared, but the tier holds.
	res := h.submit(t, "x", "heavy")
	if res.FlagCount != 9 || res.SafetyTier != models.TierClean {
		t.Fatalf("report on cleared account = %+v", res)
	}

	reopened, err := h.moderation.SetStatus(ctx, SetStatusInput{AccountID: acct.ID, Status: "open"})
	if err != nil {
		t.Fatalf("SetStatus open: %v", err)
	}
	if reopened.SafetyScore != 10 || reopened.SafetyTier != models.TierDanger {
		t.Fatalf("reopened = %d/%s, want 10/danger", reopened.SafetyScore, reopened.SafetyTier)
	}

	stored, err := h.accounts.GetByID(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.SafetyScore != reopened.SafetyScore || stored.SafetyTier != reopened.SafetyTier {
		t.Fatalf("cached %d/%s differs from returned %d/%s", stored.SafetyScore, stored.SafetyTier, reopened.SafetyScore, reopened.SafetyTier)
	}
	if got := testutil.ToFloat64(h.metrics.StatusChanges.WithLabelValues("cleared")); got != 1 {
		t.Fatalf("cleared metric = %v, want 1", got)
	}
}

func TestSetStatusNotesAndAudit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.submit(t, "instagram", "noted")
	moderator := uuid.New()
	notes := "  confirmed by two moderators "

	acct, err := h.moderation.SetStatus(ctx, SetStatusInput{AccountID: res.AccountID, Status: "reviewing", Notes: &notes, ModeratorID: &moderator})
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if acct.ModeratorNotes == nil || *acct.ModeratorNotes != "confirmed by two moderators" {
		t.Fatalf("notes = %v", acct.ModeratorNotes)
	}

	// nil leaves notes alone.
	acct, err = h.moderation.SetStatus(ctx, SetStatusInput{AccountID: res.AccountID, Status: "escalated"})
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if acct.ModeratorNotes == nil {
		t.Fatal("notes cleared by a status-only update")
	}

	empty := ""
	acct, err = h.moderation.SetStatus(ctx, SetStatusInput{AccountID: res.AccountID, Status: "escalated", Notes: &empty})
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if acct.ModeratorNotes != nil {
		t.Fatalf("notes = %q, want cleared", *acct.ModeratorNotes)
	}

	var logs []models.AuditLog
	if err := h.db.Where("target_id = ?", res.AccountID).Order("created_at").Order("id").Find(&logs).Error; err != nil {
		t.Fatalf("load audit: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("audit rows = %d, want 3", len(logs))
	}
	var first struct {
		OldStatus    string `json:"old_status"`
		NewStatus    string `json:"new_status"`
		NotesUpdated bool   `json:"notes_updated"`
	}
	withModerator := 0
	for _, l := range logs {
		if l.Action != "update_account_status" || l.TargetType != "account" {
			t.Fatalf("audit row = %+v", l)
		}
		if l.ModeratorID != nil && *l.ModeratorID == moderator {
			withModerator++
			if err := json.Unmarshal(l.Details, &first); err != nil {
				t.Fatalf("details: %v", err)
			}
		}
	}
	if withModerator != 1 {
		t.Fatalf("audit rows attributed to moderator = %d, want 1", withModerator)
	}
	if first.OldStatus != "open" || first.NewStatus != "reviewing" || !first.NotesUpdated {
		t.Fatalf("audit details = %+v", first)
	}

	if n := h.eventCount(t, res.AccountID, models.ActivityStatusChanged); n != 3 {
		t.Fatalf("status_changed events = %d, want 3", n)
	}
}

func TestConcurrentStatusChangesRecordASingleChain(t *testing.T) {
	h := newHarness(t)
	res := h.submit(t, "x", "disputed")
	targets := []string{"reviewing", "verified", "cleared", "escalated"}

	var wg sync.WaitGroup
	errs := make(chan error, len(targets))
	for _, status := range targets {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			_, err := h.moderation.SetStatus(context.Background(), SetStatusInput{AccountID: res.AccountID, Status: status})
			errs <- err
		}(status)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
	}

	var logs []models.AuditLog
	if err := h.db.Where("target_id = ?", res.AccountID).Find(&logs).Error; err != nil {
		t.Fatalf("load audit: %v", err)
	}
	if len(logs) != len(targets) {
		t.Fatalf("audit rows = %d, want %d", len(logs), len(targets))
	}

	// Serialized transitions each start from a different status: open, then
	// three of the four targets.
	seen := map[string]bool{}
	for _, l := range logs {
		var d struct {
			OldStatus string `json:"old_status"`
		}
		if err := json.Unmarshal(l.Details, &d); err != nil {
			t.Fatalf("details: %v", err)
		}
		if seen[d.OldStatus] {
			t.Fatalf("two transitions recorded old_status %q", d.OldStatus)
		}
		seen[d.OldStatus] = true
	}
	if !seen["open"] {
		t.Fatalf("no transition started from open: %v", seen)
	}
}
