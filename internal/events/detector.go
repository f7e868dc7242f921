// Package events turns counter and status transitions into activity feed events.
package events

import (
	"fmt"
	"time"

	"github.com/weseeyou/backend/internal/models"
)

type Detector struct {
	threshold int
}

func NewDetector(threshold int) *Detector {
	return &Detector{threshold: threshold}
}

func (d *Detector) Threshold() int {
	return d.threshold
}

// CrossedThreshold reports whether a transition from previous to next crosses
// the alert threshold. It is a boundary check so a batch jump still fires once.
func (d *Detector) CrossedThreshold(previous, next int) bool {
	return previous < d.threshold && next >= d.threshold
}

// ForReport returns the events for one recorded report. It always includes a
// new_report event and adds threshold_reached on the crossing increment.
func (d *Detector) ForReport(a *models.Account, previous, next int, now time.Time) []models.ActivityEvent {
	out := []models.ActivityEvent{
		newEvent(a, models.ActivityNewReport, fmt.Sprintf("New report against @%s on %s", a.Handle, a.Platform), now),
	}
	if d.CrossedThreshold(previous, next) {
		out = append(out, newEvent(a, models.ActivityThresholdReached,
			fmt.Sprintf("@%s on %s reached %d reports", a.Handle, a.Platform, next), now))
	}
	return out
}

// ForStatusChange returns the events for a moderator status change. Every
// change emits status_changed; moving into verified also emits verified.
func (d *Detector) ForStatusChange(a *models.Account, from, to models.AccountStatus, now time.Time) []models.ActivityEvent {
	out := []models.ActivityEvent{
		newEvent(a, models.ActivityStatusChanged,
			fmt.Sprintf("@%s on %s moved from %s to %s", a.Handle, a.Platform, from, to), now),
	}
	if to == models.StatusVerified {
		out = append(out, newEvent(a, models.ActivityVerified,
			fmt.Sprintf("@%s on %s was verified by moderators", a.Handle, a.Platform), now))
	}
	return out
}

func newEvent(a *models.Account, kind models.ActivityType, description string, now time.Time) models.ActivityEvent {
	return models.ActivityEvent{
		AccountID:    a.ID,
		Platform:     a.Platform,
		Handle:       a.Handle,
		ActivityType: kind,
		Description:  description,
		CreatedAt:    now,
	}
}
