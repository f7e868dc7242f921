package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/weseeyou/backend/internal/events"
	"github.com/weseeyou/backend/internal/metrics"
	"github.com/weseeyou/backend/internal/models"
	"github.com/weseeyou/backend/internal/notify"
)

const maxNotesLength = 2000

type SetStatusInput struct {
	AccountID   uuid.UUID
	Status      string
	Notes       *string
	ModeratorID *uuid.UUID
}

// ModerationService applies moderator verdicts. Any status may move to any
// other; moderators correct their own mistakes.
type ModerationService struct {
	db        *gorm.DB
	detector  *events.Detector
	publisher notify.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewModerationService(db *gorm.DB, detector *events.Detector, publisher notify.Publisher, m *metrics.Metrics) *ModerationService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &ModerationService{
		db:        db,
		detector:  detector,
		publisher: publisher,
		metrics:   m,
		now:       utcNow,
	}
}

// SetStatus changes the account's status (and notes when given), refreshes
// its classification, and records the feed events and an audit entry in the
// same transaction.
func (s *ModerationService) SetStatus(ctx context.Context, in SetStatusInput) (*models.Account, error) {
	status, err := models.ParseStatus(in.Status)
	if err != nil {
		return nil, invalid("status", err)
	}
	var notes *string
	if in.Notes != nil {
		trimmed := strings.TrimSpace(*in.Notes)
		if len(trimmed) > maxNotesLength {
			return nil, &ValidationError{Field: "notes", Reason: fmt.Sprintf("must be at most %d characters", maxNotesLength)}
		}
		notes = &trimmed
	}

	now := s.now()
	var (
		updated *models.Account
		emitted []models.ActivityEvent
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := loadAccountForUpdate(tx, in.AccountID)
		if err != nil {
			return err
		}

		changes := map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}
		notesUpdated := false
		if notes != nil {
			if *notes == "" {
				changes["moderator_notes"] = nil
				notesUpdated = before.ModeratorNotes != nil
			} else {
				changes["moderator_notes"] = *notes
				notesUpdated = before.ModeratorNotes == nil || *before.ModeratorNotes != *notes
			}
		}

		res := tx.Model(&models.Account{}).Where("id = ?", in.AccountID).UpdateColumns(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		acct, err := loadAccount(tx, in.AccountID)
		if err != nil {
			return err
		}
		if err := cacheClassification(tx, acct); err != nil {
			return err
		}

		evs := s.detector.ForStatusChange(acct, before.Status, status, now)
		if err := tx.Create(&evs).Error; err != nil {
			return fmt.Errorf("insert activity events: %w", err)
		}

		if before.Status != status {
			if title, message, ok := verdictNotice(acct, status); ok {
				if err := notifyReporters(tx, acct, models.NotificationUpdate, title, message, now); err != nil {
					return err
				}
			}
		}

		details, err := json.Marshal(map[string]interface{}{
			"old_status":    before.Status,
			"new_status":    status,
			"notes_updated": notesUpdated,
		})
		if err != nil {
			return err
		}
		audit := models.AuditLog{
			ID:          uuid.New(),
			ModeratorID: in.ModeratorID,
			Action:      "update_account_status",
			TargetType:  "account",
			TargetID:    acct.ID,
			Details:     datatypes.JSON(details),
			CreatedAt:   now,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("insert audit log: %w", err)
		}

		updated = acct
		emitted = evs
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("status update failed", "action", "update_account_status", "account_id", in.AccountID.String(), "error", err)
		return nil, storageErr("set account status", err)
	}

	if s.metrics != nil {
		s.metrics.StatusChanges.WithLabelValues(string(status)).Inc()
	}
	slog.Info("account status updated", "action", "update_account_status", "account_id", updated.ID.String(), "status", string(status))

	publishEvents(ctx, s.publisher, s.metrics, emitted)
	return updated, nil
}
