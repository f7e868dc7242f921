package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weseeyou/backend/internal/models"
)

const (
	inboxLimit        = 50
	notificationBatch = 100
)

// NotificationService serves a reporter's inbox. Recipients are addressed by
// reporter digest only, the same key their reports already carry.
type NotificationService struct {
	db       *gorm.DB
	digester *ReporterDigester
}

func NewNotificationService(db *gorm.DB, digester *ReporterDigester) *NotificationService {
	return &NotificationService{db: db, digester: digester}
}

// List returns the caller's newest notifications and marks every unread one
// as read. The returned entries keep the read state they had when loaded.
func (s *NotificationService) List(ctx context.Context, reporterID uuid.UUID) ([]models.Notification, error) {
	digest := s.digester.Digest(reporterID)
	items := []models.Notification{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipient_digest = ?", digest).
			Order("created_at DESC").
			Order("id").
			Limit(inboxLimit).
			Find(&items).Error; err != nil {
			return err
		}
		return tx.Model(&models.Notification{}).
			Where("recipient_digest = ? AND read = ?", digest, false).
			UpdateColumn("read", true).Error
	})
	if err != nil {
		return nil, storageErr("list notifications", err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, reporterID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_digest = ? AND read = ?", s.digester.Digest(reporterID), false).
		Count(&n).Error
	if err != nil {
		return 0, storageErr("count unread notifications", err)
	}
	return n, nil
}

// notifyReporters writes one notification per distinct reporter of the
// account. It runs inside the caller's transaction.
func notifyReporters(tx *gorm.DB, a *models.Account, kind models.NotificationKind, title, message string, now time.Time) error {
	var digests []string
	if err := tx.Model(&models.Report{}).
		Where("account_id = ?", a.ID).
		Distinct().
		Pluck("reporter_digest", &digests).Error; err != nil {
		return fmt.Errorf("load reporters: %w", err)
	}
	if len(digests) == 0 {
		return nil
	}

	rows := make([]models.Notification, 0, len(digests))
	for _, d := range digests {
		rows = append(rows, models.Notification{
			ID:              uuid.New(),
			RecipientDigest: d,
			AccountID:       a.ID,
			Platform:        a.Platform,
			Handle:          a.Handle,
			Kind:            kind,
			Title:           title,
			Message:         message,
			CreatedAt:       now,
		})
	}
	if err := tx.CreateInBatches(&rows, notificationBatch).Error; err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

func thresholdNotice(a *models.Account) (string, string) {
	return "Account publicly flagged",
		fmt.Sprintf("@%s on %s has reached %d reports and is now publicly flagged.", a.Handle, a.Platform, a.FlagCount)
}

// verdictNotice returns false for statuses reporters are not told about.
func verdictNotice(a *models.Account, status models.AccountStatus) (string, string, bool) {
	switch status {
	case models.StatusVerified:
		return "Report verified",
			fmt.Sprintf("Moderators verified the reports against @%s on %s.", a.Handle, a.Platform), true
	case models.StatusCleared:
		return "Account cleared",
			fmt.Sprintf("Moderators reviewed @%s on %s and cleared the account.", a.Handle, a.Platform), true
	}
	return "", "", false
}
