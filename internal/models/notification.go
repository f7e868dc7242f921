package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationAlert  NotificationKind = "alert"
	NotificationUpdate NotificationKind = "update"
)

// Notification is an inbox entry for someone who reported an account.
// RecipientDigest matches Report.ReporterDigest and is never serialized.
type Notification struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientDigest string           `gorm:"size:64;not null;index:idx_notifications_recipient_created,priority:1" json:"-"`
	AccountID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"account_id"`
	Platform        Platform         `gorm:"size:20;not null" json:"platform"`
	Handle          string           `gorm:"size:100;not null" json:"handle"`
	Kind            NotificationKind `gorm:"size:20;not null" json:"type"`
	Title           string           `gorm:"size:200;not null" json:"title"`
	Message         string           `gorm:"size:500;not null" json:"message"`
	Read            bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt       time.Time        `gorm:"not null;index:idx_notifications_recipient_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
