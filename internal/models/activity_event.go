package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityEvent is an immutable public feed entry.
type ActivityEvent struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	AccountID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"account_id"`
	Platform     Platform     `gorm:"size:20;not null;index" json:"platform"`
	Handle       string       `gorm:"size:100;not null" json:"handle"`
	ActivityType ActivityType `gorm:"size:30;not null;index" json:"activity_type"`
	Description  string       `gorm:"size:500;not null" json:"description"`
	CreatedAt    time.Time    `gorm:"not null;index" json:"created_at"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}
