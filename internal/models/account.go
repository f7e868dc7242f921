package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a reported social-media identity. (platform, handle) is unique.
type Account struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Platform       Platform      `gorm:"size:20;not null;uniqueIndex:idx_accounts_identity,priority:1" json:"platform"`
	Handle         string        `gorm:"size:100;not null;uniqueIndex:idx_accounts_identity,priority:2" json:"handle"`
	FlagCount      int           `gorm:"not null;index" json:"flag_count"`
	Status         AccountStatus `gorm:"size:20;not null;index" json:"status"`
	FirstFlaggedAt *time.Time    `json:"first_flagged_at"`
	LastFlaggedAt  *time.Time    `gorm:"index" json:"last_flagged_at"`
	ModeratorNotes *string       `gorm:"size:2000" json:"moderator_notes,omitempty"`
	SafetyScore    int           `gorm:"not null" json:"safety_score"`
	SafetyTier     SafetyTier    `gorm:"size:20;not null;index" json:"safety_tier"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
