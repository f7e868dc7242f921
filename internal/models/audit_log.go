package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog records moderator actions against accounts.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModeratorID *uuid.UUID     `gorm:"type:uuid;index" json:"moderator_id"`
	Action      string         `gorm:"size:100;not null;index" json:"action"`
	TargetType  string         `gorm:"size:50;not null" json:"target_type"`
	TargetID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"target_id"`
	Details     datatypes.JSON `json:"details"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
