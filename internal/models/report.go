package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Report is one anonymous abuse report. Reports are append-only.
// ReporterDigest is a keyed hash of the reporter principal and is never serialized.
type Report struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID      uuid.UUID                   `gorm:"type:uuid;not null;index:idx_reports_account_created,priority:1" json:"account_id"`
	Category       Category                    `gorm:"size:50;not null;index" json:"category"`
	Description    *string                     `gorm:"type:text" json:"description,omitempty"`
	EvidenceURLs   datatypes.JSONSlice[string] `gorm:"column:evidence_urls" json:"evidence_urls"`
	ReporterDigest string                      `gorm:"size:64;not null;index" json:"-"`
	CreatedAt      time.Time                   `gorm:"not null;index:idx_reports_account_created,priority:2" json:"created_at"`

	Account Account `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Report) TableName() string {
	return "reports"
}
