package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weseeyou/backend/internal/metrics"
	"github.com/weseeyou/backend/internal/models"
	"github.com/weseeyou/backend/internal/safety"
)

const maxHandleLength = 100

// NormalizeHandle trims whitespace, strips leading "@" and lowercases.
// The result is the lookup and storage key for an account.
func NormalizeHandle(raw string) (string, error) {
	h := strings.TrimLeftFunc(raw, func(r rune) bool { return r == '@' || unicode.IsSpace(r) })
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "" {
		return "", &ValidationError{Field: "handle", Reason: "handle is required"}
	}
	if len(h) > maxHandleLength {
		return "", &ValidationError{Field: "handle", Reason: fmt.Sprintf("handle exceeds %d characters", maxHandleLength)}
	}
	if strings.IndexFunc(h, unicode.IsSpace) >= 0 {
		return "", &ValidationError{Field: "handle", Reason: "handle must not contain whitespace"}
	}
	return h, nil
}

// IdentityResolver maps a (platform, handle) pair to its single account row.
type IdentityResolver struct {
	metrics *metrics.Metrics
}

func NewIdentityResolver(m *metrics.Metrics) *IdentityResolver {
	return &IdentityResolver{metrics: m}
}

// Resolve returns the account for (platform, handle), creating it with a zero
// flag count when absent. handle must already be normalized. A concurrent
// insert of the same identity is absorbed by ON CONFLICT DO NOTHING and a
// second lookup, so callers never see a uniqueness error.
func (r *IdentityResolver) Resolve(tx *gorm.DB, platform models.Platform, handle string, now time.Time) (*models.Account, bool, error) {
	acct, err := findIdentity(tx, platform, handle)
	if err == nil {
		return acct, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	candidate := models.Account{
		ID:        uuid.New(),
		Platform:  platform,
		Handle:    handle,
		FlagCount: 0,
		Status:    models.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	safety.Apply(&candidate)

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}, {Name: "handle"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &candidate, true, nil
	}

	if r.metrics != nil {
		r.metrics.IdentityConflicts.Inc()
	}
	acct, err = findIdentity(tx, platform, handle)
	if err != nil {
		return nil, false, fmt.Errorf("lookup after identity conflict: %w", err)
	}
	return acct, false, nil
}

func findIdentity(tx *gorm.DB, platform models.Platform, handle string) (*models.Account, error) {
	var acct models.Account
	res := tx.Where("platform = ? AND handle = ?", platform, handle).Limit(1).Find(&acct)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &acct, nil
}
