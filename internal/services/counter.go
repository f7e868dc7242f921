package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weseeyou/backend/internal/models"
	"github.com/weseeyou/backend/internal/safety"
)

// incrementFlagCount adds exactly one report to the account's tally in the
// database and returns the post-increment row and the previous count. The
// UPDATE holds the row lock until tx ends, so the count read back is this
// caller's own value.
func incrementFlagCount(tx *gorm.DB, accountID uuid.UUID, now time.Time) (*models.Account, int, error) {
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumns(map[string]interface{}{
			"flag_count":       gorm.Expr("flag_count + ?", 1),
			"last_flagged_at":  now,
			"first_flagged_at": gorm.Expr("COALESCE(first_flagged_at, ?)", now),
			"updated_at":       now,
		})
	if res.Error != nil {
		return nil, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, 0, ErrNotFound
	}

	acct, err := loadAccount(tx, accountID)
	if err != nil {
		return nil, 0, err
	}
	if err := cacheClassification(tx, acct); err != nil {
		return nil, 0, err
	}
	return acct, acct.FlagCount - 1, nil
}

// cacheClassification recomputes the account's score and tier from its
// current count and status and stores them in the same transaction.
func cacheClassification(tx *gorm.DB, acct *models.Account) error {
	safety.Apply(acct)
	return tx.Model(&models.Account{}).
		Where("id = ?", acct.ID).
		UpdateColumns(map[string]interface{}{
			"safety_score": acct.SafetyScore,
			"safety_tier":  acct.SafetyTier,
		}).Error
}

// loadAccountForUpdate reads the account and holds its row lock until tx ends.
func loadAccountForUpdate(tx *gorm.DB, id uuid.UUID) (*models.Account, error) {
	return loadAccount(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func loadAccount(tx *gorm.DB, id uuid.UUID) (*models.Account, error) {
	var acct models.Account
	res := tx.Where("id = ?", id).Limit(1).Find(&acct)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &acct, nil
}
