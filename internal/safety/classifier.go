// Package safety derives an account's safety score and tier from its report
// volume and moderation status.
package safety

import "github.com/weseeyou/backend/internal/models"

const (
	MaxScore = 100

	// DeductionPerReport is the linear score penalty for each report.
	DeductionPerReport = 10

	// verifiedScoreCeiling keeps a verified account's score inside the danger band.
	verifiedScoreCeiling = 39
)

type Result struct {
	Score int               `json:"safety_score"`
	Tier  models.SafetyTier `json:"safety_tier"`
}

// Classify maps (flagCount, status) to a score and tier. Moderator verdicts
// take precedence over report volume: cleared is always clean, verified is
// always danger.
func Classify(flagCount int, status models.AccountStatus) Result {
	raw := RawScore(flagCount)

	switch status {
	case models.StatusCleared:
		return Result{Score: MaxScore, Tier: models.TierClean}
	case models.StatusVerified:
		return Result{Score: min(raw, verifiedScoreCeiling), Tier: models.TierDanger}
	}

	return Result{Score: raw, Tier: TierForScore(raw)}
}

// RawScore is the count-derived score before any moderator override.
func RawScore(flagCount int) int {
	if flagCount < 0 {
		flagCount = 0
	}
	return max(0, MaxScore-DeductionPerReport*flagCount)
}

func TierForScore(score int) models.SafetyTier {
	switch {
	case score >= 90:
		return models.TierClean
	case score >= 70:
		return models.TierCaution
	case score >= 40:
		return models.TierWarning
	default:
		return models.TierDanger
	}
}

// Apply writes the classification of a into its cached score and tier fields.
func Apply(a *models.Account) {
	r := Classify(a.FlagCount, a.Status)
	a.SafetyScore = r.Score
	a.SafetyTier = r.Tier
}
