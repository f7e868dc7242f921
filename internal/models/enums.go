package models

import (
	"fmt"
	"strings"
)

// PublicAlertThreshold is the flag count at which an account is publicly flagged.
const PublicAlertThreshold = 3

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
)

var platforms = map[Platform]bool{
	PlatformInstagram: true,
	PlatformX:         true,
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !platforms[p] {
		return "", fmt.Errorf("unknown platform %q: must be instagram or x", s)
	}
	return p, nil
}

type Category string

const (
	CategoryNonConsensualNudity Category = "non_consensual_nudity"
	CategorySexualHarassment    Category = "sexual_harassment"
	CategoryHateSpeech          Category = "hate_speech"
	CategoryThreats             Category = "threats"
	CategoryGraphicViolence     Category = "graphic_violence"
	CategoryOther               Category = "other"
)

var categories = map[Category]bool{
	CategoryNonConsensualNudity: true,
	CategorySexualHarassment:    true,
	CategoryHateSpeech:          true,
	CategoryThreats:             true,
	CategoryGraphicViolence:     true,
	CategoryOther:               true,
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !categories[c] {
		return "", fmt.Errorf("unknown report category %q", s)
	}
	return c, nil
}

// AccountStatus is the moderation lifecycle state of an account.
type AccountStatus string

const (
	StatusOpen      AccountStatus = "open"
	StatusReviewing AccountStatus = "reviewing"
	StatusVerified  AccountStatus = "verified"
	StatusCleared   AccountStatus = "cleared"
	StatusEscalated AccountStatus = "escalated"
)

var statuses = map[AccountStatus]bool{
	StatusOpen:      true,
	StatusReviewing: true,
	StatusVerified:  true,
	StatusCleared:   true,
	StatusEscalated: true,
}

func ParseStatus(s string) (AccountStatus, error) {
	st := AccountStatus(strings.TrimSpace(s))
	if !statuses[st] {
		return "", fmt.Errorf("unknown account status %q", s)
	}
	return st, nil
}

type SafetyTier string

const (
	TierClean   SafetyTier = "clean"
	TierCaution SafetyTier = "caution"
	TierWarning SafetyTier = "warning"
	TierDanger  SafetyTier = "danger"
)

func ParseTier(s string) (SafetyTier, error) {
	switch t := SafetyTier(strings.TrimSpace(s)); t {
	case TierClean, TierCaution, TierWarning, TierDanger:
		return t, nil
	}
	return "", fmt.Errorf("unknown safety tier %q", s)
}

type ActivityType string

const (
	ActivityNewReport        ActivityType = "new_report"
	ActivityThresholdReached ActivityType = "threshold_reached"
	ActivityStatusChanged    ActivityType = "status_changed"
	ActivityVerified         ActivityType = "verified"
)

func ParseActivityType(s string) (ActivityType, error) {
	switch a := ActivityType(strings.TrimSpace(s)); a {
	case ActivityNewReport, ActivityThresholdReached, ActivityStatusChanged, ActivityVerified:
		return a, nil
	}
	return "", fmt.Errorf("unknown activity type %q", s)
}
