package models

import (
	"time"
)

// FeatureFlag gates a product feature by tier. The flag registry is read-only
// to the ledger core; rows are seeded at boot and managed by operators.
type FeatureFlag struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex" json:"name"`
	RequiredTiers string    `json:"required_tiers"` // comma separated, e.g. "premium"
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Feature name constants
const (
	FeatureCloneMe           = "clone_me"
	FeatureAIShield          = "ai_shield"
	FeatureExtendedWordCount = "extended_word_count"
)
