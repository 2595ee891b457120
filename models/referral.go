package models

import (
	"time"

	"gorm.io/gorm"
)

// Referral links a referred signup to the referrer. The reward is granted on the
// referee's first confirmed purchase, not at signup.
type Referral struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ReferrerUserID uint           `json:"referrer_user_id" gorm:"index"`
	ReferredUserID uint           `json:"referred_user_id" gorm:"uniqueIndex"`
	ReferralCode   string         `json:"referral_code"`
	RewardGranted  bool           `json:"reward_granted" gorm:"default:false"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReferralStats is derived from ledger entries with source "Referral"; it is
// never stored, so the numbers cannot drift from the ledger.
type ReferralStats struct {
	ReferralCode       string `json:"referral_code"`
	TotalReferrals     int64  `json:"total_referrals"`
	TotalCreditsEarned int64  `json:"total_credits_earned"`
}
