package models

import (
	"time"

	"gorm.io/gorm"
)

// Voucher is an operator-issued code redeemable for credits or a discount.
// Referral-type vouchers are owned by the referring user.
type Voucher struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Code            string         `gorm:"uniqueIndex" json:"code"`
	Type            string         `json:"type"`       // "discount" or "referral"
	ValueType       string         `json:"value_type"` // credits, percentage_discount, dollar_discount
	ValueAmount     float64        `json:"value_amount"`
	MaxUses         *int           `json:"max_uses"` // nil = unlimited
	PerUserLimit    int            `json:"per_user_limit" gorm:"default:1"`
	ExpiryDate      *time.Time     `json:"expiry_date"`
	TierRestriction string         `json:"tier_restriction"` // empty = any tier
	IsActive        bool           `json:"is_active"`
	TotalUses       int            `json:"total_uses" gorm:"default:0"`
	OwnerUserID     *uint          `json:"owner_user_id" gorm:"index"` // referral vouchers only
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// VoucherRedemption records one successful redemption of a voucher by a user.
type VoucherRedemption struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	VoucherID      uint      `json:"voucher_id" gorm:"index"`
	UserID         uint      `json:"user_id" gorm:"index"`
	CreditsAwarded int64     `json:"credits_awarded"`
	RedeemedAt     time.Time `json:"redeemed_at"`
}

// Voucher type constants
const (
	VoucherTypeDiscount = "discount"
	VoucherTypeReferral = "referral"
)

// Voucher value type constants
const (
	VoucherValueCredits            = "credits"
	VoucherValuePercentageDiscount = "percentage_discount"
	VoucherValueDollarDiscount     = "dollar_discount"
)
