package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a regular user in the system
type User struct {
	gorm.Model
	Username      string    `gorm:"uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	Password      string    `json:"-"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	IsBlocked     bool      `json:"is_blocked"`
	IsVerified    bool      `json:"is_verified" gorm:"default:false"`
	CreditBalance int64     `json:"credit_balance" gorm:"default:0"`
	CreditExempt  bool      `json:"credit_exempt" gorm:"default:false"`
	ReferralCode  string    `json:"referral_code" gorm:"index"`
	LastLoginAt   time.Time `json:"last_login_at"`
	GoogleID      string    `gorm:"unique;default:null" json:"google_id"`
}

// Admin represents an administrator in the system
type Admin struct {
	gorm.Model
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	LastLogin time.Time `json:"last_login"`
	IsActive  bool      `json:"is_active"`
}

// Plan represents a purchasable credit pack
type Plan struct {
	gorm.Model
	Name     string  `json:"name" gorm:"uniqueIndex"`
	PriceUSD float64 `json:"price_usd"`
	Credits  int64   `json:"credits"`
	Active   bool    `json:"active"`
}
