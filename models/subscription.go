package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription represents a recurring plan attached to a user. Cancellation
// does not downgrade tier; tier is monotonic-up.
type Subscription struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `json:"user_id" gorm:"index"`
	PlanID           uint           `json:"plan_id"`
	Status           string         `json:"status"` // active, cancelled, expired
	CurrentPeriodEnd time.Time      `json:"current_period_end"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Subscription status constants
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)
