package models

import (
	"time"
)

// LedgerEntry is an immutable signed credit delta for a user. Entries are never
// updated or deleted; corrections are new ADJUSTMENT entries. Rows are created
// only through utils.AppendLedgerEntry.
type LedgerEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `json:"user_id" gorm:"index;uniqueIndex:idx_ledger_idempotency,where:external_ref <> ''"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"` // positive = credit, negative = debit
	Source      string    `json:"source" gorm:"uniqueIndex:idx_ledger_idempotency,where:external_ref <> ''"`
	ExternalRef string    `json:"external_ref" gorm:"uniqueIndex:idx_ledger_idempotency,where:external_ref <> ''"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Entry type constants
const (
	EntryTypePurchase    = "PURCHASE"
	EntryTypeUsage       = "USAGE"
	EntryTypeBonus       = "BONUS"
	EntryTypeAdjustment  = "ADJUSTMENT"
	EntryTypeConsumption = "CONSUMPTION"
)

// Entry source constants
const (
	SourcePayPal   = "PayPal"
	SourceVoucher  = "Voucher"
	SourceReferral = "Referral"
	SourceManual   = "Manual"
	SourceSystem   = "System"
)

// ValidEntryType reports whether t is a known ledger entry type.
func ValidEntryType(t string) bool {
	switch t {
	case EntryTypePurchase, EntryTypeUsage, EntryTypeBonus, EntryTypeAdjustment, EntryTypeConsumption:
		return true
	}
	return false
}
