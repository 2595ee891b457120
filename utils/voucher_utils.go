package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"gorm.io/gorm"
)

// DiscountDescriptor is returned for percentage/dollar discount vouchers.
// Discounts are applied at the payment step; they never touch the ledger.
type DiscountDescriptor struct {
	Kind  string  `json:"kind"` // "percentage" or "dollar"
	Value float64 `json:"value"`
}

// RedemptionResult reports the outcome of a successful voucher redemption.
type RedemptionResult struct {
	Code           string              `json:"code"`
	CreditsAwarded int64               `json:"credits_awarded"`
	Discount       *DiscountDescriptor `json:"discount,omitempty"`
	NewBalance     int64               `json:"new_balance"`
}

// NormalizeVoucherCode trims and upper-cases a voucher code.
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RedeemVoucher runs the full redemption pipeline for a user and code. All
// checks and the award happen in one transaction with the voucher row locked,
// so two concurrent redemptions cannot both pass the usage-limit checks.
func RedeemVoucher(userID uint, code string) (*RedemptionResult, error) {
	code = NormalizeVoucherCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	var result *RedemptionResult
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var voucher models.Voucher
		if err := lockForUpdate(tx).Where("UPPER(code) = ? AND is_active = ?", code, true).
			First(&voucher).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVoucherNotFound
			}
			return err
		}

		if voucher.ExpiryDate != nil && time.Now().After(*voucher.ExpiryDate) {
			return ErrVoucherExpired
		}

		if voucher.MaxUses != nil && voucher.TotalUses >= *voucher.MaxUses {
			return ErrVoucherExhausted
		}

		var userUses int64
		if err := tx.Model(&models.VoucherRedemption{}).
			Where("voucher_id = ? AND user_id = ?", voucher.ID, userID).
			Count(&userUses).Error; err != nil {
			return err
		}
		if userUses >= int64(voucher.PerUserLimit) {
			return ErrPerUserLimitReached
		}

		if voucher.TierRestriction != "" {
			tier, err := resolveTierTx(tx, userID)
			if err != nil {
				return err
			}
			if tier != voucher.TierRestriction {
				return ErrTierRestricted
			}
		}

		if voucher.Type == models.VoucherTypeReferral && voucher.OwnerUserID != nil && *voucher.OwnerUserID == userID {
			return ErrSelfReferral
		}

		res := &RedemptionResult{Code: voucher.Code}

		var creditsAwarded int64
		switch voucher.ValueType {
		case models.VoucherValueCredits:
			creditsAwarded = int64(voucher.ValueAmount)
			// externalRef carries the user's redemption ordinal so a voucher
			// with perUserLimit > 1 can ledger more than once while a replay
			// of the same redemption cannot.
			ref := fmt.Sprintf("%s#%d", voucher.Code, userUses+1)
			if _, err := AppendLedgerEntry(tx, userID, models.EntryTypeBonus, creditsAwarded,
				models.SourceVoucher, ref, "Voucher redemption"); err != nil {
				return err
			}
			res.CreditsAwarded = creditsAwarded
		case models.VoucherValuePercentageDiscount:
			res.Discount = &DiscountDescriptor{Kind: "percentage", Value: voucher.ValueAmount}
		case models.VoucherValueDollarDiscount:
			res.Discount = &DiscountDescriptor{Kind: "dollar", Value: voucher.ValueAmount}
		default:
			return fmt.Errorf("voucher %s has unknown value type %q", voucher.Code, voucher.ValueType)
		}

		// Referral vouchers award both parties. The referrer's entry is keyed
		// on the referee's user ID, so the same pair can never pay out twice.
		if voucher.Type == models.VoucherTypeReferral && voucher.OwnerUserID != nil {
			if err := recordReferralConversion(tx, *voucher.OwnerUserID, userID, voucher.Code); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Voucher{}).Where("id = ?", voucher.ID).
			Update("total_uses", gorm.Expr("total_uses + 1")).Error; err != nil {
			return err
		}

		redemption := models.VoucherRedemption{
			VoucherID:      voucher.ID,
			UserID:         userID,
			CreditsAwarded: creditsAwarded,
			RedeemedAt:     time.Now(),
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		res.NewBalance = user.CreditBalance

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Voucher %s redeemed by user ID: %d, credits: %d", result.Code, userID, result.CreditsAwarded)
	return result, nil
}
