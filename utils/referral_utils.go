package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"gorm.io/gorm"
)

// GenerateReferralCode returns a fresh random referral code.
func GenerateReferralCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return "QG-" + strings.ToUpper(hex.EncodeToString(b))
}

// GetOrCreateReferralCode returns the user's referral code, creating it (and
// its backing referral voucher) on first request. The voucher has no total
// usage cap but each referee can redeem it once.
func GetOrCreateReferralCode(userID uint) (string, error) {
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		return "", err
	}
	if user.ReferralCode != "" {
		return user.ReferralCode, nil
	}

	code := GenerateReferralCode()
	if code == "" {
		return "", errors.New("failed to generate referral code")
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		owner := userID
		voucher := models.Voucher{
			Code:         code,
			Type:         models.VoucherTypeReferral,
			ValueType:    models.VoucherValueCredits,
			ValueAmount:  float64(ReferralRefereeReward),
			PerUserLimit: 1,
			IsActive:     true,
			OwnerUserID:  &owner,
		}
		if err := tx.Create(&voucher).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("referral_code", code).Error
	})
	if err != nil {
		return "", err
	}

	LogInfo("Created referral code %s for user ID: %d", code, userID)
	return code, nil
}

// RecordReferralSignup links a new signup to a referrer by code. The reward is
// deferred to the referee's first confirmed purchase.
func RecordReferralSignup(tx *gorm.DB, newUserID uint, code string) error {
	code = NormalizeVoucherCode(code)
	if code == "" {
		return ErrInvalidCode
	}

	var voucher models.Voucher
	if err := tx.Where("UPPER(code) = ? AND type = ? AND is_active = ?", code, models.VoucherTypeReferral, true).
		First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVoucherNotFound
		}
		return err
	}
	if voucher.OwnerUserID == nil {
		return ErrVoucherNotFound
	}
	if *voucher.OwnerUserID == newUserID {
		return ErrSelfReferral
	}

	referral := models.Referral{
		ReferrerUserID: *voucher.OwnerUserID,
		ReferredUserID: newUserID,
		ReferralCode:   voucher.Code,
	}
	return tx.Create(&referral).Error
}

// recordReferralConversion pays both sides of a referral and marks the pair as
// rewarded. The referee's own award is handled by the caller; here only the
// referrer's credit and the Referral row are written. Idempotent on the
// referrer+referee pair.
func recordReferralConversion(tx *gorm.DB, referrerID, refereeID uint, code string) error {
	if _, err := AppendLedgerEntry(tx, referrerID, models.EntryTypeBonus, ReferralReferrerReward,
		models.SourceReferral, fmt.Sprintf("%d", refereeID), "Referral reward"); err != nil {
		return err
	}

	var referral models.Referral
	err := tx.Where("referred_user_id = ?", refereeID).First(&referral).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		referral = models.Referral{
			ReferrerUserID: referrerID,
			ReferredUserID: refereeID,
			ReferralCode:   code,
			RewardGranted:  true,
		}
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := tx.Model(&referral).Update("reward_granted", true).Error; err != nil {
			return err
		}
	}

	go notifyReferralReward(referrerID)
	return nil
}

// grantReferralRewardOnFirstPurchase is the engine hook fired after every
// PURCHASE append. If the purchaser was referred and the reward is still
// outstanding, both sides are credited in the same transaction as the
// purchase itself.
func grantReferralRewardOnFirstPurchase(tx *gorm.DB, purchaserID uint) error {
	var referral models.Referral
	err := tx.Where("referred_user_id = ? AND reward_granted = ?", purchaserID, false).
		First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := AppendLedgerEntry(tx, purchaserID, models.EntryTypeBonus, ReferralRefereeReward,
		models.SourceReferral, fmt.Sprintf("referrer:%d", referral.ReferrerUserID), "Referral signup bonus"); err != nil {
		return err
	}
	if _, err := AppendLedgerEntry(tx, referral.ReferrerUserID, models.EntryTypeBonus, ReferralReferrerReward,
		models.SourceReferral, fmt.Sprintf("%d", purchaserID), "Referral reward"); err != nil {
		return err
	}
	if err := tx.Model(&referral).Update("reward_granted", true).Error; err != nil {
		return err
	}

	LogInfo("Referral reward granted: referrer ID %d, referee ID %d", referral.ReferrerUserID, purchaserID)
	go notifyReferralReward(referral.ReferrerUserID)
	return nil
}

func notifyReferralReward(referrerID uint) {
	var referrer models.User
	if err := config.DB.First(&referrer, referrerID).Error; err != nil {
		return
	}
	SendReferralRewardEmail(referrer.Email, ReferralReferrerReward)
}

// GetReferralStats derives referral statistics from the ledger; nothing here
// is stored, so the numbers cannot drift.
func GetReferralStats(userID uint) (*models.ReferralStats, error) {
	code, err := GetOrCreateReferralCode(userID)
	if err != nil {
		return nil, err
	}

	stats := &models.ReferralStats{ReferralCode: code}

	// Referee-side signup bonuses carry a "referrer:" ref; they are earnings
	// but not referrals brought in by this user.
	if err := config.DB.Model(&models.LedgerEntry{}).
		Where("user_id = ? AND source = ? AND amount > 0 AND external_ref NOT LIKE 'referrer:%'",
			userID, models.SourceReferral).
		Count(&stats.TotalReferrals).Error; err != nil {
		return nil, err
	}

	if err := config.DB.Model(&models.LedgerEntry{}).
		Where("user_id = ? AND source = ? AND amount > 0", userID, models.SourceReferral).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalCreditsEarned).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
