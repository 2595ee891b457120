package utils

import (
	"strings"
	"testing"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetOrCreateReferralCode(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	code, err := GetOrCreateReferralCode(user.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(code, "QG-"))

	// Stable across calls.
	again, err := GetOrCreateReferralCode(user.ID)
	require.NoError(t, err)
	require.Equal(t, code, again)

	// A backing referral voucher owned by the user exists.
	var voucher models.Voucher
	require.NoError(t, config.DB.Where("code = ?", code).First(&voucher).Error)
	require.Equal(t, models.VoucherTypeReferral, voucher.Type)
	require.NotNil(t, voucher.OwnerUserID)
	require.Equal(t, user.ID, *voucher.OwnerUserID)
	require.Equal(t, 1, voucher.PerUserLimit)
}

func TestReferralRedemptionAwardsBothSides(t *testing.T) {
	TestSetup(t)
	referrer := CreateTestUser(t)
	referee := CreateTestUser(t)

	code, err := GetOrCreateReferralCode(referrer.ID)
	require.NoError(t, err)

	result, err := RedeemVoucher(referee.ID, code)
	require.NoError(t, err)
	require.Equal(t, ReferralRefereeReward, result.CreditsAwarded)

	refereeBalance, err := GetBalance(referee.ID)
	require.NoError(t, err)
	require.Equal(t, ReferralRefereeReward, refereeBalance)

	referrerBalance, err := GetBalance(referrer.ID)
	require.NoError(t, err)
	require.Equal(t, ReferralReferrerReward, referrerBalance)

	var referral models.Referral
	require.NoError(t, config.DB.Where("referred_user_id = ?", referee.ID).First(&referral).Error)
	require.Equal(t, referrer.ID, referral.ReferrerUserID)
	require.True(t, referral.RewardGranted)
}

func TestSelfReferralRejected(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	code, err := GetOrCreateReferralCode(user.ID)
	require.NoError(t, err)

	_, err = RedeemVoucher(user.ID, code)
	require.ErrorIs(t, err, ErrSelfReferral)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestReferralSignupRewardDeferredToFirstPurchase(t *testing.T) {
	TestSetup(t)
	referrer := CreateTestUser(t)
	referee := CreateTestUser(t)

	code, err := GetOrCreateReferralCode(referrer.ID)
	require.NoError(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		return RecordReferralSignup(tx, referee.ID, code)
	})
	require.NoError(t, err)

	// No reward yet; the signup alone pays nobody.
	referrerBalance, err := GetBalance(referrer.ID)
	require.NoError(t, err)
	require.Zero(t, referrerBalance)

	// The referee's first confirmed purchase pays both sides.
	_, err = RecordLedgerEntry(referee.ID, models.EntryTypePurchase, 300, models.SourcePayPal, "cap-1", "Credit purchase")
	require.NoError(t, err)

	referrerBalance, err = GetBalance(referrer.ID)
	require.NoError(t, err)
	require.Equal(t, ReferralReferrerReward, referrerBalance)

	refereeBalance, err := GetBalance(referee.ID)
	require.NoError(t, err)
	require.Equal(t, 300+ReferralRefereeReward, refereeBalance)

	// A second purchase never pays the referral again.
	_, err = RecordLedgerEntry(referee.ID, models.EntryTypePurchase, 100, models.SourcePayPal, "cap-2", "Credit purchase")
	require.NoError(t, err)

	referrerBalance, err = GetBalance(referrer.ID)
	require.NoError(t, err)
	require.Equal(t, ReferralReferrerReward, referrerBalance)
}

func TestRecordReferralSignupValidation(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		return RecordReferralSignup(tx, user.ID, "QG-DEADBEEF")
	})
	require.ErrorIs(t, err, ErrVoucherNotFound)

	code, err := GetOrCreateReferralCode(user.ID)
	require.NoError(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		return RecordReferralSignup(tx, user.ID, code)
	})
	require.ErrorIs(t, err, ErrSelfReferral)
}

func TestReferralStats(t *testing.T) {
	TestSetup(t)
	referrer := CreateTestUser(t)
	first := CreateTestUser(t)
	second := CreateTestUser(t)

	code, err := GetOrCreateReferralCode(referrer.ID)
	require.NoError(t, err)

	_, err = RedeemVoucher(first.ID, code)
	require.NoError(t, err)
	_, err = RedeemVoucher(second.ID, code)
	require.NoError(t, err)

	stats, err := GetReferralStats(referrer.ID)
	require.NoError(t, err)
	require.Equal(t, code, stats.ReferralCode)
	require.EqualValues(t, 2, stats.TotalReferrals)
	require.Equal(t, 2*ReferralReferrerReward, stats.TotalCreditsEarned)

	// The referee's own signup bonus is earnings, not a referral they made.
	refereeStats, err := GetReferralStats(first.ID)
	require.NoError(t, err)
	require.Zero(t, refereeStats.TotalReferrals)
}
