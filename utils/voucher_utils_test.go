package utils

import (
	"testing"
	"time"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/stretchr/testify/require"
)

func TestRedeemCreditsVoucher(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)
	voucher := CreateTestVoucher(t, "WELCOME50", 50, nil, 1)

	result, err := RedeemVoucher(user.ID, "welcome50")
	require.NoError(t, err)
	require.Equal(t, "WELCOME50", result.Code)
	require.EqualValues(t, 50, result.CreditsAwarded)
	require.EqualValues(t, 50, result.NewBalance)
	require.Nil(t, result.Discount)

	var reloaded models.Voucher
	require.NoError(t, config.DB.First(&reloaded, voucher.ID).Error)
	require.Equal(t, 1, reloaded.TotalUses)

	var redemptions int64
	require.NoError(t, config.DB.Model(&models.VoucherRedemption{}).
		Where("voucher_id = ? AND user_id = ?", voucher.ID, user.ID).Count(&redemptions).Error)
	require.EqualValues(t, 1, redemptions)
}

func TestRedeemUnknownCode(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	_, err := RedeemVoucher(user.ID, "NOPE")
	require.ErrorIs(t, err, ErrVoucherNotFound)

	_, err = RedeemVoucher(user.ID, "   ")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestRedeemInactiveVoucher(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)
	voucher := CreateTestVoucher(t, "PAUSED", 10, nil, 1)
	require.NoError(t, config.DB.Model(voucher).Update("is_active", false).Error)

	_, err := RedeemVoucher(user.ID, "PAUSED")
	require.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestVoucherCreatedInactiveStaysInactive(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	voucher := models.Voucher{
		Code:         NormalizeVoucherCode("DRAFT10"),
		Type:         models.VoucherTypeDiscount,
		ValueType:    models.VoucherValueCredits,
		ValueAmount:  10,
		PerUserLimit: 1,
		IsActive:     false,
	}
	require.NoError(t, config.DB.Create(&voucher).Error)

	var reloaded models.Voucher
	require.NoError(t, config.DB.First(&reloaded, voucher.ID).Error)
	require.False(t, reloaded.IsActive)

	_, err := RedeemVoucher(user.ID, "DRAFT10")
	require.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestRedeemExpiredVoucher(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)
	voucher := CreateTestVoucher(t, "OLDCODE", 10, nil, 1)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, config.DB.Model(voucher).Update("expiry_date", past).Error)

	_, err := RedeemVoucher(user.ID, "OLDCODE")
	require.ErrorIs(t, err, ErrVoucherExpired)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestPerUserLimit(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)
	CreateTestVoucher(t, "ONCE", 25, nil, 1)

	_, err := RedeemVoucher(user.ID, "ONCE")
	require.NoError(t, err)

	_, err = RedeemVoucher(user.ID, "ONCE")
	require.ErrorIs(t, err, ErrPerUserLimitReached)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 25, balance)
}

func TestPerUserLimitAboveOne(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)
	CreateTestVoucher(t, "TWICE", 10, nil, 2)

	_, err := RedeemVoucher(user.ID, "TWICE")
	require.NoError(t, err)
	_, err = RedeemVoucher(user.ID, "TWICE")
	require.NoError(t, err)
	_, err = RedeemVoucher(user.ID, "TWICE")
	require.ErrorIs(t, err, ErrPerUserLimitReached)

	// Each redemption ledgers separately; the ordinal ref keeps them distinct.
	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 20, balance)
}

func TestMaxUsesExhaustion(t *testing.T) {
	TestSetup(t)
	a := CreateTestUser(t)
	b := CreateTestUser(t)
	maxUses := 1
	CreateTestVoucher(t, "SCARCE", 30, &maxUses, 1)

	_, err := RedeemVoucher(a.ID, "SCARCE")
	require.NoError(t, err)

	_, err = RedeemVoucher(b.ID, "SCARCE")
	require.ErrorIs(t, err, ErrVoucherExhausted)

	balance, err := GetBalance(b.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestDiscountVoucherDoesNotTouchLedger(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	voucher := &models.Voucher{
		Code:         "SAVE20",
		Type:         models.VoucherTypeDiscount,
		ValueType:    models.VoucherValuePercentageDiscount,
		ValueAmount:  20,
		PerUserLimit: 1,
		IsActive:     true,
	}
	require.NoError(t, config.DB.Create(voucher).Error)

	result, err := RedeemVoucher(user.ID, "SAVE20")
	require.NoError(t, err)
	require.Zero(t, result.CreditsAwarded)
	require.NotNil(t, result.Discount)
	require.Equal(t, "percentage", result.Discount.Kind)
	require.EqualValues(t, 20, result.Discount.Value)

	var entries int64
	require.NoError(t, config.DB.Model(&models.LedgerEntry{}).Where("user_id = ?", user.ID).Count(&entries).Error)
	require.Zero(t, entries)

	// The redemption still counts against usage limits.
	_, err = RedeemVoucher(user.ID, "SAVE20")
	require.ErrorIs(t, err, ErrPerUserLimitReached)
}

func TestTierRestrictedVoucher(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	voucher := CreateTestVoucher(t, "PREMIUMONLY", 40, nil, 1)
	require.NoError(t, config.DB.Model(voucher).Update("tier_restriction", TierPremium).Error)

	_, err := RedeemVoucher(user.ID, "PREMIUMONLY")
	require.ErrorIs(t, err, ErrTierRestricted)

	// A confirmed purchase elevates the user; the voucher opens up.
	_, err = RecordLedgerEntry(user.ID, models.EntryTypePurchase, 100, models.SourcePayPal, "cap-1", "Credit purchase")
	require.NoError(t, err)

	result, err := RedeemVoucher(user.ID, "PREMIUMONLY")
	require.NoError(t, err)
	require.EqualValues(t, 40, result.CreditsAwarded)
}
