package utils

import (
	"testing"
	"time"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/stretchr/testify/require"
)

func seedTestFlags(t *testing.T) {
	t.Helper()
	flags := []models.FeatureFlag{
		{Name: models.FeatureCloneMe, RequiredTiers: TierPremium, Enabled: true},
		{Name: models.FeatureAIShield, RequiredTiers: TierPremium, Enabled: false},
		{Name: "drafts", RequiredTiers: "", Enabled: true},
	}
	require.NoError(t, config.DB.Create(&flags).Error)
}

func TestResolveTierDefaultsToFree(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	tier, err := ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierFree, tier)

	// Bonus credits alone never elevate.
	_, err = RecordLedgerEntry(user.ID, models.EntryTypeBonus, 500, models.SourceVoucher, "BIG#1", "Voucher redemption")
	require.NoError(t, err)

	tier, err = ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierFree, tier)
}

func TestPurchaseElevatesTier(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	_, err := RecordLedgerEntry(user.ID, models.EntryTypePurchase, 100, models.SourcePayPal, "cap-1", "Credit purchase")
	require.NoError(t, err)

	tier, err := ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierPremium, tier)

	// Spending the credits does not demote; tier derives from purchases, not balance.
	_, err = RecordLedgerEntry(user.ID, models.EntryTypeUsage, -100, models.SourceSystem, "gen-1", "Content generation")
	require.NoError(t, err)

	tier, err = ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierPremium, tier)
}

func TestManualAdjustmentFoldsIntoTierBasis(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	_, err := RecordLedgerEntry(user.ID, models.EntryTypeAdjustment, 50, models.SourceManual, "", "Goodwill grant")
	require.NoError(t, err)

	tier, err := ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierPremium, tier)

	// A reversing adjustment zeroes the basis and demotes.
	_, err = RecordLedgerEntry(user.ID, models.EntryTypeAdjustment, -50, models.SourceManual, "", "Grant reversal")
	require.NoError(t, err)

	tier, err = ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierFree, tier)
}

func TestActiveSubscriptionElevatesTier(t *testing.T) {
	TestSetup(t)
	user := CreateTestUser(t)

	sub := models.Subscription{
		UserID:           user.ID,
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, config.DB.Create(&sub).Error)

	tier, err := ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierPremium, tier)

	// A lapsed period no longer counts.
	require.NoError(t, config.DB.Model(&sub).
		Update("current_period_end", time.Now().Add(-time.Hour)).Error)

	tier, err = ResolveTier(user.ID)
	require.NoError(t, err)
	require.Equal(t, TierFree, tier)
}

func TestFeatureEnabled(t *testing.T) {
	TestSetup(t)
	seedTestFlags(t)

	enabled, err := FeatureEnabled(models.FeatureCloneMe, TierPremium)
	require.NoError(t, err)
	require.True(t, enabled)

	enabled, err = FeatureEnabled(models.FeatureCloneMe, TierFree)
	require.NoError(t, err)
	require.False(t, enabled)

	// Disabled flags are off for everyone.
	enabled, err = FeatureEnabled(models.FeatureAIShield, TierPremium)
	require.NoError(t, err)
	require.False(t, enabled)

	// Empty tier list means available to all tiers.
	enabled, err = FeatureEnabled("drafts", TierFree)
	require.NoError(t, err)
	require.True(t, enabled)

	// Unknown features are simply off.
	enabled, err = FeatureEnabled("teleport", TierPremium)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestEnabledFeatures(t *testing.T) {
	TestSetup(t)
	seedTestFlags(t)

	features, err := EnabledFeatures(TierFree)
	require.NoError(t, err)
	require.Equal(t, []string{"drafts"}, features)

	features, err = EnabledFeatures(TierPremium)
	require.NoError(t, err)
	require.Equal(t, []string{models.FeatureCloneMe, "drafts"}, features)
}

func TestWordCapForTier(t *testing.T) {
	require.Equal(t, 1000, WordCapForTier(TierFree))
	require.Equal(t, 10000, WordCapForTier(TierPremium))
}
