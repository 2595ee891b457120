package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"gorm.io/gorm"
)

// ResolveTier derives a user's effective tier. Any completed credit purchase
// permanently elevates a user to premium; there is no downgrade path except an
// explicit Manual ADJUSTMENT, which is folded into the same basis. Tier is
// never stored on the user row.
func ResolveTier(userID uint) (string, error) {
	return resolveTierTx(config.DB, userID)
}

func resolveTierTx(tx *gorm.DB, userID uint) (string, error) {
	var basis int64
	err := tx.Model(&models.LedgerEntry{}).
		Where("user_id = ? AND (type = ? OR (type = ? AND source = ?))",
			userID, models.EntryTypePurchase, models.EntryTypeAdjustment, models.SourceManual).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&basis).Error
	if err != nil {
		return "", err
	}
	if basis > 0 {
		return TierPremium, nil
	}

	var count int64
	err = tx.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ? AND current_period_end > ?",
			userID, models.SubscriptionStatusActive, time.Now()).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	if count > 0 {
		return TierPremium, nil
	}

	return TierFree, nil
}

// FeatureEnabled evaluates a feature gate for a tier against the flag registry.
// Unknown features are disabled.
func FeatureEnabled(feature, tier string) (bool, error) {
	var flag models.FeatureFlag
	if err := config.DB.Where("name = ?", feature).First(&flag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !flag.Enabled {
		return false, nil
	}
	if strings.TrimSpace(flag.RequiredTiers) == "" {
		return true, nil
	}
	for _, t := range strings.Split(flag.RequiredTiers, ",") {
		if strings.TrimSpace(t) == tier {
			return true, nil
		}
	}
	return false, nil
}

// EnabledFeatures lists every enabled feature available to a tier.
func EnabledFeatures(tier string) ([]string, error) {
	var flags []models.FeatureFlag
	if err := config.DB.Where("enabled = ?", true).Order("name").Find(&flags).Error; err != nil {
		return nil, err
	}

	features := []string{}
	for _, flag := range flags {
		if strings.TrimSpace(flag.RequiredTiers) == "" {
			features = append(features, flag.Name)
			continue
		}
		for _, t := range strings.Split(flag.RequiredTiers, ",") {
			if strings.TrimSpace(t) == tier {
				features = append(features, flag.Name)
				break
			}
		}
	}
	return features, nil
}
