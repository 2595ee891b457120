package controllers

import (
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// CreateDefaultPlans seeds the credit packs if none exist
func CreateDefaultPlans() error {
	var count int64
	if err := config.DB.Model(&models.Plan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	plans := []models.Plan{
		{Name: "Starter", PriceUSD: 10, Credits: 100, Active: true},
		{Name: "Writer", PriceUSD: 25, Credits: 300, Active: true},
		{Name: "Studio", PriceUSD: 75, Credits: 1000, Active: true},
	}
	if err := config.DB.Create(&plans).Error; err != nil {
		return err
	}

	utils.LogInfo("Seeded %d default plans", len(plans))
	return nil
}

// CreateDefaultFeatureFlags seeds the feature gate registry if empty
func CreateDefaultFeatureFlags() error {
	var count int64
	if err := config.DB.Model(&models.FeatureFlag{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	flags := []models.FeatureFlag{
		{Name: models.FeatureCloneMe, RequiredTiers: utils.TierPremium, Enabled: true},
		{Name: models.FeatureAIShield, RequiredTiers: utils.TierPremium, Enabled: true},
		{Name: models.FeatureExtendedWordCount, RequiredTiers: utils.TierPremium, Enabled: true},
	}
	if err := config.DB.Create(&flags).Error; err != nil {
		return err
	}

	utils.LogInfo("Seeded %d feature flags", len(flags))
	return nil
}
