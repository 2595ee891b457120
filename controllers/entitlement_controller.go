package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// GetEntitlements returns the user's derived tier and the features it unlocks
func GetEntitlements(c *gin.Context) {
	utils.LogInfo("GetEntitlements called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	tier, err := utils.ResolveTier(user.ID)
	if err != nil {
		utils.LogError("Failed to resolve tier for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to resolve tier", nil)
		return
	}

	features, err := utils.EnabledFeatures(tier)
	if err != nil {
		utils.LogError("Failed to list features for tier %s: %v", tier, err)
		utils.InternalServerError(c, "Failed to list features", nil)
		return
	}

	utils.Success(c, "Entitlements retrieved successfully", gin.H{
		"tier":     tier,
		"features": features,
		"word_cap": utils.WordCapForTier(tier),
	})
}
