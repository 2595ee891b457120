package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// GetCreditBalance returns the user's current credit balance and tier
func GetCreditBalance(c *gin.Context) {
	utils.LogInfo("GetCreditBalance called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	balance, err := utils.GetBalance(user.ID)
	if err != nil {
		utils.LogError("Failed to get balance for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get balance", nil)
		return
	}

	tier, err := utils.ResolveTier(user.ID)
	if err != nil {
		utils.LogError("Failed to resolve tier for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to resolve tier", nil)
		return
	}

	utils.Success(c, "Balance retrieved successfully", gin.H{
		"balance": balance,
		"tier":    tier,
	})
}

// GetCreditHistory returns the user's ledger entries, newest first
func GetCreditHistory(c *gin.Context) {
	utils.LogInfo("GetCreditHistory called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	page, limit := utils.GetPaginationParams(c)

	entries, total, err := utils.GetLedgerEntries(user.ID, page, limit)
	if err != nil {
		utils.LogError("Failed to get ledger entries for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get credit history", nil)
		return
	}

	formatted := make([]gin.H, len(entries))
	for i, entry := range entries {
		formatted[i] = gin.H{
			"id":         entry.ID,
			"type":       entry.Type,
			"amount":     utils.FormatCredits(entry.Amount),
			"source":     entry.Source,
			"reference":  entry.ExternalRef,
			"note":       entry.Description,
			"created_at": entry.CreatedAt,
		}
	}

	utils.SuccessWithPagination(c, "Credit history retrieved successfully", formatted, total, page, limit)
}

// ListPlans returns the active credit packs
func ListPlans(c *gin.Context) {
	var plans []models.Plan
	if err := config.DB.Where("active = ?", true).Order("price_usd").Find(&plans).Error; err != nil {
		utils.LogError("Failed to list plans: %v", err)
		utils.InternalServerError(c, "Failed to list plans", nil)
		return
	}
	utils.Success(c, "Plans retrieved successfully", gin.H{"plans": plans})
}
