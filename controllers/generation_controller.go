package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
	"gorm.io/gorm"

	"github.com/quillgen/quillgen/config"
)

// GenerateRequest represents the request body for a content generation run
type GenerateRequest struct {
	WordCount int `json:"word_count" binding:"required,gt=0"`
}

// ConsumeGenerationCredits debits credits for a content generation run. The
// generation itself happens in the LLM pipeline; this endpoint only settles
// the cost and enforces the tier's word cap before work starts.
func ConsumeGenerationCredits(c *gin.Context) {
	utils.LogInfo("ConsumeGenerationCredits called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. word_count is required", err.Error())
		return
	}

	tier, err := utils.ResolveTier(user.ID)
	if err != nil {
		utils.LogError("Failed to resolve tier for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to resolve tier", nil)
		return
	}

	if req.WordCount > utils.WordCapForTier(tier) {
		utils.Forbidden(c, fmt.Sprintf("Word count exceeds the %d-word cap for your tier", utils.WordCapForTier(tier)))
		return
	}

	cost := int64((req.WordCount + utils.WordsPerCredit - 1) / utils.WordsPerCredit)
	generationID := uuid.New().String()

	var entry *models.LedgerEntry
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = utils.AppendLedgerEntry(tx, user.ID, models.EntryTypeUsage, -cost,
			models.SourceSystem, generationID, fmt.Sprintf("Content generation (%d words)", req.WordCount))
		return txErr
	})
	if err != nil {
		utils.LogError("Failed to debit generation for user ID: %d: %v", user.ID, err)
		utils.DomainError(c, err)
		return
	}

	balance, err := utils.GetBalance(user.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to get balance", nil)
		return
	}

	utils.Success(c, "Credits debited for generation", gin.H{
		"generation_id": generationID,
		"cost":          cost,
		"entry_id":      entry.ID,
		"balance":       balance,
	})
}
