package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
	"gorm.io/gorm"
)

// AdjustmentRequest represents the request body for a manual credit adjustment
type AdjustmentRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required,min=3,max=255"`
}

// CreditExemptRequest represents the request body for toggling overdraft exemption
type CreditExemptRequest struct {
	UserID uint  `json:"user_id" binding:"required"`
	Exempt *bool `json:"exempt" binding:"required"`
}

// CreateAdjustment appends a manual ADJUSTMENT entry to a user's ledger.
// The admin's id and reason go into the description for the audit trail.
func CreateAdjustment(c *gin.Context) {
	utils.LogInfo("CreateAdjustment called")

	adminVal, exists := c.Get("admin")
	if !exists {
		utils.Unauthorized(c, "Admin not found")
		return
	}
	admin := adminVal.(models.Admin)

	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, req.UserID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	var entry *models.LedgerEntry
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = utils.AppendLedgerEntry(tx, req.UserID, models.EntryTypeAdjustment, req.Amount,
			models.SourceManual, "", fmt.Sprintf("Adjustment by admin %d: %s", admin.ID, req.Reason))
		return txErr
	})
	if err != nil {
		utils.LogError("Failed to adjust user ID: %d by %d: %v", req.UserID, req.Amount, err)
		utils.DomainError(c, err)
		return
	}

	balance, err := utils.GetBalance(req.UserID)
	if err != nil {
		utils.InternalServerError(c, "Failed to get balance", nil)
		return
	}

	utils.LogInfo("Admin %d adjusted user ID: %d by %s", admin.ID, req.UserID, utils.FormatCredits(req.Amount))
	utils.Success(c, "Adjustment applied successfully", gin.H{
		"entry_id": entry.ID,
		"amount":   entry.Amount,
		"balance":  balance,
	})
}

// SetCreditExempt toggles a user's overdraft exemption. Exempt users may go
// negative on USAGE and CONSUMPTION debits.
func SetCreditExempt(c *gin.Context) {
	utils.LogInfo("SetCreditExempt called")

	var req CreditExemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, req.UserID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	if err := config.DB.Model(&user).Update("credit_exempt", *req.Exempt).Error; err != nil {
		utils.LogError("Failed to set credit exempt for user ID: %d: %v", req.UserID, err)
		utils.InternalServerError(c, "Failed to update user", nil)
		return
	}

	utils.Success(c, "Credit exemption updated", gin.H{
		"user_id":       user.ID,
		"credit_exempt": *req.Exempt,
	})
}
