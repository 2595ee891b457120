package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// InitiateCryptoPaymentRequest represents the request body for crypto checkout
type InitiateCryptoPaymentRequest struct {
	PlanID     uint   `json:"plan_id" binding:"required"`
	CryptoType string `json:"crypto_type" binding:"required"`
}

// InitiateCryptoPayment opens a crypto payment request for a plan
func InitiateCryptoPayment(c *gin.Context) {
	utils.LogInfo("InitiateCryptoPayment called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req InitiateCryptoPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. plan_id and crypto_type are required", err.Error())
		return
	}

	request, err := utils.CreateCryptoPaymentRequest(user.ID, req.CryptoType, req.PlanID)
	if err != nil {
		utils.LogError("Failed to create crypto payment request for user ID: %d: %v", user.ID, err)
		if appErr := utils.GetAppError(err); appErr != nil {
			utils.Error(c, appErr.Code, appErr.Message, nil)
			return
		}
		utils.DomainError(c, err)
		return
	}

	var wallet models.CryptoWallet
	if err := config.DB.First(&wallet, request.WalletID).Error; err != nil {
		utils.InternalServerError(c, "Failed to load deposit wallet", nil)
		return
	}

	utils.Created(c, "Payment request created", gin.H{
		"reference_id":    request.ReferenceID,
		"crypto_type":     request.CryptoType,
		"deposit_address": wallet.WalletAddress,
		"expected_amount": request.ExpectedAmountCrypto,
		"amount_usd":      request.AmountUSD,
		"expires_at":      request.ExpiresAt,
		"status":          request.Status,
	})
}

// VerifyCryptoPaymentRequest represents the request body for hash submission.
// ReferenceID is optional; without it the most recent open request is matched.
type VerifyCryptoPaymentRequest struct {
	TransactionHash string `json:"transaction_hash" binding:"required"`
	CryptoType      string `json:"crypto_type" binding:"required"`
	ReferenceID     string `json:"reference_id"`
}

// VerifyCryptoPayment validates a submitted transaction hash and credits the
// purchase once confirmed on chain
func VerifyCryptoPayment(c *gin.Context) {
	utils.LogInfo("VerifyCryptoPayment called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req VerifyCryptoPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. transaction_hash and crypto_type are required", err.Error())
		return
	}

	result, err := utils.VerifyCryptoPayment(c.Request.Context(), user.ID, req.TransactionHash, req.CryptoType, req.ReferenceID)
	if err != nil {
		// Still-confirming is a normal outcome, not a failure.
		if errors.Is(err, utils.ErrConfirmationsPending) {
			utils.Success(c, "Transaction found, awaiting confirmations", result)
			return
		}
		utils.LogError("Verification failed for user ID: %d, hash %s: %v", user.ID, req.TransactionHash, err)
		utils.DomainError(c, err)
		return
	}

	utils.Success(c, "Payment confirmed and credits added", result)
}

// GetCryptoPaymentStatus returns the user's most recent payment request for a network
func GetCryptoPaymentStatus(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	cryptoType := c.Query("crypto_type")
	if !models.ValidCryptoType(cryptoType) {
		utils.BadRequest(c, "Invalid crypto_type", nil)
		return
	}

	var request models.CryptoPaymentRequest
	if err := config.DB.Where("user_id = ? AND crypto_type = ?", user.ID, cryptoType).
		Order("created_at DESC").First(&request).Error; err != nil {
		utils.NotFound(c, "No payment request found")
		return
	}

	utils.Success(c, "Payment request retrieved successfully", gin.H{
		"reference_id":    request.ReferenceID,
		"status":          request.Status,
		"expected_amount": request.ExpectedAmountCrypto,
		"expires_at":      request.ExpiresAt,
	})
}
