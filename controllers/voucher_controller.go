package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// RedeemVoucherRequest represents the request body for redeeming a voucher
type RedeemVoucherRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemVoucher redeems a voucher code for the authenticated user
func RedeemVoucher(c *gin.Context) {
	utils.LogInfo("RedeemVoucher called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req RedeemVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. code is required", err.Error())
		return
	}
	utils.LogInfo("Attempting to redeem code %s for user ID: %d", utils.NormalizeVoucherCode(req.Code), user.ID)

	result, err := utils.RedeemVoucher(user.ID, req.Code)
	if err != nil {
		utils.LogError("Redemption failed for user ID: %d: %v", user.ID, err)
		utils.DomainError(c, err)
		return
	}

	utils.Success(c, "Voucher redeemed successfully", result)
}
