package controllers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// GetReferralCode returns the user's referral code, creating it on first request
func GetReferralCode(c *gin.Context) {
	utils.LogInfo("GetReferralCode called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	code, err := utils.GetOrCreateReferralCode(user.ID)
	if err != nil {
		utils.LogError("Failed to get referral code for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get referral code", nil)
		return
	}

	utils.Success(c, "Referral code retrieved successfully", gin.H{
		"referral_code": code,
		"referral_link": "/r/" + code,
	})
}

// GetReferralStats returns referral statistics derived from the ledger
func GetReferralStats(c *gin.Context) {
	utils.LogInfo("GetReferralStats called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	stats, err := utils.GetReferralStats(user.ID)
	if err != nil {
		utils.LogError("Failed to get referral stats for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get referral stats", nil)
		return
	}

	utils.Success(c, "Referral stats retrieved successfully", stats)
}

// AcceptReferralLink stashes a referral code in the visitor's session so the
// upcoming signup can credit the referrer.
func AcceptReferralLink(c *gin.Context) {
	code := utils.NormalizeVoucherCode(c.Param("code"))
	if code == "" {
		utils.BadRequest(c, "Invalid referral code", nil)
		return
	}

	session := sessions.Default(c)
	session.Set("referral_code", code)
	if err := session.Save(); err != nil {
		utils.LogError("Failed to save referral session: %v", err)
		utils.InternalServerError(c, "Failed to record referral", nil)
		return
	}

	utils.Success(c, "Referral recorded. Create an account to continue.", gin.H{
		"referral_code": code,
	})
}
