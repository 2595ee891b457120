package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
	"gorm.io/gorm"
)

// CreateVoucherRequest represents the request body for creating a voucher
type CreateVoucherRequest struct {
	Code            string  `json:"code" binding:"required,min=3,max=32"`
	ValueType       string  `json:"value_type" binding:"required,oneof=credits percentage_discount dollar_discount"`
	ValueAmount     float64 `json:"value_amount" binding:"required,gt=0"`
	MaxUses         *int    `json:"max_uses"`
	PerUserLimit    int     `json:"per_user_limit" binding:"required,gt=0"`
	ExpiryDate      string  `json:"expiry_date"`
	TierRestriction string  `json:"tier_restriction" binding:"omitempty,oneof=free premium"`
}

// UpdateVoucherRequest represents the request body for updating a voucher
type UpdateVoucherRequest struct {
	ValueAmount     *float64 `json:"value_amount" binding:"omitempty,gt=0"`
	MaxUses         *int     `json:"max_uses"`
	PerUserLimit    *int     `json:"per_user_limit" binding:"omitempty,gt=0"`
	ExpiryDate      *string  `json:"expiry_date"`
	TierRestriction *string  `json:"tier_restriction" binding:"omitempty,oneof=free premium"`
}

// CreateVoucher creates a new voucher
func CreateVoucher(c *gin.Context) {
	utils.LogInfo("CreateVoucher called")

	var req CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	code := utils.NormalizeVoucherCode(req.Code)

	var expiry *time.Time
	if req.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			utils.BadRequest(c, "Invalid expiry date. Use YYYY-MM-DD", err.Error())
			return
		}
		// Codes stay valid through the whole expiry day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		expiry = &t
	}

	if req.MaxUses != nil && *req.MaxUses <= 0 {
		utils.BadRequest(c, "max_uses must be positive when set", nil)
		return
	}

	var existing models.Voucher
	if err := config.DB.Where("UPPER(code) = ?", code).First(&existing).Error; err == nil {
		utils.Conflict(c, "Voucher code already exists", nil)
		return
	}

	voucher := models.Voucher{
		Code:            code,
		Type:            models.VoucherTypeDiscount,
		ValueType:       req.ValueType,
		ValueAmount:     req.ValueAmount,
		MaxUses:         req.MaxUses,
		PerUserLimit:    req.PerUserLimit,
		ExpiryDate:      expiry,
		TierRestriction: req.TierRestriction,
		IsActive:        true,
	}
	if err := config.DB.Create(&voucher).Error; err != nil {
		utils.LogError("Failed to create voucher %s: %v", code, err)
		utils.InternalServerError(c, "Failed to create voucher", nil)
		return
	}

	utils.LogInfo("Voucher %s created with ID: %d", code, voucher.ID)
	utils.Created(c, "Voucher created successfully", gin.H{"voucher": voucher})
}

// ListVouchers returns all vouchers with redemption counts, paginated
func ListVouchers(c *gin.Context) {
	utils.LogInfo("ListVouchers called")

	page, limit := utils.GetPaginationParams(c)

	var total int64
	if err := config.DB.Model(&models.Voucher{}).Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count vouchers", nil)
		return
	}

	var vouchers []models.Voucher
	if err := config.DB.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&vouchers).Error; err != nil {
		utils.LogError("Failed to fetch vouchers: %v", err)
		utils.InternalServerError(c, "Failed to fetch vouchers", nil)
		return
	}

	utils.SuccessWithPagination(c, "Vouchers retrieved successfully", gin.H{"vouchers": vouchers}, total, page, limit)
}

// UpdateVoucher updates the mutable fields of a voucher
func UpdateVoucher(c *gin.Context) {
	utils.LogInfo("UpdateVoucher called")

	var req UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var voucher models.Voucher
	if err := config.DB.First(&voucher, c.Param("id")).Error; err != nil {
		utils.NotFound(c, "Voucher not found")
		return
	}

	updates := map[string]interface{}{}
	if req.ValueAmount != nil {
		updates["value_amount"] = *req.ValueAmount
	}
	if req.MaxUses != nil {
		updates["max_uses"] = *req.MaxUses
	}
	if req.PerUserLimit != nil {
		updates["per_user_limit"] = *req.PerUserLimit
	}
	if req.TierRestriction != nil {
		updates["tier_restriction"] = *req.TierRestriction
	}
	if req.ExpiryDate != nil {
		if *req.ExpiryDate == "" {
			updates["expiry_date"] = nil
		} else {
			t, err := time.Parse("2006-01-02", *req.ExpiryDate)
			if err != nil {
				utils.BadRequest(c, "Invalid expiry date. Use YYYY-MM-DD", err.Error())
				return
			}
			updates["expiry_date"] = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if len(updates) == 0 {
		utils.BadRequest(c, "No fields to update", nil)
		return
	}

	if err := config.DB.Model(&voucher).Updates(updates).Error; err != nil {
		utils.LogError("Failed to update voucher ID: %d: %v", voucher.ID, err)
		utils.InternalServerError(c, "Failed to update voucher", nil)
		return
	}

	utils.Success(c, "Voucher updated successfully", gin.H{"voucher": voucher})
}

// ToggleVoucher flips a voucher's active flag
func ToggleVoucher(c *gin.Context) {
	utils.LogInfo("ToggleVoucher called")

	var voucher models.Voucher
	if err := config.DB.First(&voucher, c.Param("id")).Error; err != nil {
		utils.NotFound(c, "Voucher not found")
		return
	}

	if err := config.DB.Model(&voucher).Update("is_active", !voucher.IsActive).Error; err != nil {
		utils.LogError("Failed to toggle voucher ID: %d: %v", voucher.ID, err)
		utils.InternalServerError(c, "Failed to toggle voucher", nil)
		return
	}
	voucher.IsActive = !voucher.IsActive

	utils.Success(c, "Voucher status updated", gin.H{
		"id":        voucher.ID,
		"code":      voucher.Code,
		"is_active": voucher.IsActive,
	})
}

// DeleteVoucher removes a voucher that has never been redeemed. Redeemed
// vouchers are deactivated instead so their ledger references stay resolvable.
func DeleteVoucher(c *gin.Context) {
	utils.LogInfo("DeleteVoucher called")

	var voucher models.Voucher
	if err := config.DB.First(&voucher, c.Param("id")).Error; err != nil {
		utils.NotFound(c, "Voucher not found")
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var redemptions int64
		if err := tx.Model(&models.VoucherRedemption{}).
			Where("voucher_id = ?", voucher.ID).Count(&redemptions).Error; err != nil {
			return err
		}
		if redemptions > 0 {
			return tx.Model(&voucher).Update("is_active", false).Error
		}
		return tx.Delete(&voucher).Error
	})
	if err != nil {
		utils.LogError("Failed to delete voucher ID: %d: %v", voucher.ID, err)
		utils.InternalServerError(c, "Failed to delete voucher", nil)
		return
	}

	utils.Success(c, "Voucher deleted successfully", nil)
}
