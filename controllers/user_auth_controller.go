package controllers

import (
	"errors"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
	"gorm.io/gorm"
)

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=30"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ReferralCode string `json:"referral_code"`
}

// Register creates a new user account. A referral code may arrive in the
// request body or have been captured in the session by a referral link.
func Register(c *gin.Context) {
	utils.LogInfo("Register called")

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		utils.Conflict(c, "Email or username already registered", nil)
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.LogError("Failed to hash password: %v", err)
		utils.InternalServerError(c, "Failed to create account", nil)
		return
	}

	referralCode := req.ReferralCode
	if referralCode == "" {
		session := sessions.Default(c)
		if v, ok := session.Get("referral_code").(string); ok {
			referralCode = v
		}
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if referralCode != "" {
			if err := utils.RecordReferralSignup(tx, user.ID, referralCode); err != nil {
				// A bad referral code should not block the signup itself.
				if errors.Is(err, utils.ErrVoucherNotFound) || errors.Is(err, utils.ErrSelfReferral) {
					utils.LogInfo("Ignoring invalid referral code %s at signup for user ID: %d", referralCode, user.ID)
					return nil
				}
				return err
			}
			utils.LogInfo("Referral signup recorded for user ID: %d with code %s", user.ID, referralCode)
		}
		return nil
	})
	if err != nil {
		utils.LogError("Failed to register user: %v", err)
		utils.InternalServerError(c, "Failed to create account", nil)
		return
	}

	session := sessions.Default(c)
	session.Delete("referral_code")
	_ = session.Save()

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.LogError("Failed to generate token for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create session", nil)
		return
	}

	utils.Created(c, "Registration successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and returns a JWT
func Login(c *gin.Context) {
	utils.LogInfo("Login called")

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if user.IsBlocked {
		utils.Forbidden(c, "Your account has been blocked")
		return
	}

	config.DB.Model(&user).Update("last_login_at", time.Now())

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.LogError("Failed to generate token for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create session", nil)
		return
	}

	utils.Success(c, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}
