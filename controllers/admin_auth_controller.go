package controllers

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
	"gorm.io/gorm"
)

// AdminLoginRequest represents the request body for admin login
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin authenticates an admin and returns a JWT
func AdminLogin(c *gin.Context) {
	utils.LogInfo("AdminLogin called")

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var admin models.Admin
	if err := config.DB.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, admin.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if !admin.IsActive {
		utils.Forbidden(c, "Admin account is disabled")
		return
	}

	config.DB.Model(&admin).Update("last_login", time.Now())

	token, err := utils.GenerateAdminToken(&admin)
	if err != nil {
		utils.LogError("Failed to generate admin token: %v", err)
		utils.InternalServerError(c, "Failed to create session", nil)
		return
	}

	utils.Success(c, "Login successful", gin.H{"token": token})
}

// CreateSampleAdmin seeds the initial admin account from environment variables
func CreateSampleAdmin() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		utils.LogInfo("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.Admin
	err := config.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.Admin{
		Email:    email,
		Password: hashed,
		IsActive: true,
	}
	if err := config.DB.Create(&admin).Error; err != nil {
		return err
	}

	utils.LogInfo("Seeded admin account %s", email)
	return nil
}
