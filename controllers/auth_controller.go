package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
	"gorm.io/gorm"
)

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func GoogleLogin(c *gin.Context) {
	url := config.GoogleOAuthConfig.AuthCodeURL("state")
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		utils.BadRequest(c, "No code provided", nil)
		return
	}

	token, err := config.GoogleOAuthConfig.Exchange(c, code)
	if err != nil {
		utils.InternalServerError(c, "Failed to exchange token", err.Error())
		return
	}

	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		utils.InternalServerError(c, "Failed to get user info", err.Error())
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.InternalServerError(c, "Failed to read response", err.Error())
		return
	}

	var info GoogleUserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		utils.InternalServerError(c, "Failed to parse user info", err.Error())
		return
	}

	var user models.User
	err = config.DB.Where("google_id = ?", info.ID).First(&user).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			utils.InternalServerError(c, "Failed to look up user", nil)
			return
		}
		user = models.User{
			Username:   info.Email,
			Email:      info.Email,
			FirstName:  info.GivenName,
			LastName:   info.FamilyName,
			GoogleID:   info.ID,
			IsVerified: info.VerifiedEmail,
		}
		if err := config.DB.Create(&user).Error; err != nil {
			utils.LogError("Failed to create user from Google login: %v", err)
			utils.InternalServerError(c, "Failed to create account", nil)
			return
		}
	}

	if user.IsBlocked {
		utils.Forbidden(c, "Your account has been blocked")
		return
	}

	jwtToken, err := utils.GenerateToken(&user)
	if err != nil {
		utils.InternalServerError(c, "Failed to create session", nil)
		return
	}

	utils.Success(c, "Login successful", gin.H{
		"token": jwtToken,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}
