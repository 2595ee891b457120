package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/controllers"
	"github.com/quillgen/quillgen/middleware"
)

// initUserRoutes initializes all user-related routes
func initUserRoutes(router *gin.RouterGroup) {
	// Public routes (no authentication required)
	router.POST("/register", controllers.Register)
	router.POST("/login", controllers.Login)
	router.GET("/plans", controllers.ListPlans)

	// Protected routes (require authentication)
	protected := router.Group("/user")
	protected.Use(middleware.AuthMiddleware())
	{
		// Credit ledger
		protected.GET("/credits/balance", controllers.GetCreditBalance)
		protected.GET("/credits/history", controllers.GetCreditHistory)
		protected.GET("/credits/receipt/:id", controllers.DownloadCreditReceipt)

		// Voucher redemption
		protected.POST("/vouchers/redeem", controllers.RedeemVoucher)

		// Referrals
		protected.GET("/referral/code", controllers.GetReferralCode)
		protected.GET("/referral/stats", controllers.GetReferralStats)

		// Crypto payments
		protected.POST("/payments/crypto", controllers.InitiateCryptoPayment)
		protected.POST("/payments/crypto/verify", controllers.VerifyCryptoPayment)
		protected.GET("/payments/crypto/status", controllers.GetCryptoPaymentStatus)

		// Entitlements and generation
		protected.GET("/entitlements", controllers.GetEntitlements)
		protected.POST("/generate", controllers.ConsumeGenerationCredits)
	}
}
