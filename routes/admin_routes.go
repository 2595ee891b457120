package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/quillgen/quillgen/controllers"
	"github.com/quillgen/quillgen/middleware"
)

// initAdminRoutes initializes all admin-related routes
func initAdminRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	{
		admin.POST("/login", controllers.AdminLogin)

		// Protected admin routes
		protected := admin.Group("")
		protected.Use(middleware.AdminAuthMiddleware())
		{
			// Voucher management
			protected.POST("/vouchers", controllers.CreateVoucher)
			protected.GET("/vouchers", controllers.ListVouchers)
			protected.PUT("/vouchers/:id", controllers.UpdateVoucher)
			protected.PATCH("/vouchers/:id/toggle", controllers.ToggleVoucher)
			protected.DELETE("/vouchers/:id", controllers.DeleteVoucher)

			// Ledger operations
			protected.POST("/adjustments", controllers.CreateAdjustment)
			protected.PATCH("/users/credit-exempt", controllers.SetCreditExempt)
			protected.POST("/users/:id/reconcile", controllers.ReconcileUserBalance)
			protected.GET("/ledger/export/excel", controllers.DownloadLedgerExportExcel)
		}
	}
}
