package main

import (
	"context"
	"log"
	"time"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/controllers"
	"github.com/quillgen/quillgen/routes"
	"github.com/quillgen/quillgen/utils"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	// Initialize database
	config.InitDB()

	// Seed admin, plans and feature flags
	if err := controllers.CreateSampleAdmin(); err != nil {
		utils.LogError("Failed to create sample admin: %v", err)
		log.Fatal("Failed to create sample admin:", err)
	}
	if err := controllers.CreateDefaultPlans(); err != nil {
		utils.LogError("Failed to create default plans: %v", err)
		log.Fatal("Failed to create default plans:", err)
	}
	if err := controllers.CreateDefaultFeatureFlags(); err != nil {
		utils.LogError("Failed to create default feature flags: %v", err)
		log.Fatal("Failed to create default feature flags:", err)
	}

	// Initialize Google OAuth
	config.InitGoogleOAuth()

	// External collaborators for crypto payments
	utils.InitChainClient(cfg.ChainQueryURL)
	utils.InitRateFeed(cfg.RateFeedURL)

	// Background sweeper expires stale crypto payment requests
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	utils.StartCryptoRequestSweeper(sweeperCtx, 5*time.Minute)

	// Set up router
	router := routes.SetupRouter()

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	utils.LogInfo("Server starting on port %s", port)
	// Start server
	if err := router.Run(":" + port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
