package config

import (
	"fmt"

	"github.com/quillgen/quillgen/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB initializes the database connection
func InitDB() {
	config, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	DB = db

	if err := MigrateModels(DB); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}
}

// MigrateModels runs the schema migration for every model in the application.
// Shared with the test harness so tests run against the same schema.
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Plan{},
		&models.LedgerEntry{},
		&models.Voucher{},
		&models.VoucherRedemption{},
		&models.Referral{},
		&models.CryptoWallet{},
		&models.CryptoPaymentRequest{},
		&models.CryptoTransaction{},
		&models.Subscription{},
		&models.FeatureFlag{},
	)
}
