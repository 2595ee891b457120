package utils

import (
	"fmt"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestSetup points config.DB at a fresh in-memory SQLite database with the
// full schema. Row-locking clauses are skipped on this dialect; the logic
// under test is otherwise identical to production.
func TestSetup(t *testing.T) {
	t.Helper()

	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("WALLET_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Every pooled connection would get its own empty in-memory database;
	// a single connection keeps all queries on the migrated one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to access test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.MigrateModels(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.DB = db
}

var testUserSeq int

// CreateTestUser creates a user with a unique username and email.
func CreateTestUser(t *testing.T) *models.User {
	t.Helper()

	testUserSeq++
	user := &models.User{
		Username:   fmt.Sprintf("testuser%d", testUserSeq),
		Email:      fmt.Sprintf("test%d@example.com", testUserSeq),
		Password:   "Test123!",
		IsVerified: true,
	}
	if err := config.DB.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestPlan creates an active credit pack.
func CreateTestPlan(t *testing.T, name string, priceUSD float64, credits int64) *models.Plan {
	t.Helper()

	plan := &models.Plan{
		Name:     name,
		PriceUSD: priceUSD,
		Credits:  credits,
		Active:   true,
	}
	if err := config.DB.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}
	return plan
}

// CreateTestVoucher creates an active voucher with the given limits.
func CreateTestVoucher(t *testing.T, code string, valueAmount float64, maxUses *int, perUserLimit int) *models.Voucher {
	t.Helper()

	voucher := &models.Voucher{
		Code:         NormalizeVoucherCode(code),
		Type:         models.VoucherTypeDiscount,
		ValueType:    models.VoucherValueCredits,
		ValueAmount:  valueAmount,
		MaxUses:      maxUses,
		PerUserLimit: perUserLimit,
		IsActive:     true,
	}
	if err := config.DB.Create(voucher).Error; err != nil {
		t.Fatalf("Failed to create test voucher: %v", err)
	}
	return voucher
}
