package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
	"gorm.io/gorm"
)

// PayPalCaptureEvent is the capture notification emitted by the PayPal
// collaborator once a payment completes.
type PayPalCaptureEvent struct {
	UserID               uint    `json:"user_id" binding:"required"`
	PlanID               uint    `json:"plan_id" binding:"required"`
	Amount               float64 `json:"amount" binding:"required"`
	Currency             string  `json:"currency" binding:"required"`
	GatewayTransactionID string  `json:"gateway_transaction_id" binding:"required"`
}

func bindJSONBytes(data []byte, obj interface{}) error {
	if err := json.Unmarshal(data, obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}

// HandlePayPalCapture ledgers a PayPal capture event. Redelivered webhooks are
// no-ops: the gateway transaction id is the idempotency key.
func HandlePayPalCapture(c *gin.Context) {
	utils.LogInfo("HandlePayPalCapture called")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequest(c, "Failed to read request body", nil)
		return
	}

	// Signature check: HMAC of the raw body with the shared webhook secret.
	secret := os.Getenv("PAYPAL_WEBHOOK_SECRET")
	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(expected), []byte(c.GetHeader("X-Webhook-Signature"))) {
			utils.LogError("PayPal webhook signature mismatch")
			utils.Unauthorized(c, "Invalid webhook signature")
			return
		}
	}

	var event PayPalCaptureEvent
	if err := bindJSONBytes(body, &event); err != nil {
		utils.BadRequest(c, "Invalid capture event", err.Error())
		return
	}

	var plan models.Plan
	if err := config.DB.First(&plan, event.PlanID).Error; err != nil {
		utils.LogError("Capture for unknown plan ID: %d", event.PlanID)
		utils.NotFound(c, "Plan not found")
		return
	}

	var user models.User
	if err := config.DB.First(&user, event.UserID).Error; err != nil {
		utils.LogError("Capture for unknown user ID: %d", event.UserID)
		utils.NotFound(c, "User not found")
		return
	}

	var entry *models.LedgerEntry
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = utils.AppendLedgerEntry(tx, event.UserID, models.EntryTypePurchase, plan.Credits,
			models.SourcePayPal, event.GatewayTransactionID, "Credit purchase: "+plan.Name)
		return txErr
	})
	if err != nil {
		utils.LogError("Failed to ledger PayPal capture %s: %v", event.GatewayTransactionID, err)
		utils.DomainError(c, err)
		return
	}

	utils.LogInfo("PayPal capture %s ledgered for user ID: %d, +%d credits",
		event.GatewayTransactionID, event.UserID, entry.Amount)
	go utils.SendPurchaseReceiptEmail(user.Email, entry.Amount, models.SourcePayPal, event.GatewayTransactionID)

	utils.Success(c, "Capture processed", gin.H{
		"entry_id": entry.ID,
		"credits":  entry.Amount,
	})
}
