package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"gorm.io/gorm"
)

// VerificationResult reports the outcome of a crypto payment verification.
type VerificationResult struct {
	Status       string `json:"status"`
	CreditsAdded int64  `json:"credits_added,omitempty"`
	NewBalance   int64  `json:"new_balance,omitempty"`
	Reference    string `json:"reference"`
}

// CreateCryptoPaymentRequest opens a time-boxed payment request against the
// user's deposit wallet for the chosen network. The expected amount is fixed
// at the current exchange rate; the short window bounds exposure to drift.
func CreateCryptoPaymentRequest(userID uint, cryptoType string, planID uint) (*models.CryptoPaymentRequest, error) {
	if !models.ValidCryptoType(cryptoType) {
		return nil, ErrUnknownCrypto
	}

	var plan models.Plan
	if err := config.DB.Where("id = ? AND active = ?", planID, true).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Plan not found", err)
		}
		return nil, err
	}

	wallet, err := GetOrCreateCryptoWallet(userID, cryptoType)
	if err != nil {
		return nil, err
	}

	rate, err := Rates.RateUSD(cryptoType)
	if err != nil {
		return nil, err
	}

	expected := plan.PriceUSD / rate
	// 8 decimal places covers the smallest unit of every supported network.
	expected = math.Round(expected*1e8) / 1e8

	request := models.CryptoPaymentRequest{
		UserID:               userID,
		PlanID:               plan.ID,
		CryptoType:           cryptoType,
		WalletID:             wallet.ID,
		AmountUSD:            plan.PriceUSD,
		ExpectedAmountCrypto: expected,
		ReferenceID:          uuid.New().String(),
		Status:               models.PaymentStatusPending,
		ExpiresAt:            time.Now().Add(CryptoPaymentWindow),
	}
	if err := config.DB.Create(&request).Error; err != nil {
		return nil, err
	}

	LogInfo("Crypto payment request %s created: user ID %d, plan %s, %f %s to %s",
		request.ReferenceID, userID, plan.Name, expected, cryptoType, MaskAddress(wallet.WalletAddress))
	return &request, nil
}

// VerifyCryptoPayment validates a submitted transaction hash against the
// user's open payment request and, on success, credits the plan's credits in
// the same transaction that confirms the request. A non-empty referenceID
// targets that specific request; otherwise the most recent open request for
// the network is used.
//
// The chain query runs between two transactions: the first moves the request
// to awaiting_verification, the second finalizes. A failed or timed-out query
// leaves the request awaiting_verification and safely retriable; nothing is
// ever partially ledgered.
func VerifyCryptoPayment(ctx context.Context, userID uint, txHash, cryptoType, referenceID string) (*VerificationResult, error) {
	if txHash == "" {
		return nil, ErrInvalidCode
	}
	if !models.ValidCryptoType(cryptoType) {
		return nil, ErrUnknownCrypto
	}

	var request models.CryptoPaymentRequest
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		query := lockForUpdate(tx).
			Where("user_id = ? AND crypto_type = ? AND status IN ?", userID, cryptoType,
				[]string{models.PaymentStatusPending, models.PaymentStatusAwaitingVerification})
		if referenceID != "" {
			query = query.Where("reference_id = ?", referenceID)
		}
		if err := query.Order("created_at DESC").
			First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentRequestNotFound
			}
			return err
		}

		if time.Now().After(request.ExpiresAt) {
			return ErrPaymentRequestExpired
		}

		// Replay protection: a hash that already confirmed a payment can
		// never be consumed again, for this or any other user.
		var used int64
		if err := tx.Model(&models.CryptoTransaction{}).
			Where("transaction_hash = ?", txHash).
			Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return ErrHashAlreadyUsed
		}

		return tx.Model(&request).Update("status", models.PaymentStatusAwaitingVerification).Error
	})
	if errors.Is(err, ErrPaymentRequestExpired) {
		markPaymentRequestStatus(&request, models.PaymentStatusExpired)
	}
	if err != nil {
		return nil, err
	}

	info, err := Chain.Lookup(ctx, cryptoType, txHash)
	if err != nil {
		return nil, err
	}
	if !info.Found {
		return nil, ErrTransactionNotFound
	}
	if info.Confirmations < ConfirmationThreshold(cryptoType) {
		LogInfo("Hash %s at %d/%d confirmations for request %s",
			txHash, info.Confirmations, ConfirmationThreshold(cryptoType), request.ReferenceID)
		return &VerificationResult{Status: models.PaymentStatusAwaitingVerification, Reference: request.ReferenceID},
			ErrConfirmationsPending
	}

	var result *VerificationResult
	var receiptUser models.User
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ? AND status = ?", request.ID, models.PaymentStatusAwaitingVerification).
			First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentRequestNotFound
			}
			return err
		}
		if time.Now().After(request.ExpiresAt) {
			return ErrPaymentRequestExpired
		}

		var wallet models.CryptoWallet
		if err := tx.First(&wallet, request.WalletID).Error; err != nil {
			return err
		}

		// Wrong destination is terminal: the hash names a payment to someone
		// else's address and retrying can never fix that.
		if info.ToAddress != wallet.WalletAddress {
			LogError("Address mismatch for request %s: got %s, want %s",
				request.ReferenceID, MaskAddress(info.ToAddress), MaskAddress(wallet.WalletAddress))
			return ErrAddressMismatch
		}

		// Out-of-tolerance amounts are never auto-credited; the request stays
		// open for manual review.
		if !WithinTolerance(request.ExpectedAmountCrypto, info.Amount) {
			return ErrPartialPayment
		}

		var plan models.Plan
		if err := tx.First(&plan, request.PlanID).Error; err != nil {
			return err
		}

		cryptoTx := models.CryptoTransaction{
			TransactionHash: txHash,
			WalletID:        wallet.ID,
			Amount:          info.Amount,
			AmountUSD:       request.AmountUSD,
			Status:          models.TxStatusConfirmed,
			Confirmations:   info.Confirmations,
			BlockHeight:     info.BlockHeight,
		}
		if err := tx.Create(&cryptoTx).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				LogError("Hash %s confirmed twice: %v", txHash, ErrLedgerInvariant)
				return ErrHashAlreadyUsed
			}
			return err
		}

		if err := tx.Model(&models.CryptoWallet{}).Where("id = ?", wallet.ID).
			Update("balance", gorm.Expr("balance + ?", info.Amount)).Error; err != nil {
			return err
		}

		if err := tx.Model(&request).Update("status", models.PaymentStatusConfirmed).Error; err != nil {
			return err
		}

		entry, err := AppendLedgerEntry(tx, userID, models.EntryTypePurchase, plan.Credits,
			models.LedgerSource(cryptoType), txHash, fmt.Sprintf("Credit purchase: %s", plan.Name))
		if err != nil {
			return err
		}

		if err := tx.First(&receiptUser, userID).Error; err != nil {
			return err
		}

		result = &VerificationResult{
			Status:       models.PaymentStatusConfirmed,
			CreditsAdded: entry.Amount,
			NewBalance:   receiptUser.CreditBalance,
			Reference:    request.ReferenceID,
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrPaymentRequestExpired):
		markPaymentRequestStatus(&request, models.PaymentStatusExpired)
	case errors.Is(err, ErrAddressMismatch):
		markPaymentRequestStatus(&request, models.PaymentStatusFailed)
	}
	if err != nil {
		return nil, err
	}

	LogInfo("Crypto payment confirmed: request %s, user ID %d, +%d credits",
		request.ReferenceID, userID, result.CreditsAdded)
	go SendPurchaseReceiptEmail(receiptUser.Email, result.CreditsAdded, models.LedgerSource(cryptoType), txHash)

	return result, nil
}

// markPaymentRequestStatus records a terminal status outside the verify
// transaction; the rollback that surfaces the domain error must not undo it.
func markPaymentRequestStatus(request *models.CryptoPaymentRequest, status string) {
	if err := config.DB.Model(request).Update("status", status).Error; err != nil {
		LogError("Failed to mark request %s %s: %v", request.ReferenceID, status, err)
	}
}

// ExpireStaleCryptoRequests marks overdue open requests as expired and
// returns how many were swept.
func ExpireStaleCryptoRequests() (int64, error) {
	res := config.DB.Model(&models.CryptoPaymentRequest{}).
		Where("status IN ? AND expires_at < ?",
			[]string{models.PaymentStatusPending, models.PaymentStatusAwaitingVerification}, time.Now()).
		Update("status", models.PaymentStatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		LogInfo("Expired %d stale crypto payment requests", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// StartCryptoRequestSweeper expires stale payment requests on an interval
// until the context is cancelled.
func StartCryptoRequestSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ExpireStaleCryptoRequests(); err != nil {
					LogError("Crypto request sweep failed: %v", err)
				}
			}
		}
	}()
}
