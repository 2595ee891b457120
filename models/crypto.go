package models

import (
	"time"

	"gorm.io/gorm"
)

// CryptoWallet is a custodial deposit wallet allocated per user and network.
// The mnemonic is encrypted at rest and never leaves the server.
type CryptoWallet struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `json:"user_id" gorm:"index:idx_wallet_user_type"`
	CryptoType        string         `json:"crypto_type" gorm:"index:idx_wallet_user_type"`
	WalletAddress     string         `gorm:"uniqueIndex" json:"wallet_address"`
	EncryptedMnemonic string         `json:"-"`
	Balance           float64        `json:"balance" gorm:"default:0"`
	IsActive          bool           `json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// CryptoPaymentRequest is a time-boxed expectation of an on-chain payment.
type CryptoPaymentRequest struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `json:"user_id" gorm:"index"`
	PlanID               uint      `json:"plan_id"`
	CryptoType           string    `json:"crypto_type"`
	WalletID             uint      `json:"wallet_id"`
	AmountUSD            float64   `json:"amount_usd"`
	ExpectedAmountCrypto float64   `json:"expected_amount_crypto"`
	ReferenceID          string    `gorm:"uniqueIndex" json:"reference_id"`
	Status               string    `json:"status"`
	ExpiresAt            time.Time `json:"expires_at"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CryptoTransaction records a verified on-chain transaction. The unique hash
// makes confirmation idempotent: a hash can credit the ledger at most once.
type CryptoTransaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TransactionHash string    `gorm:"uniqueIndex" json:"transaction_hash"`
	WalletID        uint      `json:"wallet_id" gorm:"index"`
	Amount          float64   `json:"amount"`
	AmountUSD       float64   `json:"amount_usd"`
	Status          string    `json:"status"`
	Confirmations   int       `json:"confirmations"`
	BlockHeight     int64     `json:"block_height"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Crypto network constants
const (
	CryptoTypeBitcoin   = "bitcoin"
	CryptoTypeSolana    = "solana"
	CryptoTypeUSDTERC20 = "usdt_erc20"
	CryptoTypeUSDTTRC20 = "usdt_trc20"
)

// Payment request status constants
const (
	PaymentStatusPending              = "pending"
	PaymentStatusAwaitingVerification = "awaiting_verification"
	PaymentStatusConfirmed            = "confirmed"
	PaymentStatusExpired              = "expired"
	PaymentStatusFailed               = "failed"
)

// Transaction status constants
const (
	TxStatusPending    = "pending"
	TxStatusConfirming = "confirming"
	TxStatusConfirmed  = "confirmed"
	TxStatusFailed     = "failed"
)

// ValidCryptoType reports whether t is a supported network.
func ValidCryptoType(t string) bool {
	switch t {
	case CryptoTypeBitcoin, CryptoTypeSolana, CryptoTypeUSDTERC20, CryptoTypeUSDTTRC20:
		return true
	}
	return false
}

// LedgerSource returns the ledger source tag for a crypto network.
func LedgerSource(cryptoType string) string {
	switch cryptoType {
	case CryptoTypeBitcoin:
		return "Bitcoin"
	case CryptoTypeSolana:
		return "Solana"
	case CryptoTypeUSDTERC20:
		return "USDT-ERC20"
	case CryptoTypeUSDTTRC20:
		return "USDT-TRC20"
	}
	return ""
}
