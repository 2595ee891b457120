package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	bip39 "github.com/tyler-smith/go-bip39"
	"gorm.io/gorm"
)

// GetOrCreateCryptoWallet returns the user's active deposit wallet for a
// network, allocating one on first use. The wallet mnemonic is generated with
// BIP-39 and stored encrypted; it never leaves the server.
func GetOrCreateCryptoWallet(userID uint, cryptoType string) (*models.CryptoWallet, error) {
	if !models.ValidCryptoType(cryptoType) {
		return nil, ErrUnknownCrypto
	}

	var wallet models.CryptoWallet
	err := config.DB.Where("user_id = ? AND crypto_type = ? AND is_active = ?", userID, cryptoType, true).
		First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	seed := bip39.NewSeed(mnemonic, "")

	encrypted, err := EncryptSecret(mnemonic, os.Getenv("WALLET_ENCRYPTION_KEY"))
	if err != nil {
		return nil, WrapError(err, "failed to encrypt wallet mnemonic")
	}

	wallet = models.CryptoWallet{
		UserID:            userID,
		CryptoType:        cryptoType,
		WalletAddress:     DeriveDepositAddress(cryptoType, seed),
		EncryptedMnemonic: encrypted,
		IsActive:          true,
	}
	if err := config.DB.Create(&wallet).Error; err != nil {
		return nil, err
	}

	LogInfo("Allocated %s deposit wallet for user ID: %d", cryptoType, userID)
	return &wallet, nil
}

// DeriveDepositAddress derives a deterministic deposit address from the wallet
// seed, formatted per network.
func DeriveDepositAddress(cryptoType string, seed []byte) string {
	h := sha256.Sum256(seed)
	digest := hex.EncodeToString(h[:])

	switch cryptoType {
	case models.CryptoTypeBitcoin:
		return "bc1q" + digest[:38]
	case models.CryptoTypeSolana:
		return digest[:44]
	case models.CryptoTypeUSDTERC20:
		return "0x" + digest[:40]
	case models.CryptoTypeUSDTTRC20:
		return "T" + digest[:33]
	}
	return digest
}

// WithinTolerance reports whether received is within the accepted relative
// deviation of expected. The band absorbs exchange-rate slippage between
// request creation and send.
func WithinTolerance(expected, received float64) bool {
	if expected <= 0 {
		return false
	}
	diff := expected - received
	if diff < 0 {
		diff = -diff
	}
	return diff/expected <= CryptoAmountTolerance
}

// MaskAddress shortens a wallet address for logs.
func MaskAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return fmt.Sprintf("%s...%s", addr[:6], addr[len(addr)-4:])
}
