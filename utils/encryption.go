package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const encryptionKeySize = 32 // AES-256

// EncryptSecret encrypts wallet key material with AES-256-GCM. The ciphertext
// is hex encoded with the nonce prepended.
func EncryptSecret(plaintext string, encryptionKey string) (string, error) {
	if plaintext == "" {
		return "", errors.New("secret cannot be empty")
	}
	if len(encryptionKey) < encryptionKeySize {
		return "", fmt.Errorf("encryption key must be at least %d bytes long", encryptionKeySize)
	}

	key := []byte(encryptionKey)[:encryptionKeySize]

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

// DecryptSecret reverses EncryptSecret.
func DecryptSecret(encrypted string, encryptionKey string) (string, error) {
	if encrypted == "" {
		return "", errors.New("encrypted secret cannot be empty")
	}
	if len(encryptionKey) < encryptionKeySize {
		return "", fmt.Errorf("encryption key must be at least %d bytes long", encryptionKeySize)
	}

	key := []byte(encryptionKey)[:encryptionKeySize]
	ciphertext, err := hex.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
