package utils

import (
	"context"
	"testing"
	"time"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	info *ChainTxInfo
	err  error
}

func (f *fakeChain) Lookup(ctx context.Context, cryptoType, txHash string) (*ChainTxInfo, error) {
	return f.info, f.err
}

type fakeRates struct {
	rate float64
}

func (f *fakeRates) RateUSD(cryptoType string) (float64, error) {
	return f.rate, nil
}

func cryptoTestSetup(t *testing.T) (*models.User, *models.Plan) {
	t.Helper()
	TestSetup(t)
	Rates = &fakeRates{rate: 50000}
	t.Cleanup(func() {
		Rates = &HTTPRateFeed{}
		Chain = &HTTPChainClient{}
	})
	user := CreateTestUser(t)
	plan := CreateTestPlan(t, "Starter", 10, 100)
	return user, plan
}

func walletFor(t *testing.T, request *models.CryptoPaymentRequest) *models.CryptoWallet {
	t.Helper()
	var wallet models.CryptoWallet
	require.NoError(t, config.DB.First(&wallet, request.WalletID).Error)
	return &wallet
}

func TestCreateCryptoPaymentRequest(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, request.Status)
	require.NotEmpty(t, request.ReferenceID)
	require.InDelta(t, 0.0002, request.ExpectedAmountCrypto, 1e-12)
	require.True(t, request.ExpiresAt.After(time.Now()))

	wallet := walletFor(t, request)
	require.Equal(t, user.ID, wallet.UserID)
	require.True(t, len(wallet.WalletAddress) > 10)
	require.NotEmpty(t, wallet.EncryptedMnemonic)

	// The same user and network reuse the wallet.
	second, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	require.Equal(t, request.WalletID, second.WalletID)
	require.NotEqual(t, request.ReferenceID, second.ReferenceID)
}

func TestCreateCryptoPaymentRequestUnknownNetwork(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	_, err := CreateCryptoPaymentRequest(user.ID, "dogecoin", plan.ID)
	require.ErrorIs(t, err, ErrUnknownCrypto)
}

func TestVerifyCryptoPaymentConfirms(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	wallet := walletFor(t, request)

	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 3,
		ToAddress:     wallet.WalletAddress,
		Amount:        request.ExpectedAmountCrypto,
		BlockHeight:   850000,
	}}

	result, err := VerifyCryptoPayment(context.Background(), user.ID, "hash-1", models.CryptoTypeBitcoin, "")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusConfirmed, result.Status)
	require.Equal(t, plan.Credits, result.CreditsAdded)
	require.Equal(t, plan.Credits, result.NewBalance)
	require.Equal(t, request.ReferenceID, result.Reference)

	var entry models.LedgerEntry
	require.NoError(t, config.DB.Where("user_id = ? AND external_ref = ?", user.ID, "hash-1").First(&entry).Error)
	require.Equal(t, models.EntryTypePurchase, entry.Type)
	require.Equal(t, "Bitcoin", entry.Source)

	var reloaded models.CryptoPaymentRequest
	require.NoError(t, config.DB.First(&reloaded, request.ID).Error)
	require.Equal(t, models.PaymentStatusConfirmed, reloaded.Status)

	var chainTx models.CryptoTransaction
	require.NoError(t, config.DB.Where("transaction_hash = ?", "hash-1").First(&chainTx).Error)
	require.Equal(t, models.TxStatusConfirmed, chainTx.Status)
}

func TestVerifyByReferenceTargetsOlderRequest(t *testing.T) {
	user, plan := cryptoTestSetup(t)
	bigger := CreateTestPlan(t, "Writer", 25, 300)

	older, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	newer, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, bigger.ID)
	require.NoError(t, err)
	wallet := walletFor(t, older)

	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 3,
		ToAddress:     wallet.WalletAddress,
		Amount:        older.ExpectedAmountCrypto,
	}}

	// The reference pins the match to the older request even though a newer
	// open request exists for the same network.
	result, err := VerifyCryptoPayment(context.Background(), user.ID, "hash-ref", models.CryptoTypeBitcoin, older.ReferenceID)
	require.NoError(t, err)
	require.Equal(t, older.ReferenceID, result.Reference)
	require.Equal(t, plan.Credits, result.CreditsAdded)

	var reloaded models.CryptoPaymentRequest
	require.NoError(t, config.DB.First(&reloaded, newer.ID).Error)
	require.Equal(t, models.PaymentStatusPending, reloaded.Status)
}

func TestVerifyRejectsReplayedHash(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	wallet := walletFor(t, request)

	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 3,
		ToAddress:     wallet.WalletAddress,
		Amount:        request.ExpectedAmountCrypto,
	}}

	_, err = VerifyCryptoPayment(context.Background(), user.ID, "hash-replay", models.CryptoTypeBitcoin, "")
	require.NoError(t, err)

	// Same hash against a fresh request must be rejected before any chain query.
	_, err = CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	_, err = VerifyCryptoPayment(context.Background(), user.ID, "hash-replay", models.CryptoTypeBitcoin, "")
	require.ErrorIs(t, err, ErrHashAlreadyUsed)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Equal(t, plan.Credits, balance)
}

func TestVerifyConfirmationsPending(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	wallet := walletFor(t, request)

	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 1,
		ToAddress:     wallet.WalletAddress,
		Amount:        request.ExpectedAmountCrypto,
	}}

	result, err := VerifyCryptoPayment(context.Background(), user.ID, "hash-young", models.CryptoTypeBitcoin, "")
	require.ErrorIs(t, err, ErrConfirmationsPending)
	require.NotNil(t, result)
	require.Equal(t, models.PaymentStatusAwaitingVerification, result.Status)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)

	// Once the chain catches up, the same request confirms.
	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 3,
		ToAddress:     wallet.WalletAddress,
		Amount:        request.ExpectedAmountCrypto,
	}}
	confirmed, err := VerifyCryptoPayment(context.Background(), user.ID, "hash-young", models.CryptoTypeBitcoin, "")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusConfirmed, confirmed.Status)
}

func TestVerifyUnknownTransaction(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	_, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)

	Chain = &fakeChain{info: &ChainTxInfo{Found: false}}

	_, err = VerifyCryptoPayment(context.Background(), user.ID, "hash-ghost", models.CryptoTypeBitcoin, "")
	require.ErrorIs(t, err, ErrTransactionNotFound)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestVerifyAddressMismatchIsTerminal(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)

	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 3,
		ToAddress:     "bc1qsomeoneelse",
		Amount:        request.ExpectedAmountCrypto,
	}}

	_, err = VerifyCryptoPayment(context.Background(), user.ID, "hash-wrong-dest", models.CryptoTypeBitcoin, "")
	require.ErrorIs(t, err, ErrAddressMismatch)

	var reloaded models.CryptoPaymentRequest
	require.NoError(t, config.DB.First(&reloaded, request.ID).Error)
	require.Equal(t, models.PaymentStatusFailed, reloaded.Status)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestVerifyPartialPaymentStaysOpen(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	wallet := walletFor(t, request)

	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 3,
		ToAddress:     wallet.WalletAddress,
		Amount:        request.ExpectedAmountCrypto / 2,
	}}

	_, err = VerifyCryptoPayment(context.Background(), user.ID, "hash-short", models.CryptoTypeBitcoin, "")
	require.ErrorIs(t, err, ErrPartialPayment)

	// The request is held for manual review, not failed.
	var reloaded models.CryptoPaymentRequest
	require.NoError(t, config.DB.First(&reloaded, request.ID).Error)
	require.Equal(t, models.PaymentStatusAwaitingVerification, reloaded.Status)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestVerifyToleranceAbsorbsSlippage(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	wallet := walletFor(t, request)

	// 0.4% under the expected amount, inside the 0.5% band.
	Chain = &fakeChain{info: &ChainTxInfo{
		Found:         true,
		Confirmations: 3,
		ToAddress:     wallet.WalletAddress,
		Amount:        request.ExpectedAmountCrypto * 0.996,
	}}

	result, err := VerifyCryptoPayment(context.Background(), user.ID, "hash-slip", models.CryptoTypeBitcoin, "")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusConfirmed, result.Status)
}

func TestVerifyExpiredRequest(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	request, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	require.NoError(t, config.DB.Model(request).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	Chain = &fakeChain{info: &ChainTxInfo{Found: true, Confirmations: 3}}

	_, err = VerifyCryptoPayment(context.Background(), user.ID, "hash-late", models.CryptoTypeBitcoin, "")
	require.ErrorIs(t, err, ErrPaymentRequestExpired)

	var reloaded models.CryptoPaymentRequest
	require.NoError(t, config.DB.First(&reloaded, request.ID).Error)
	require.Equal(t, models.PaymentStatusExpired, reloaded.Status)

	// With no open request left, a further submission has nothing to match.
	_, err = VerifyCryptoPayment(context.Background(), user.ID, "hash-late", models.CryptoTypeBitcoin, "")
	require.ErrorIs(t, err, ErrPaymentRequestNotFound)

	balance, err := GetBalance(user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestExpireStaleCryptoRequests(t *testing.T) {
	user, plan := cryptoTestSetup(t)

	stale, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeBitcoin, plan.ID)
	require.NoError(t, err)
	require.NoError(t, config.DB.Model(stale).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	fresh, err := CreateCryptoPaymentRequest(user.ID, models.CryptoTypeSolana, plan.ID)
	require.NoError(t, err)

	swept, err := ExpireStaleCryptoRequests()
	require.NoError(t, err)
	require.EqualValues(t, 1, swept)

	var reloaded models.CryptoPaymentRequest
	require.NoError(t, config.DB.First(&reloaded, stale.ID).Error)
	require.Equal(t, models.PaymentStatusExpired, reloaded.Status)
	var reloadedFresh models.CryptoPaymentRequest
	require.NoError(t, config.DB.First(&reloadedFresh, fresh.ID).Error)
	require.Equal(t, models.PaymentStatusPending, reloadedFresh.Status)
}
