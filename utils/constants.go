package utils

import "time"

// Application constants
const (
	// Application name
	AppName = "QuillGen"

	// API version
	APIVersion = "v1"

	// Default port
	DefaultPort = "8080"

	// JWT token expiration (24 hours)
	JWTExpiration = 24 * time.Hour

	// Default pagination limit
	DefaultPaginationLimit = 10

	// Maximum pagination limit
	MaxPaginationLimit = 100
)

// Credit and referral constants
const (
	// Credits granted to a referrer when a referred signup makes their first purchase
	ReferralReferrerReward int64 = 100

	// Credits granted to the referred user on the same event
	ReferralRefereeReward int64 = 50

	// Words of generated content covered by one credit
	WordsPerCredit = 100
)

// Tier constants
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// Crypto payment constants
const (
	// How long a crypto payment request stays open before expiring.
	// The quoted exchange rate is only honored inside this window.
	CryptoPaymentWindow = 30 * time.Minute

	// Accepted relative deviation between expected and received amount
	CryptoAmountTolerance = 0.005

	// How often the background sweeper expires stale payment requests
	CryptoSweepInterval = 5 * time.Minute
)

// ConfirmationThreshold returns the confirmations required before a
// transaction on the given network is treated as final.
func ConfirmationThreshold(cryptoType string) int {
	switch cryptoType {
	case "bitcoin":
		return 3
	case "solana":
		return 32
	case "usdt_erc20":
		return 12
	case "usdt_trc20":
		return 19
	}
	return 6
}

// WordCapForTier returns the per-generation word cap for a tier.
func WordCapForTier(tier string) int {
	if tier == TierPremium {
		return 10000
	}
	return 1000
}
