package utils

import (
	"errors"
)

// Domain errors surfaced by the ledger core. The four families mirror how the
// HTTP layer treats them: validation errors are caller mistakes, state errors
// are specific user-facing refusals, external errors are retriable, and
// invariant violations indicate a bug or attack and are logged as fatal.

// Validation errors
var (
	ErrInvalidAmount    = errors.New("amount must be a non-zero integer with the sign matching the entry type")
	ErrInvalidEntryType = errors.New("unknown ledger entry type")
	ErrInvalidCode      = errors.New("voucher code is empty or malformed")
	ErrSelfReferral     = errors.New("a referral code cannot be redeemed by its owner")
	ErrUnknownCrypto    = errors.New("unsupported crypto network")
)

// State errors
var (
	ErrInsufficientBalance    = errors.New("insufficient credit balance")
	ErrVoucherNotFound        = errors.New("voucher not found or inactive")
	ErrVoucherExpired         = errors.New("voucher has expired")
	ErrVoucherExhausted       = errors.New("voucher usage limit reached")
	ErrPerUserLimitReached    = errors.New("per-user redemption limit reached for this voucher")
	ErrTierRestricted         = errors.New("voucher is restricted to another tier")
	ErrPaymentRequestNotFound = errors.New("no open crypto payment request")
	ErrPaymentRequestExpired  = errors.New("crypto payment request has expired")
	ErrHashAlreadyUsed        = errors.New("transaction hash already consumed")
	ErrTransactionNotFound    = errors.New("transaction not found on chain")
	ErrConfirmationsPending   = errors.New("transaction below confirmation threshold")
	ErrPartialPayment         = errors.New("received amount outside tolerance; manual review required")
	ErrAddressMismatch        = errors.New("transaction destination does not match the allocated wallet")
)

// External dependency errors
var (
	ErrChainQueryFailed = errors.New("chain query failed")
	ErrRateFeedFailed   = errors.New("exchange rate feed unavailable")
)

// Invariant violations
var (
	ErrLedgerInvariant = errors.New("ledger invariant violation")
)

// IsValidationError reports whether err is a malformed-input error.
func IsValidationError(err error) bool {
	for _, e := range []error{ErrInvalidAmount, ErrInvalidEntryType, ErrInvalidCode, ErrSelfReferral, ErrUnknownCrypto} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsStateError reports whether err is a user-facing precondition failure.
func IsStateError(err error) bool {
	for _, e := range []error{
		ErrInsufficientBalance, ErrVoucherNotFound, ErrVoucherExpired, ErrVoucherExhausted,
		ErrPerUserLimitReached, ErrTierRestricted, ErrPaymentRequestNotFound,
		ErrPaymentRequestExpired, ErrHashAlreadyUsed, ErrTransactionNotFound,
		ErrConfirmationsPending, ErrPartialPayment, ErrAddressMismatch,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsExternalError reports whether err came from a collaborator and is retriable.
func IsExternalError(err error) bool {
	return errors.Is(err, ErrChainQueryFailed) || errors.Is(err, ErrRateFeedFailed)
}
