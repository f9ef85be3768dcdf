// Package errors enumerates the closed set of program errors the
// subscription core can return. Every native operation fails with one of
// these sentinels (optionally wrapped with call-site context via %w) and
// never partially mutates account state.
package errors

import stderrors "errors"

// Structural errors: malformed or out-of-range input.
var (
	ErrInvalidSubscriptionId = stderrors.New("subscription: invalid id")
	ErrInvalidMerchantName   = stderrors.New("subscription: invalid merchant name")
	ErrInvalidInterval       = stderrors.New("subscription: invalid interval")
	ErrInvalidAmount         = stderrors.New("subscription: invalid amount")
	ErrInvalidReminderDays   = stderrors.New("subscription: invalid reminder days")
	ErrInvalidFeeBps         = stderrors.New("config: invalid fee bps")
	ErrAccountAlreadyExists  = stderrors.New("subscription: account already exists")
	ErrAccountMissing        = stderrors.New("subscription: account missing")
)

// Authorization errors.
var (
	ErrMissingSignature = stderrors.New("auth: missing signature")
	ErrInvalidSignature = stderrors.New("auth: invalid signature")
	ErrUnauthorized     = stderrors.New("auth: unauthorized caller")
	ErrUnauthorizedAgent = stderrors.New("auth: unauthorized agent")
	ErrPaused           = stderrors.New("config: payments paused")
)

// State errors.
var (
	ErrSubscriptionPaused    = stderrors.New("subscription: paused")
	ErrSubscriptionCancelled = stderrors.New("subscription: cancelled")
	ErrNotDue                = stderrors.New("payment: not due")
	ErrRateLimitExceeded     = stderrors.New("payment: rate limit exceeded")
	ErrSpendingLimitExceeded = stderrors.New("payment: spending limit exceeded")
	ErrReplayDetected        = stderrors.New("payment: replay detected")
)

// Resource errors.
var (
	ErrInsufficientBalance   = stderrors.New("payment: insufficient balance")
	ErrInsufficientDelegation = stderrors.New("payment: insufficient delegation")
	ErrInsufficientEscrow    = stderrors.New("escrow: insufficient balance")
)

// Arithmetic errors.
var (
	ErrMathOverflow = stderrors.New("math: overflow")
)

// Admin timing errors.
var (
	ErrTimelockNotElapsed = stderrors.New("config: timelock not elapsed")
	ErrNoPendingProposal  = stderrors.New("config: no pending proposal")
)
