package types

import "ouroc/crypto"

// AuthorizationMode selects how the crypto verifier admits a trigger or
// creation call. The arms are fixed and enumerated, matching the teacher's
// convention for small closed tag sets (see native/escrow's
// ArbitrationScheme).
type AuthorizationMode uint8

const (
	// AuthModeUnspecified is the zero value and must never be persisted.
	AuthModeUnspecified AuthorizationMode = iota
	// AuthModeSignedKey requires Ed25519 verification against
	// Config.TriggerSignerPubKey.
	AuthModeSignedKey
	// AuthModeTimeGated admits a call purely on wall-clock due-ness.
	AuthModeTimeGated
	// AuthModeManual admits only the subscription's own subscriber or
	// merchant, signature ignored.
	AuthModeManual
	// AuthModeHybrid admits if any of the above would.
	AuthModeHybrid
)

// Valid reports whether the mode is one of the four supported arms.
func (m AuthorizationMode) Valid() bool {
	switch m {
	case AuthModeSignedKey, AuthModeTimeGated, AuthModeManual, AuthModeHybrid:
		return true
	default:
		return false
	}
}

// RequiresSignerKey reports whether the mode needs a configured trigger
// signer public key to be meaningful.
func (m AuthorizationMode) RequiresSignerKey() bool {
	return m == AuthModeSignedKey || m == AuthModeHybrid
}

// String renders the mode for logs and events.
func (m AuthorizationMode) String() string {
	switch m {
	case AuthModeSignedKey:
		return "signed-key"
	case AuthModeTimeGated:
		return "time-gated"
	case AuthModeManual:
		return "manual"
	case AuthModeHybrid:
		return "hybrid"
	default:
		return "unspecified"
	}
}

// PendingFeeDestination records an in-flight, time-locked proposal to
// change Config.FeeDestination.
type PendingFeeDestination struct {
	NewAccount crypto.Address
	ProposedAt int64
}

// Config is the single process-wide singleton governing authorization,
// platform fee routing, and the global pause switch. It is created once by
// Initialize and mutated only through the admin ops in native/config.
type Config struct {
	Authority             crypto.Address
	AuthorizationMode     AuthorizationMode
	TriggerSignerPubKey   [32]byte
	HasTriggerSignerKey   bool
	PlatformFeeBps        uint32
	FeeDestination        crypto.Address
	PendingFeeDestination *PendingFeeDestination
	Paused                bool
	TotalSubscriptions    uint64
}

// Clone returns a deep copy safe for callers to mutate independently of the
// stored instance.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.PendingFeeDestination != nil {
		pending := *c.PendingFeeDestination
		clone.PendingFeeDestination = &pending
	}
	return &clone
}

// MaxPlatformFeeBps is the protocol-wide ceiling on the platform fee rate
// (10%, per spec).
const MaxPlatformFeeBps = 1_000

// FeeDestinationTimelockSeconds is the wait period between proposing and
// applying a fee-destination change.
const FeeDestinationTimelockSeconds = int64(7 * 24 * 60 * 60)
