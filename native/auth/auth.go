// Package auth implements the trigger authorization check described in
// spec section 4.1: the branching behavior selected by Config's
// authorization_mode, plus the replay-preventing skew window shared by the
// payment processor and the notification emitter.
package auth

import (
	"ouroc/core/errors"
	"ouroc/core/types"
	"ouroc/crypto"
)

// Skew is the tolerated absolute difference, in seconds, between a
// trigger's claimed timestamp and the core's current clock. The spec
// leaves this implementation-chosen in [60, 300]; it must be configured
// explicitly rather than defaulted, so it is a constructor parameter on
// Verifier rather than a package constant.
type Skew int64

// Validate reports whether the skew falls within the spec's bounds.
func (s Skew) Validate() error {
	if s < 60 || s > 300 {
		return errors.ErrInvalidInterval
	}
	return nil
}

// Request carries everything a trigger authorization check needs.
type Request struct {
	Opcode    byte
	ID        string
	Now       int64
	Timestamp int64
	Signature *crypto.Signature
	Caller    crypto.Address
	Sub       *types.Subscription
}

// Verifier admits or rejects a trigger call according to Config's
// authorization_mode.
type Verifier struct {
	skew Skew
}

// NewVerifier constructs a Verifier with an explicit, validated skew.
func NewVerifier(skew Skew) (*Verifier, error) {
	if err := skew.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{skew: skew}, nil
}

// SkewSeconds exposes the configured skew so callers outside this package
// (the payment processor's due-ness check) apply the same tolerance.
func (v *Verifier) SkewSeconds() int64 {
	return int64(v.skew)
}

// Check runs the full section-4.1 branch for the given config and request.
// It never mutates state; replay marking is the caller's concern (spec
// section 4.4 step 7).
func (v *Verifier) Check(cfg *types.Config, req Request) error {
	if req.Timestamp-req.Now > int64(v.skew) || req.Now-req.Timestamp > int64(v.skew) {
		return errors.ErrReplayDetected
	}

	switch cfg.AuthorizationMode {
	case types.AuthModeSignedKey:
		return v.checkSignature(cfg, req)
	case types.AuthModeTimeGated:
		return v.checkDue(req)
	case types.AuthModeManual:
		return v.checkManual(req)
	case types.AuthModeHybrid:
		if v.checkSignature(cfg, req) == nil {
			return nil
		}
		if v.checkDue(req) == nil {
			return nil
		}
		return v.checkManual(req)
	default:
		return errors.ErrUnauthorized
	}
}

func (v *Verifier) checkSignature(cfg *types.Config, req Request) error {
	if !cfg.HasTriggerSignerKey {
		return errors.ErrUnauthorized
	}
	if req.Signature == nil {
		return errors.ErrMissingSignature
	}
	payload := crypto.TriggerPayload(req.Opcode, req.ID, req.Timestamp)
	if !crypto.VerifyEd25519(cfg.TriggerSignerPubKey, payload, *req.Signature) {
		return errors.ErrInvalidSignature
	}
	return nil
}

func (v *Verifier) checkDue(req Request) error {
	if req.Sub == nil {
		return errors.ErrAccountMissing
	}
	if req.Opcode == 0 {
		if req.Now >= req.Sub.NextPaymentTime {
			return nil
		}
		return errors.ErrNotDue
	}
	reminderSeconds := int64(req.Sub.ReminderDaysBeforePayment) * 86400
	if req.Now >= req.Sub.NextPaymentTime-reminderSeconds {
		return nil
	}
	return errors.ErrNotDue
}

func (v *Verifier) checkManual(req Request) error {
	if req.Sub == nil {
		return errors.ErrAccountMissing
	}
	if req.Caller == req.Sub.Subscriber || req.Caller == req.Sub.Merchant {
		return nil
	}
	return errors.ErrUnauthorized
}
