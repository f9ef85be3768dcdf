// Package config implements the admin and lifecycle ops that mutate the
// Config singleton: initialize, pause/unpause, fee-rate update, the
// time-locked fee-destination proposal flow, and authorization-mode
// updates (spec section 4.8).
package config

import (
	"strconv"

	"go.uber.org/zap"

	"ouroc/core/errors"
	"ouroc/core/events"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
)

// Manager wires the account database and event emission for every op that
// mutates Config.
type Manager struct {
	state   *state.Manager
	emitter events.Emitter
	log     *zap.Logger
}

// New constructs a config admin manager.
func New(st *state.Manager, emitter events.Emitter, logger *zap.Logger) *Manager {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{state: st, emitter: emitter, log: logger}
}

// InitInput carries the fields for the one-time initialize op.
type InitInput struct {
	Authority         crypto.Address
	AuthorizationMode types.AuthorizationMode
	TriggerSignerKey  *[32]byte
	PlatformFeeBps    uint32
	FeeDestination    crypto.Address
}

// Initialize creates the Config singleton. It must be called exactly once;
// subsequent calls fail with AccountAlreadyExists.
func (m *Manager) Initialize(in InitInput) (*types.Config, error) {
	if !in.AuthorizationMode.Valid() {
		return nil, errors.ErrUnauthorized
	}
	if in.PlatformFeeBps > types.MaxPlatformFeeBps {
		return nil, errors.ErrInvalidFeeBps
	}
	if in.AuthorizationMode.RequiresSignerKey() && in.TriggerSignerKey == nil {
		return nil, errors.ErrMissingSignature
	}

	m.state.Lock()
	defer m.state.Unlock()

	if _, ok, err := m.state.ConfigGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.ErrAccountAlreadyExists
	}

	cfg := &types.Config{
		Authority:         in.Authority,
		AuthorizationMode: in.AuthorizationMode,
		PlatformFeeBps:    in.PlatformFeeBps,
		FeeDestination:    in.FeeDestination,
	}
	if in.TriggerSignerKey != nil {
		cfg.TriggerSignerPubKey = *in.TriggerSignerKey
		cfg.HasTriggerSignerKey = true
	}
	if err := m.state.ConfigPut(cfg); err != nil {
		return nil, err
	}
	m.log.Info("config initialized", zap.String("authority", in.Authority.String()))
	return cfg, nil
}

func (m *Manager) mutate(caller crypto.Address, fn func(cfg *types.Config) (field, old, new string, err error)) error {
	m.state.Lock()
	defer m.state.Unlock()

	cfg, ok, err := m.state.ConfigGet()
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrAccountMissing
	}
	if cfg.Authority != caller {
		return errors.ErrUnauthorized
	}
	field, old, newVal, err := fn(cfg)
	if err != nil {
		return err
	}
	if err := m.state.ConfigPut(cfg); err != nil {
		return err
	}
	m.emitter.Emit(events.ConfigChanged{Caller: caller.String(), Field: field, Old: old, New: newVal})
	return nil
}

// Pause sets Config.paused = true.
func (m *Manager) Pause(caller crypto.Address) error {
	return m.mutate(caller, func(cfg *types.Config) (string, string, string, error) {
		cfg.Paused = true
		return "paused", "false", "true", nil
	})
}

// Unpause sets Config.paused = false.
func (m *Manager) Unpause(caller crypto.Address) error {
	return m.mutate(caller, func(cfg *types.Config) (string, string, string, error) {
		cfg.Paused = false
		return "paused", "true", "false", nil
	})
}

// UpdateFeeBps sets a new platform fee rate, capped at MaxPlatformFeeBps.
func (m *Manager) UpdateFeeBps(caller crypto.Address, newBps uint32) error {
	if newBps > types.MaxPlatformFeeBps {
		return errors.ErrInvalidFeeBps
	}
	return m.mutate(caller, func(cfg *types.Config) (string, string, string, error) {
		old := cfg.PlatformFeeBps
		cfg.PlatformFeeBps = newBps
		return "platform_fee_bps", uintToString(old), uintToString(newBps), nil
	})
}

// UpdateAuthorizationMode atomically swaps the mode and, when supplied, the
// signer key.
func (m *Manager) UpdateAuthorizationMode(caller crypto.Address, mode types.AuthorizationMode, signerKey *[32]byte) error {
	if !mode.Valid() {
		return errors.ErrUnauthorized
	}
	if mode.RequiresSignerKey() && signerKey == nil {
		return errors.ErrMissingSignature
	}
	return m.mutate(caller, func(cfg *types.Config) (string, string, string, error) {
		old := cfg.AuthorizationMode.String()
		cfg.AuthorizationMode = mode
		if signerKey != nil {
			cfg.TriggerSignerPubKey = *signerKey
			cfg.HasTriggerSignerKey = true
		}
		return "authorization_mode", old, mode.String(), nil
	})
}

// ProposeFeeDestination records a pending fee-destination change, gated by
// the 7-day timelock before it may be applied.
func (m *Manager) ProposeFeeDestination(caller crypto.Address, newAccount crypto.Address, now int64) error {
	err := m.mutate(caller, func(cfg *types.Config) (string, string, string, error) {
		cfg.PendingFeeDestination = &types.PendingFeeDestination{NewAccount: newAccount, ProposedAt: now}
		return "pending_fee_destination", cfg.FeeDestination.String(), newAccount.String(), nil
	})
	if err != nil {
		return err
	}
	m.emitter.Emit(events.FeeDestinationProposal{Caller: caller.String(), NewAccount: newAccount.String(), ProposedAt: now})
	return nil
}

// ApplyFeeDestination commits the pending change once the timelock has
// elapsed. Any caller may invoke it.
func (m *Manager) ApplyFeeDestination(now int64) error {
	m.state.Lock()
	defer m.state.Unlock()

	cfg, ok, err := m.state.ConfigGet()
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrAccountMissing
	}
	if cfg.PendingFeeDestination == nil {
		return errors.ErrNoPendingProposal
	}
	if now-cfg.PendingFeeDestination.ProposedAt < types.FeeDestinationTimelockSeconds {
		return errors.ErrTimelockNotElapsed
	}
	newAccount := cfg.PendingFeeDestination.NewAccount
	cfg.FeeDestination = newAccount
	cfg.PendingFeeDestination = nil
	if err := m.state.ConfigPut(cfg); err != nil {
		return err
	}
	m.emitter.Emit(events.FeeDestinationProposal{NewAccount: newAccount.String(), Applied: true})
	return nil
}

// CancelFeeDestination clears a pending proposal without applying it.
// Authority only.
func (m *Manager) CancelFeeDestination(caller crypto.Address) error {
	m.state.Lock()
	defer m.state.Unlock()

	cfg, ok, err := m.state.ConfigGet()
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrAccountMissing
	}
	if cfg.Authority != caller {
		return errors.ErrUnauthorized
	}
	if cfg.PendingFeeDestination == nil {
		return errors.ErrNoPendingProposal
	}
	cfg.PendingFeeDestination = nil
	if err := m.state.ConfigPut(cfg); err != nil {
		return err
	}
	m.emitter.Emit(events.FeeDestinationProposal{Caller: caller.String(), Cancelled: true})
	return nil
}

func uintToString(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
