// Package delegation manages the bounded, revocable SPL-token-style
// allowance a subscriber grants to a subscription's program-derived
// authority: computing the initial one-year cap, approving top-ups, and
// revoking.
package delegation

import (
	"go.uber.org/zap"

	"ouroc/core/errors"
	"ouroc/core/events"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
)

// Manager wires the account database with the event emitter every
// delegation operation reports through.
type Manager struct {
	state   *state.Manager
	emitter events.Emitter
	log     *zap.Logger
}

// New constructs a delegation manager. A nil emitter or logger is replaced
// with a no-op implementation.
func New(st *state.Manager, emitter events.Emitter, logger *zap.Logger) *Manager {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{state: st, emitter: emitter, log: logger}
}

// InitialCap computes the one-year delegation cap for a newly created
// subscription per spec section 4.2: a one-time subscription needs only
// its single payment; a recurring one needs enough slots to cover a year,
// plus one, clamped at the platform ceiling.
func InitialCap(amount uint64, intervalSeconds int64) (uint64, error) {
	if amount == 0 {
		return 0, errors.ErrInvalidAmount
	}
	if intervalSeconds == types.OneTimeInterval {
		return clamp(amount), nil
	}
	if intervalSeconds <= 0 {
		return 0, errors.ErrInvalidInterval
	}
	slots := uint64(types.YearSeconds/intervalSeconds) + 1
	total, err := checkedMul(amount, slots)
	if err != nil {
		return 0, err
	}
	return clamp(total), nil
}

func clamp(amount uint64) uint64 {
	if amount > types.MaxApprovalAmount {
		return types.MaxApprovalAmount
	}
	return amount
}

func checkedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, errors.ErrMathOverflow
	}
	return product, nil
}

// Approve sets the subscription PDA as the delegate of the subscriber's
// token account with the supplied allowance, overwriting any prior
// delegation. Used both by subscription creation and by the standalone
// approve_subscription_delegate entrypoint (top-up).
func (m *Manager) Approve(id string, subscriber, mint crypto.Address, cap uint64) error {
	if cap > types.MaxApprovalAmount {
		return errors.ErrInvalidAmount
	}
	authority := state.SubscriptionAuthority(id)
	account, err := m.state.TokenAccountGet(subscriber, mint)
	if err != nil {
		return err
	}
	account.HasDelegate = true
	account.Delegate = authority
	account.DelegatedAmount = cap
	if err := m.state.TokenAccountPut(subscriber, mint, account); err != nil {
		return err
	}
	m.log.Info("delegation approved",
		zap.String("id", id),
		zap.String("subscriber", subscriber.String()),
		zap.Uint64("cap", cap),
	)
	m.emitter.Emit(events.DelegationApproved{ID: id, Subscriber: subscriber.String(), Cap: cap})
	return nil
}

// Revoke removes the subscriber's delegation to the subscription PDA.
// Subsequent payment triggers fail with InsufficientDelegation until the
// subscriber approves again; the subscription itself is untouched.
func (m *Manager) Revoke(id string, subscriber, mint crypto.Address) error {
	account, err := m.state.TokenAccountGet(subscriber, mint)
	if err != nil {
		return err
	}
	account.HasDelegate = false
	account.Delegate = crypto.Address{}
	account.DelegatedAmount = 0
	if err := m.state.TokenAccountPut(subscriber, mint, account); err != nil {
		return err
	}
	m.log.Info("delegation revoked",
		zap.String("id", id),
		zap.String("subscriber", subscriber.String()),
	)
	m.emitter.Emit(events.DelegationRevoked{ID: id, Subscriber: subscriber.String()})
	return nil
}

// Spend atomically decrements the remaining allowance by amount, the
// delegate-transfer semantics the payment processor relies on to prevent
// double-spend of a delegation (spec section 5). It fails without mutating
// state if the subscription PDA is not the account's delegate or the
// remaining allowance is insufficient.
func (m *Manager) Spend(subscriber, mint crypto.Address, authority crypto.Address, amount uint64) error {
	account, err := m.state.TokenAccountGet(subscriber, mint)
	if err != nil {
		return err
	}
	if !account.HasDelegate || account.Delegate != authority {
		return errors.ErrInsufficientDelegation
	}
	if account.DelegatedAmount < amount {
		return errors.ErrInsufficientDelegation
	}
	if account.Balance < amount {
		return errors.ErrInsufficientBalance
	}
	account.DelegatedAmount -= amount
	account.Balance -= amount
	return m.state.TokenAccountPut(subscriber, mint, account)
}
