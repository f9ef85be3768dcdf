// Package escrow implements the merchant-only claim operation against a
// subscription's per-subscription escrow token account (spec section 4.6).
package escrow

import (
	"go.uber.org/zap"

	"ouroc/core/errors"
	"ouroc/core/events"
	"ouroc/core/state"
	"ouroc/crypto"
)

// Engine wires the escrow claim logic with account state and event
// emission.
type Engine struct {
	state   *state.Manager
	emitter events.Emitter
	log     *zap.Logger
}

// NewEngine creates an escrow engine backed by the supplied account
// database with a no-op emitter. Callers override the emitter via
// SetEmitter.
func NewEngine(st *state.Manager) *Engine {
	return &Engine{state: st, emitter: events.NoopEmitter{}, log: zap.NewNop()}
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger configures the structured logger used by the engine.
func (e *Engine) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.log = logger
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

// Claim withdraws amount from the subscription's escrow token account to
// the merchant's token account. Callable only by subscription.merchant;
// permitted regardless of subscription status, since a cancelled
// subscription may still hold earned, unclaimed funds.
func (e *Engine) Claim(id string, caller crypto.Address, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, errors.ErrInvalidAmount
	}

	e.state.Lock()
	defer e.state.Unlock()

	sub, ok, err := e.state.SubscriptionGet(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.ErrAccountMissing
	}
	if sub.Merchant != caller {
		return 0, errors.ErrUnauthorized
	}
	if amount > sub.EscrowBalance {
		return 0, errors.ErrInsufficientEscrow
	}

	vaultBalance, err := e.state.EscrowVaultGet(id, sub.PaymentTokenMint)
	if err != nil {
		return 0, err
	}
	if amount > vaultBalance {
		return 0, errors.ErrInsufficientEscrow
	}

	merchantAccount, err := e.state.TokenAccountGet(sub.Merchant, sub.PaymentTokenMint)
	if err != nil {
		return 0, err
	}
	merchantAccount.Balance += amount
	if err := e.state.TokenAccountPut(sub.Merchant, sub.PaymentTokenMint, merchantAccount); err != nil {
		return 0, err
	}

	if err := e.state.EscrowVaultPut(id, sub.PaymentTokenMint, vaultBalance-amount); err != nil {
		return 0, err
	}
	sub.EscrowBalance -= amount
	if err := e.state.SubscriptionPut(sub); err != nil {
		return 0, err
	}

	e.log.Info("escrow claimed",
		zap.String("id", id),
		zap.String("merchant", caller.String()),
		zap.Uint64("amount", amount),
	)
	e.emit(events.EscrowClaimed{
		ID:              id,
		Merchant:        caller.String(),
		Amount:          amount,
		RemainingEscrow: sub.EscrowBalance,
	})
	return sub.EscrowBalance, nil
}
