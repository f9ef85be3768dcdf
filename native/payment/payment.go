// Package payment implements the opcode-0 payment processor: the
// nine-step precondition chain of spec section 4.4, the fee/merchant-amount
// split, escrow credit, counter advancement, and one-time finalization.
package payment

import (
	"go.uber.org/zap"

	"ouroc/core/arith"
	"ouroc/core/errors"
	"ouroc/core/events"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
	"ouroc/native/auth"
	"ouroc/native/delegation"
)

// Processor executes trigger-authorized payments against the account
// database.
type Processor struct {
	state      *state.Manager
	delegation *delegation.Manager
	verifier   *auth.Verifier
	emitter    events.Emitter
	log        *zap.Logger
}

// New constructs a payment processor.
func New(st *state.Manager, deleg *delegation.Manager, verifier *auth.Verifier, emitter events.Emitter, logger *zap.Logger) *Processor {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{state: st, delegation: deleg, verifier: verifier, emitter: emitter, log: logger}
}

// TriggerInput carries the inputs to process_trigger for opcode 0.
type TriggerInput struct {
	ID        string
	Now       int64
	Timestamp int64
	Signature *crypto.Signature
	Caller    crypto.Address
}

// Result summarizes a successfully processed payment.
type Result struct {
	Fee             uint64
	MerchantAmount  uint64
	PaymentsMade    uint64
	NextPaymentTime int64
}

// Process runs the full precondition chain and, on success, atomically
// pulls one payment, splits it, credits escrow, and advances the
// subscription's counters. Any failure leaves every counter and balance
// untouched.
func (p *Processor) Process(in TriggerInput) (*Result, error) {
	p.state.Lock()
	defer p.state.Unlock()

	cfg, ok, err := p.state.ConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrAccountMissing
	}
	// Step 1: global pause.
	if cfg.Paused {
		return nil, errors.ErrPaused
	}

	sub, ok, err := p.state.SubscriptionGet(in.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrAccountMissing
	}

	// Step 2: authorization.
	if err := p.verifier.Check(cfg, auth.Request{
		Opcode:    0,
		ID:        in.ID,
		Now:       in.Now,
		Timestamp: in.Timestamp,
		Signature: in.Signature,
		Caller:    in.Caller,
		Sub:       sub,
	}); err != nil {
		return nil, err
	}

	// Step 7: replay guard, checked right after authorization so that a
	// resubmitted trigger is reported as a replay rather than as not due or
	// rate limited. Checked but not yet persisted: the marker is only
	// written once every later precondition (delegation, balance) has also
	// passed, so a failed trigger leaves no trace for a retry.
	seen, err := p.state.ReplaySeen(in.ID, in.Timestamp)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, errors.ErrReplayDetected
	}

	// Step 3: subscription must be active.
	switch sub.Status {
	case types.StatusPaused:
		return nil, errors.ErrSubscriptionPaused
	case types.StatusCancelled:
		return nil, errors.ErrSubscriptionCancelled
	}

	// Step 4: due-ness, recurring subscriptions only.
	if !sub.IsOneTime() {
		if in.Now < sub.NextPaymentTime-p.verifier.SkewSeconds() {
			return nil, errors.ErrNotDue
		}
	}

	// Step 5: rate limit, with interval-window reset.
	if in.Now >= sub.IntervalResetTime {
		sub.PaymentsThisInterval = 0
		if sub.IsOneTime() {
			sub.IntervalResetTime = in.Now
		} else {
			sub.IntervalResetTime = in.Now + sub.IntervalSeconds
		}
	}
	maxPerInterval := sub.MaxPaymentsPerInterval()
	if sub.PaymentsThisInterval+1 > maxPerInterval {
		return nil, errors.ErrRateLimitExceeded
	}

	// Step 6: A2A spending gate. The effective spender is the agent wallet,
	// not the subscriber; its cumulative spend this interval plus the
	// pending amount must stay within the configured cap.
	if sub.Agent != nil && sub.Agent.IsAgentSubscription {
		spent, err := arith.Mul(sub.PaymentsThisInterval, sub.Amount)
		if err != nil {
			return nil, err
		}
		projected, err := arith.Add(spent, sub.Amount)
		if err != nil {
			return nil, err
		}
		if projected > sub.Agent.MaxPaymentPerInterval {
			return nil, errors.ErrSpendingLimitExceeded
		}
	}

	// Fee split, checked arithmetic throughout (spec section 9).
	fee, err := arith.MulDivFloor(sub.Amount, uint64(cfg.PlatformFeeBps), 10_000)
	if err != nil {
		return nil, err
	}
	merchantAmount, err := arith.Sub(sub.Amount, fee)
	if err != nil {
		return nil, err
	}

	// Steps 8-9 (delegation + balance) enforced inside Spend.
	authority := state.SubscriptionAuthority(in.ID)
	if err := p.delegation.Spend(sub.Subscriber, sub.PaymentTokenMint, authority, sub.Amount); err != nil {
		return nil, err
	}

	if err := p.state.ReplayMark(in.ID, in.Timestamp); err != nil {
		return nil, err
	}

	escrowBalance, err := p.state.EscrowVaultGet(in.ID, sub.PaymentTokenMint)
	if err != nil {
		return nil, err
	}
	escrowBalance, err = arith.Add(escrowBalance, merchantAmount)
	if err != nil {
		return nil, err
	}
	if err := p.state.EscrowVaultPut(in.ID, sub.PaymentTokenMint, escrowBalance); err != nil {
		return nil, err
	}

	if fee > 0 {
		feeAccount, err := p.state.TokenAccountGet(cfg.FeeDestination, sub.PaymentTokenMint)
		if err != nil {
			return nil, err
		}
		feeAccount.Balance, err = arith.Add(feeAccount.Balance, fee)
		if err != nil {
			return nil, err
		}
		if err := p.state.TokenAccountPut(cfg.FeeDestination, sub.PaymentTokenMint, feeAccount); err != nil {
			return nil, err
		}
	}

	sub.PaymentsMade, err = arith.Add(sub.PaymentsMade, 1)
	if err != nil {
		return nil, err
	}
	sub.TotalPaid, err = arith.Add(sub.TotalPaid, sub.Amount)
	if err != nil {
		return nil, err
	}
	sub.EscrowBalance, err = arith.Add(sub.EscrowBalance, merchantAmount)
	if err != nil {
		return nil, err
	}
	sub.PaymentsThisInterval++
	sub.LastPaymentTime = in.Now

	if sub.IsOneTime() {
		sub.Status = types.StatusCancelled
	} else {
		sub.NextPaymentTime += sub.IntervalSeconds
	}

	if err := p.state.SubscriptionPut(sub); err != nil {
		return nil, err
	}

	p.log.Info("payment processed",
		zap.String("id", in.ID),
		zap.Uint64("fee", fee),
		zap.Uint64("merchantAmount", merchantAmount),
		zap.Uint64("paymentsMade", sub.PaymentsMade),
	)
	p.emitter.Emit(events.PaymentProcessed{
		ID:              in.ID,
		Subscriber:      sub.Subscriber.String(),
		Merchant:        sub.Merchant.String(),
		Fee:             fee,
		MerchantAmount:  merchantAmount,
		PaymentsMade:    sub.PaymentsMade,
		NextPaymentTime: sub.NextPaymentTime,
	})

	return &Result{
		Fee:             fee,
		MerchantAmount:  merchantAmount,
		PaymentsMade:    sub.PaymentsMade,
		NextPaymentTime: sub.NextPaymentTime,
	}, nil
}
