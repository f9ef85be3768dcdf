// Package subscription implements subscription creation and the lifecycle
// ops (pause, resume, cancel) described in spec sections 4.2 and 4.9.
package subscription

import (
	"go.uber.org/zap"

	"ouroc/core/errors"
	"ouroc/core/events"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
	"ouroc/native/delegation"
)

// Manager wires the account database, the delegation manager, and event
// emission for every op that creates or transitions a subscription.
type Manager struct {
	state      *state.Manager
	delegation *delegation.Manager
	emitter    events.Emitter
	log        *zap.Logger
}

// New constructs a subscription manager.
func New(st *state.Manager, deleg *delegation.Manager, emitter events.Emitter, logger *zap.Logger) *Manager {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{state: st, delegation: deleg, emitter: emitter, log: logger}
}

// CreateInput carries the caller-supplied fields for create_subscription.
type CreateInput struct {
	ID                        string
	Subscriber                crypto.Address
	Merchant                  crypto.Address
	MerchantName              string
	PaymentTokenMint          crypto.Address
	Amount                    uint64
	IntervalSeconds           int64
	ReminderDaysBeforePayment uint32
	Agent                     *types.AgentMetadata
	Signature                 *crypto.Signature
	Now                       int64
}

func validateCreate(in CreateInput) error {
	if in.Amount == 0 {
		return errors.ErrInvalidAmount
	}
	if in.IntervalSeconds != types.OneTimeInterval {
		if in.IntervalSeconds < types.MinIntervalSeconds || in.IntervalSeconds > types.MaxIntervalSeconds {
			return errors.ErrInvalidInterval
		}
	}
	if in.ReminderDaysBeforePayment < types.MinReminderDays || in.ReminderDaysBeforePayment > types.MaxReminderDays {
		return errors.ErrInvalidReminderDays
	}
	if in.Agent != nil && in.Agent.IsAgentSubscription {
		if in.Agent.AgentWallet.IsZero() || in.Agent.AuthorizedOwner.IsZero() {
			return errors.ErrUnauthorizedAgent
		}
		if in.Agent.MaxPaymentPerInterval < in.Amount {
			return errors.ErrUnauthorizedAgent
		}
	}
	return nil
}

// Create validates the input, atomically writes the subscription record
// and its delegation, and bumps Config.total_subscriptions. It fails with
// AccountAlreadyExists if id is already taken, leaving no state changed.
func (m *Manager) Create(in CreateInput) (*types.Subscription, error) {
	id, err := SanitizeID(in.ID)
	if err != nil {
		return nil, err
	}
	name, err := SanitizeMerchantName(in.MerchantName)
	if err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	m.state.Lock()
	defer m.state.Unlock()

	exists, err := m.state.SubscriptionExists(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.ErrAccountAlreadyExists
	}

	cfg, ok, err := m.state.ConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrAccountMissing
	}

	if cfg.AuthorizationMode.RequiresSignerKey() {
		if !cfg.HasTriggerSignerKey {
			return nil, errors.ErrUnauthorized
		}
		if in.Signature == nil {
			return nil, errors.ErrMissingSignature
		}
		payload := crypto.CreationPayload(id, in.Subscriber, in.Merchant, in.Amount, in.IntervalSeconds, in.PaymentTokenMint)
		if !crypto.VerifyEd25519(cfg.TriggerSignerPubKey, payload, *in.Signature) {
			return nil, errors.ErrInvalidSignature
		}
	}

	delegationCap, err := delegation.InitialCap(in.Amount, in.IntervalSeconds)
	if err != nil {
		return nil, err
	}

	nextPayment := int64(0)
	if in.IntervalSeconds != types.OneTimeInterval {
		nextPayment = in.Now + in.IntervalSeconds
	}

	sub := &types.Subscription{
		ID:                        id,
		Subscriber:                in.Subscriber,
		Merchant:                  in.Merchant,
		MerchantName:              name,
		PaymentTokenMint:          in.PaymentTokenMint,
		Amount:                    in.Amount,
		IntervalSeconds:           in.IntervalSeconds,
		ReminderDaysBeforePayment: in.ReminderDaysBeforePayment,
		NextPaymentTime:           nextPayment,
		IntervalResetTime:         in.Now,
		Status:                    types.StatusActive,
		Agent:                     in.Agent.Clone(),
		CreatedAt:                 in.Now,
	}

	if err := m.delegation.Approve(id, in.Subscriber, in.PaymentTokenMint, delegationCap); err != nil {
		return nil, err
	}
	if err := m.state.SubscriptionPut(sub); err != nil {
		return nil, err
	}

	cfg.TotalSubscriptions++
	if err := m.state.ConfigPut(cfg); err != nil {
		return nil, err
	}

	m.log.Info("subscription created",
		zap.String("id", id),
		zap.String("subscriber", in.Subscriber.String()),
		zap.Uint64("amount", in.Amount),
		zap.Int64("intervalSeconds", in.IntervalSeconds),
	)
	m.emitter.Emit(events.SubscriptionCreated{
		ID:               id,
		Subscriber:       in.Subscriber.String(),
		Merchant:         in.Merchant.String(),
		PaymentTokenMint: in.PaymentTokenMint.String(),
		Amount:           in.Amount,
		IntervalSeconds:  in.IntervalSeconds,
		DelegationCap:    delegationCap,
	})
	return sub, nil
}

func (m *Manager) transition(id string, caller crypto.Address, target types.SubscriptionStatus) (*types.Subscription, error) {
	m.state.Lock()
	defer m.state.Unlock()

	sub, ok, err := m.state.SubscriptionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrAccountMissing
	}
	if sub.Subscriber != caller {
		return nil, errors.ErrUnauthorized
	}
	if sub.Status == types.StatusCancelled {
		return nil, errors.ErrSubscriptionCancelled
	}
	sub.Status = target
	if err := m.state.SubscriptionPut(sub); err != nil {
		return nil, err
	}
	m.emitter.Emit(events.SubscriptionLifecycle{ID: id, Caller: caller.String(), Status: target})
	return sub, nil
}

// Pause transitions Active -> Paused. Subscriber only.
func (m *Manager) Pause(id string, caller crypto.Address) (*types.Subscription, error) {
	return m.transition(id, caller, types.StatusPaused)
}

// Resume transitions Paused -> Active. Subscriber only.
func (m *Manager) Resume(id string, caller crypto.Address) (*types.Subscription, error) {
	return m.transition(id, caller, types.StatusActive)
}

// Cancel transitions Active|Paused -> Cancelled. It does not revoke the
// delegation or drain escrow; the subscriber is expected to call revoke
// separately and the merchant retains claim rights (spec section 4.9).
func (m *Manager) Cancel(id string, caller crypto.Address) (*types.Subscription, error) {
	return m.transition(id, caller, types.StatusCancelled)
}
