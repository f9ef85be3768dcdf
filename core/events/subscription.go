package events

import "ouroc/core/types"

// Event type tags for the subscription and escrow core. The ops in
// native/* that mutate state report through these: most emit one event,
// subscription creation emits DelegationApproved and SubscriptionCreated,
// a fee-destination proposal emits ConfigChanged and
// FeeDestinationProposed, and config initialization emits none.
const (
	TypeSubscriptionCreated     = "subscription.created"
	TypeDelegationApproved      = "subscription.delegation.approved"
	TypeDelegationRevoked       = "subscription.delegation.revoked"
	TypePaymentProcessed        = "subscription.payment.processed"
	TypeNotificationEmitted     = "subscription.notification.emitted"
	TypeEscrowClaimed           = "subscription.escrow.claimed"
	TypeSubscriptionPaused      = "subscription.paused"
	TypeSubscriptionResumed     = "subscription.resumed"
	TypeSubscriptionCancelled   = "subscription.cancelled"
	TypeConfigChanged           = "config.changed"
	TypeFeeDestinationProposed  = "config.fee_destination.proposed"
	TypeFeeDestinationApplied   = "config.fee_destination.applied"
	TypeFeeDestinationCancelled = "config.fee_destination.cancelled"
)

// SubscriptionCreated is emitted once a subscription record and its
// delegation are created atomically.
type SubscriptionCreated struct {
	ID               string
	Subscriber       string
	Merchant         string
	PaymentTokenMint string
	Amount           uint64
	IntervalSeconds  int64
	DelegationCap    uint64
}

func (SubscriptionCreated) EventType() string { return TypeSubscriptionCreated }

// DelegationApproved is emitted by both initial creation and top-up.
type DelegationApproved struct {
	ID         string
	Subscriber string
	Cap        uint64
}

func (DelegationApproved) EventType() string { return TypeDelegationApproved }

// DelegationRevoked is emitted when the subscriber removes the PDA's
// spending allowance.
type DelegationRevoked struct {
	ID         string
	Subscriber string
}

func (DelegationRevoked) EventType() string { return TypeDelegationRevoked }

// PaymentProcessed is emitted after a successful opcode-0 trigger.
type PaymentProcessed struct {
	ID              string
	Subscriber      string
	Merchant        string
	Fee             uint64
	MerchantAmount  uint64
	PaymentsMade    uint64
	NextPaymentTime int64
}

func (PaymentProcessed) EventType() string { return TypePaymentProcessed }

// NotificationEmitted is emitted after an opcode-1 trigger regardless of the
// subscription's funding state.
type NotificationEmitted struct {
	ID         string
	Subscriber string
	DaysBefore int64
	Memo       string
}

func (NotificationEmitted) EventType() string { return TypeNotificationEmitted }

// EscrowClaimed is emitted after a merchant withdraws from the escrow
// token account.
type EscrowClaimed struct {
	ID              string
	Merchant        string
	Amount          uint64
	RemainingEscrow uint64
}

func (EscrowClaimed) EventType() string { return TypeEscrowClaimed }

// SubscriptionLifecycle is emitted for pause, resume, and cancel.
type SubscriptionLifecycle struct {
	ID     string
	Caller string
	Status types.SubscriptionStatus
}

func (e SubscriptionLifecycle) EventType() string {
	switch e.Status {
	case types.StatusPaused:
		return TypeSubscriptionPaused
	case types.StatusCancelled:
		return TypeSubscriptionCancelled
	default:
		return TypeSubscriptionResumed
	}
}

// ConfigChanged captures an admin mutation of the Config singleton.
type ConfigChanged struct {
	Caller string
	Field  string
	Old    string
	New    string
}

func (ConfigChanged) EventType() string { return TypeConfigChanged }

// FeeDestinationProposal captures the propose/apply/cancel transitions of
// the 7-day timelocked fee-destination change.
type FeeDestinationProposal struct {
	Caller     string
	NewAccount string
	ProposedAt int64
	Applied    bool
	Cancelled  bool
}

func (e FeeDestinationProposal) EventType() string {
	switch {
	case e.Applied:
		return TypeFeeDestinationApplied
	case e.Cancelled:
		return TypeFeeDestinationCancelled
	default:
		return TypeFeeDestinationProposed
	}
}
