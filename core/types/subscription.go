package types

import "ouroc/crypto"

// SubscriptionStatus enumerates the lifecycle states of a subscription.
type SubscriptionStatus uint8

const (
	StatusActive SubscriptionStatus = iota
	StatusPaused
	StatusCancelled
)

// Valid reports whether the status is one of the three supported states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled:
		return true
	default:
		return false
	}
}

// String renders the status for logs and events.
func (s SubscriptionStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// OneTimeInterval is the sentinel interval value denoting a single,
// self-finalizing payment.
const OneTimeInterval int64 = -1

// Protocol-wide interval bounds. MinIntervalSeconds keeps the 10-second
// demo floor the source exposes. The subscription engine reads this
// constant directly and takes no floor of its own, so a stricter floor
// means changing the constant.
const (
	MinIntervalSeconds int64 = 10
	MaxIntervalSeconds int64 = 365 * 86400
	YearSeconds        int64 = 365 * 86400
)

// MaxApprovalAmount is the platform-defined ceiling on any single delegation
// allowance, expressed in base units of the paid token. The spec names
// this "~1,000,000 base units," a figure that is already smaller than a
// single payment in its own worked examples (a $10 monthly subscription at
// 6-decimal precision is 10,000,000 base units); DESIGN.md records this as
// a resolved ambiguity and scales the ceiling up accordingly so a year of
// ordinary subscription amounts fits under it.
const MaxApprovalAmount uint64 = 1_000_000_000_000

// Reminder window bounds, in days.
const (
	MinReminderDays = 1
	MaxReminderDays = 30
)

// AgentMetadata captures the optional A2A (agent-to-agent) fields set at
// subscription creation.
type AgentMetadata struct {
	IsAgentSubscription    bool
	AgentWallet            crypto.Address
	AuthorizedOwner        crypto.Address
	MaxPaymentPerInterval  uint64
}

// Clone returns a copy of the metadata block.
func (a *AgentMetadata) Clone() *AgentMetadata {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// Subscription is the per-subscription state machine and bookkeeping
// record described in spec section 3. Amounts are expressed in base units
// of PaymentTokenMint.
type Subscription struct {
	ID                      string
	Subscriber              crypto.Address
	Merchant                crypto.Address
	MerchantName            string
	PaymentTokenMint        crypto.Address
	Amount                  uint64
	IntervalSeconds         int64
	ReminderDaysBeforePayment uint32

	NextPaymentTime  int64
	LastPaymentTime  int64
	PaymentsMade     uint64
	TotalPaid        uint64
	EscrowBalance    uint64

	PaymentsThisInterval uint64
	IntervalResetTime    int64

	Status SubscriptionStatus

	Agent *AgentMetadata

	CreatedAt int64
}

// IsOneTime reports whether the subscription finalizes after a single
// payment.
func (s *Subscription) IsOneTime() bool {
	return s.IntervalSeconds == OneTimeInterval
}

// MaxPaymentsPerInterval resolves the rate-limit ceiling for the
// subscription: 1 for plain subscriptions, or the ceiling implied by the
// A2A spending cap when one is configured.
func (s *Subscription) MaxPaymentsPerInterval() uint64 {
	if s.Agent == nil || !s.Agent.IsAgentSubscription || s.Amount == 0 {
		return 1
	}
	ceiling := s.Agent.MaxPaymentPerInterval
	if ceiling == 0 {
		return 1
	}
	limit := ceiling / s.Amount
	if ceiling%s.Amount != 0 {
		limit++
	}
	if limit == 0 {
		limit = 1
	}
	return limit
}

// Clone returns a deep copy of the subscription record.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Agent = s.Agent.Clone()
	return &clone
}
