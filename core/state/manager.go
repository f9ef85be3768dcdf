// Package state implements the account database for the subscription and
// escrow core. It follows the teacher's storage idiom: a go-ethereum trie
// wraps a pluggable key-value store, keys are derived by hashing a
// namespace prefix with keccak256, and values are RLP-encoded DTOs that
// translate cleanly to and from the domain types in core/types.
package state

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"ouroc/core/types"
	"ouroc/crypto"
	"ouroc/storage/trie"
)

var (
	configKey              = ethcrypto.Keccak256([]byte("config"))
	subscriptionPrefix     = []byte("subscription/record/")
	tokenAccountPrefix     = []byte("subscription/token-account/")
	escrowVaultPrefix      = []byte("subscription/escrow-vault/")
	replayMarkerPrefix     = []byte("subscription/replay/")
	subscriptionModuleSeed = "module/subscription/authority/"
)

// Manager is the account database used by every native operation. A single
// manager instance is shared by all packages under native/*; callers hold
// its lock for the full duration of an operation so that, per spec
// section 5, every state transition is observably atomic.
type Manager struct {
	mu   sync.Mutex
	trie *trie.Trie
}

// NewManager wraps the supplied trie in a Manager.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Lock and Unlock expose the manager's mutex so a native operation can hold
// it across its full read-modify-write sequence, the Go-level analogue of
// the runtime's per-account transactional serialization (spec section 5).
func (m *Manager) Lock()   { m.mu.Lock() }
func (m *Manager) Unlock() { m.mu.Unlock() }

func (m *Manager) kvGet(key []byte, out interface{}) (bool, error) {
	data, err := m.trie.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %x: %w", key, err)
	}
	return true, nil
}

func (m *Manager) kvPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %x: %w", key, err)
	}
	return m.trie.Update(key, encoded)
}

// --- Config -----------------------------------------------------------

// RLP cannot encode signed integers, so every timestamp in these DTOs is
// stored as *big.Int, the teacher's convention (see storedEscrow.Deadline
// in the original core/state/manager.go) for persisting clock values.
type storedPendingFeeDestination struct {
	NewAccount [32]byte
	ProposedAt *big.Int
}

type storedConfig struct {
	Authority           [32]byte
	AuthorizationMode   uint8
	TriggerSignerPubKey [32]byte
	HasTriggerSignerKey bool
	PlatformFeeBps      uint32
	FeeDestination      [32]byte
	HasPending          bool
	Pending             storedPendingFeeDestination
	Paused              bool
	TotalSubscriptions  uint64
}

func newStoredConfig(c *types.Config) *storedConfig {
	out := &storedConfig{
		Authority:           c.Authority,
		AuthorizationMode:   uint8(c.AuthorizationMode),
		TriggerSignerPubKey: c.TriggerSignerPubKey,
		HasTriggerSignerKey: c.HasTriggerSignerKey,
		PlatformFeeBps:      c.PlatformFeeBps,
		FeeDestination:      c.FeeDestination,
		Paused:              c.Paused,
		TotalSubscriptions:  c.TotalSubscriptions,
	}
	if c.PendingFeeDestination != nil {
		out.HasPending = true
		out.Pending = storedPendingFeeDestination{
			NewAccount: c.PendingFeeDestination.NewAccount,
			ProposedAt: big.NewInt(c.PendingFeeDestination.ProposedAt),
		}
	}
	return out
}

func (s *storedConfig) toConfig() *types.Config {
	cfg := &types.Config{
		Authority:           s.Authority,
		AuthorizationMode:   types.AuthorizationMode(s.AuthorizationMode),
		TriggerSignerPubKey: s.TriggerSignerPubKey,
		HasTriggerSignerKey: s.HasTriggerSignerKey,
		PlatformFeeBps:      s.PlatformFeeBps,
		FeeDestination:      s.FeeDestination,
		Paused:              s.Paused,
		TotalSubscriptions:  s.TotalSubscriptions,
	}
	if s.HasPending {
		proposedAt := int64(0)
		if s.Pending.ProposedAt != nil {
			proposedAt = s.Pending.ProposedAt.Int64()
		}
		cfg.PendingFeeDestination = &types.PendingFeeDestination{
			NewAccount: s.Pending.NewAccount,
			ProposedAt: proposedAt,
		}
	}
	return cfg
}

// ConfigPut persists the singleton Config record.
func (m *Manager) ConfigPut(c *types.Config) error {
	if c == nil {
		return fmt.Errorf("state: nil config")
	}
	return m.kvPut(configKey, newStoredConfig(c))
}

// ConfigGet retrieves the singleton Config record if initialized.
func (m *Manager) ConfigGet() (*types.Config, bool, error) {
	var stored storedConfig
	ok, err := m.kvGet(configKey, &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stored.toConfig(), true, nil
}

// --- Subscription -------------------------------------------------------

func subscriptionKey(id string) []byte {
	buf := make([]byte, len(subscriptionPrefix)+len(id))
	copy(buf, subscriptionPrefix)
	copy(buf[len(subscriptionPrefix):], id)
	return ethcrypto.Keccak256(buf)
}

type storedAgentMetadata struct {
	IsAgentSubscription   bool
	AgentWallet           [32]byte
	AuthorizedOwner       [32]byte
	MaxPaymentPerInterval uint64
}

// storedSubscription keeps IntervalSeconds as the two's-complement bit
// pattern of the signed interval: RLP rejects a negative *big.Int, and the
// one-time sentinel is -1.
type storedSubscription struct {
	ID                        string
	Subscriber                [32]byte
	Merchant                  [32]byte
	MerchantName              string
	PaymentTokenMint          [32]byte
	Amount                    uint64
	IntervalSeconds           uint64
	ReminderDaysBeforePayment uint32
	NextPaymentTime           *big.Int
	LastPaymentTime           *big.Int
	PaymentsMade              uint64
	TotalPaid                 uint64
	EscrowBalance             uint64
	PaymentsThisInterval      uint64
	IntervalResetTime         *big.Int
	Status                    uint8
	HasAgent                  bool
	Agent                     storedAgentMetadata
	CreatedAt                 *big.Int
}

func newStoredSubscription(s *types.Subscription) *storedSubscription {
	out := &storedSubscription{
		ID:                        s.ID,
		Subscriber:                s.Subscriber,
		Merchant:                  s.Merchant,
		MerchantName:              s.MerchantName,
		PaymentTokenMint:          s.PaymentTokenMint,
		Amount:                    s.Amount,
		IntervalSeconds:           uint64(s.IntervalSeconds),
		ReminderDaysBeforePayment: s.ReminderDaysBeforePayment,
		NextPaymentTime:           big.NewInt(s.NextPaymentTime),
		LastPaymentTime:           big.NewInt(s.LastPaymentTime),
		PaymentsMade:              s.PaymentsMade,
		TotalPaid:                 s.TotalPaid,
		EscrowBalance:             s.EscrowBalance,
		PaymentsThisInterval:      s.PaymentsThisInterval,
		IntervalResetTime:         big.NewInt(s.IntervalResetTime),
		Status:                    uint8(s.Status),
		CreatedAt:                 big.NewInt(s.CreatedAt),
	}
	if s.Agent != nil {
		out.HasAgent = true
		out.Agent = storedAgentMetadata{
			IsAgentSubscription:   s.Agent.IsAgentSubscription,
			AgentWallet:           s.Agent.AgentWallet,
			AuthorizedOwner:       s.Agent.AuthorizedOwner,
			MaxPaymentPerInterval: s.Agent.MaxPaymentPerInterval,
		}
	}
	return out
}

func bigToInt64(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

func (s *storedSubscription) toSubscription() *types.Subscription {
	out := &types.Subscription{
		ID:                        s.ID,
		Subscriber:                s.Subscriber,
		Merchant:                  s.Merchant,
		MerchantName:              s.MerchantName,
		PaymentTokenMint:          s.PaymentTokenMint,
		Amount:                    s.Amount,
		IntervalSeconds:           int64(s.IntervalSeconds),
		ReminderDaysBeforePayment: s.ReminderDaysBeforePayment,
		NextPaymentTime:           bigToInt64(s.NextPaymentTime),
		LastPaymentTime:           bigToInt64(s.LastPaymentTime),
		PaymentsMade:              s.PaymentsMade,
		TotalPaid:                 s.TotalPaid,
		EscrowBalance:             s.EscrowBalance,
		PaymentsThisInterval:      s.PaymentsThisInterval,
		IntervalResetTime:         bigToInt64(s.IntervalResetTime),
		Status:                    types.SubscriptionStatus(s.Status),
		CreatedAt:                 bigToInt64(s.CreatedAt),
	}
	if s.HasAgent {
		out.Agent = &types.AgentMetadata{
			IsAgentSubscription:   s.Agent.IsAgentSubscription,
			AgentWallet:           s.Agent.AgentWallet,
			AuthorizedOwner:       s.Agent.AuthorizedOwner,
			MaxPaymentPerInterval: s.Agent.MaxPaymentPerInterval,
		}
	}
	return out
}

// SubscriptionExists reports whether an id is already taken, used by
// create_subscription to reject re-creation (AccountAlreadyExists).
func (m *Manager) SubscriptionExists(id string) (bool, error) {
	data, err := m.trie.Get(subscriptionKey(id))
	if err != nil {
		return false, err
	}
	return len(data) > 0, nil
}

// SubscriptionPut persists a subscription record.
func (m *Manager) SubscriptionPut(s *types.Subscription) error {
	if s == nil {
		return fmt.Errorf("state: nil subscription")
	}
	return m.kvPut(subscriptionKey(s.ID), newStoredSubscription(s))
}

// SubscriptionGet retrieves a subscription record by id.
func (m *Manager) SubscriptionGet(id string) (*types.Subscription, bool, error) {
	var stored storedSubscription
	ok, err := m.kvGet(subscriptionKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stored.toSubscription(), true, nil
}

// --- Token accounts -------------------------------------------------------

// TokenAccount models the SPL-token-style account the subscriber pays
// from: a balance plus at most one outstanding delegate and its remaining
// allowance. One TokenAccount exists per (owner, mint) pair.
type TokenAccount struct {
	Balance           uint64
	HasDelegate       bool
	Delegate          crypto.Address
	DelegatedAmount   uint64
}

type storedTokenAccount struct {
	Balance         uint64
	HasDelegate     bool
	Delegate        [32]byte
	DelegatedAmount uint64
}

func tokenAccountKey(owner, mint crypto.Address) []byte {
	buf := make([]byte, 0, len(tokenAccountPrefix)+64)
	buf = append(buf, tokenAccountPrefix...)
	buf = append(buf, owner[:]...)
	buf = append(buf, mint[:]...)
	return ethcrypto.Keccak256(buf)
}

// TokenAccountGet retrieves the token account for (owner, mint), returning
// a zero-value account (not an error) when none has been opened yet —
// mirroring an SPL associated token account that simply does not exist.
func (m *Manager) TokenAccountGet(owner, mint crypto.Address) (*TokenAccount, error) {
	var stored storedTokenAccount
	ok, err := m.kvGet(tokenAccountKey(owner, mint), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &TokenAccount{}, nil
	}
	return &TokenAccount{
		Balance:         stored.Balance,
		HasDelegate:     stored.HasDelegate,
		Delegate:        stored.Delegate,
		DelegatedAmount: stored.DelegatedAmount,
	}, nil
}

// TokenAccountPut persists the token account for (owner, mint).
func (m *Manager) TokenAccountPut(owner, mint crypto.Address, acct *TokenAccount) error {
	if acct == nil {
		return fmt.Errorf("state: nil token account")
	}
	stored := storedTokenAccount{
		Balance:         acct.Balance,
		HasDelegate:     acct.HasDelegate,
		Delegate:        acct.Delegate,
		DelegatedAmount: acct.DelegatedAmount,
	}
	return m.kvPut(tokenAccountKey(owner, mint), &stored)
}

// SubscriptionAuthority derives the program-owned address that acts as the
// subscription PDA: delegate of the subscriber's token account and
// authority over the escrow vault. Derivation follows the teacher's
// module-vault idiom (escrowModuleAddress in the original manager.go):
// keccak256 of a fixed seed concatenated with the subscription id.
func SubscriptionAuthority(id string) crypto.Address {
	seed := subscriptionModuleSeed + id
	return crypto.MustNewAddress(ethcrypto.Keccak256([]byte(seed)))
}

// --- Escrow vault ---------------------------------------------------------

func escrowVaultKey(id string, mint crypto.Address) []byte {
	normalized := strings.TrimSpace(id)
	buf := make([]byte, 0, len(escrowVaultPrefix)+len(normalized)+32)
	buf = append(buf, escrowVaultPrefix...)
	buf = append(buf, normalized...)
	buf = append(buf, mint[:]...)
	return ethcrypto.Keccak256(buf)
}

type storedVaultBalance struct {
	Balance uint64
}

// EscrowVaultGet returns the actual balance of the subscription's escrow
// token account, which the invariant in spec 4.6 requires to always equal
// Subscription.EscrowBalance.
func (m *Manager) EscrowVaultGet(id string, mint crypto.Address) (uint64, error) {
	var stored storedVaultBalance
	ok, err := m.kvGet(escrowVaultKey(id, mint), &stored)
	if err != nil || !ok {
		return 0, err
	}
	return stored.Balance, nil
}

// EscrowVaultPut persists the escrow token account balance.
func (m *Manager) EscrowVaultPut(id string, mint crypto.Address, balance uint64) error {
	return m.kvPut(escrowVaultKey(id, mint), &storedVaultBalance{Balance: balance})
}

// --- Replay markers --------------------------------------------------------

func replayMarkerKey(id string, timestamp int64) []byte {
	buf := make([]byte, 0, len(replayMarkerPrefix)+len(id)+8)
	buf = append(buf, replayMarkerPrefix...)
	buf = append(buf, id...)
	ts := big.NewInt(timestamp).Bytes()
	buf = append(buf, ts...)
	return ethcrypto.Keccak256(buf)
}

// ReplaySeen reports whether the (id, timestamp) pair has already been
// processed by a trigger.
func (m *Manager) ReplaySeen(id string, timestamp int64) (bool, error) {
	data, err := m.trie.Get(replayMarkerKey(id, timestamp))
	if err != nil {
		return false, err
	}
	return len(data) > 0, nil
}

// ReplayMark records the (id, timestamp) pair as processed.
func (m *Manager) ReplayMark(id string, timestamp int64) error {
	return m.trie.Update(replayMarkerKey(id, timestamp), []byte{1})
}
