// Package query exposes read-only getters over the account database, the
// observability surface CLI tooling and tests use to inspect state without
// reaching into core/state directly.
package query

import (
	"ouroc/core/errors"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
)

// Reader wraps a state.Manager with read-only accessors.
type Reader struct {
	state *state.Manager
}

// New constructs a Reader.
func New(st *state.Manager) *Reader {
	return &Reader{state: st}
}

// GetConfig returns the Config singleton.
func (r *Reader) GetConfig() (*types.Config, error) {
	cfg, ok, err := r.state.ConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrAccountMissing
	}
	return cfg, nil
}

// GetSubscription returns a subscription record by id.
func (r *Reader) GetSubscription(id string) (*types.Subscription, error) {
	sub, ok, err := r.state.SubscriptionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrAccountMissing
	}
	return sub, nil
}

// EscrowBalance returns the actual escrow token-account balance for a
// subscription, which the invariant in spec section 4.6 requires to equal
// subscription.escrow_balance.
func (r *Reader) EscrowBalance(id string, mint crypto.Address) (uint64, error) {
	return r.state.EscrowVaultGet(id, mint)
}

// TokenAccount returns the token account for (owner, mint), used to
// inspect delegation state and balances.
func (r *Reader) TokenAccount(owner, mint crypto.Address) (*state.TokenAccount, error) {
	return r.state.TokenAccountGet(owner, mint)
}
