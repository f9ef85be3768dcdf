package delegation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ouroc/core/errors"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
	"ouroc/storage"
	"ouroc/storage/trie"
)

func newTestManager(t *testing.T) (*Manager, *state.Manager) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	st := state.NewManager(tr)
	return New(st, nil, nil), st
}

func testAddress(fill byte) crypto.Address {
	var b [32]byte
	for i := range b {
		b[i] = fill
	}
	return crypto.Address(b)
}

func TestInitialCapOneTimeEqualsAmount(t *testing.T) {
	cap, err := InitialCap(5_000_000, types.OneTimeInterval)
	require.NoError(t, err)
	require.Equal(t, uint64(5_000_000), cap)
}

func TestInitialCapRecurringCoversAYearPlusOne(t *testing.T) {
	// monthly (2_592_000s): floor(year/interval)+1 = 12+1 = 13 slots.
	cap, err := InitialCap(1_000, 2_592_000)
	require.NoError(t, err)
	require.Equal(t, uint64(13_000), cap)
}

func TestInitialCapClampsToMaxApprovalAmount(t *testing.T) {
	cap, err := InitialCap(1_000_000, types.MinIntervalSeconds)
	require.NoError(t, err)
	require.Equal(t, types.MaxApprovalAmount, cap)
}

func TestInitialCapRejectsZeroAmount(t *testing.T) {
	_, err := InitialCap(0, types.OneTimeInterval)
	require.ErrorIs(t, err, errors.ErrInvalidAmount)
}

func TestApproveTopUpRevokeRoundTrip(t *testing.T) {
	mgr, st := newTestManager(t)
	subscriber := testAddress(0x10)
	mint := testAddress(0x20)

	require.NoError(t, mgr.Approve("sub-0001", subscriber, mint, 100))
	acct, err := st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	require.True(t, acct.HasDelegate)
	require.Equal(t, uint64(100), acct.DelegatedAmount)

	require.NoError(t, mgr.Revoke("sub-0001", subscriber, mint))
	acct, err = st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	require.False(t, acct.HasDelegate)
	require.Equal(t, uint64(0), acct.DelegatedAmount)

	require.NoError(t, mgr.Approve("sub-0001", subscriber, mint, 250))
	acct, err = st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	require.Equal(t, uint64(250), acct.DelegatedAmount)
}

func TestApproveRejectsAboveCeiling(t *testing.T) {
	mgr, _ := newTestManager(t)
	err := mgr.Approve("sub-0001", testAddress(0x10), testAddress(0x20), types.MaxApprovalAmount+1)
	require.ErrorIs(t, err, errors.ErrInvalidAmount)
}

func TestSpendDecrementsAllowanceAndBalance(t *testing.T) {
	mgr, st := newTestManager(t)
	subscriber := testAddress(0x10)
	mint := testAddress(0x20)
	authority := state.SubscriptionAuthority("sub-0001")

	require.NoError(t, mgr.Approve("sub-0001", subscriber, mint, 1_000))
	acct, err := st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	acct.Balance = 1_000
	require.NoError(t, st.TokenAccountPut(subscriber, mint, acct))

	require.NoError(t, mgr.Spend(subscriber, mint, authority, 400))
	acct, err = st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	require.Equal(t, uint64(600), acct.DelegatedAmount)
	require.Equal(t, uint64(600), acct.Balance)
}

func TestSpendFailsWhenAllowanceExhausted(t *testing.T) {
	mgr, st := newTestManager(t)
	subscriber := testAddress(0x10)
	mint := testAddress(0x20)
	authority := state.SubscriptionAuthority("sub-0001")

	require.NoError(t, mgr.Approve("sub-0001", subscriber, mint, 100))
	acct, err := st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	acct.Balance = 1_000
	require.NoError(t, st.TokenAccountPut(subscriber, mint, acct))

	err = mgr.Spend(subscriber, mint, authority, 200)
	require.ErrorIs(t, err, errors.ErrInsufficientDelegation)
}

func TestSpendFailsWhenBalanceInsufficient(t *testing.T) {
	mgr, st := newTestManager(t)
	subscriber := testAddress(0x10)
	mint := testAddress(0x20)
	authority := state.SubscriptionAuthority("sub-0001")

	require.NoError(t, mgr.Approve("sub-0001", subscriber, mint, 1_000))
	acct, err := st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	acct.Balance = 50
	require.NoError(t, st.TokenAccountPut(subscriber, mint, acct))

	err = mgr.Spend(subscriber, mint, authority, 200)
	require.ErrorIs(t, err, errors.ErrInsufficientBalance)
}

func TestSpendFailsWhenNotDelegate(t *testing.T) {
	mgr, st := newTestManager(t)
	subscriber := testAddress(0x10)
	mint := testAddress(0x20)

	require.NoError(t, mgr.Approve("sub-0001", subscriber, mint, 1_000))
	acct, err := st.TokenAccountGet(subscriber, mint)
	require.NoError(t, err)
	acct.Balance = 1_000
	require.NoError(t, st.TokenAccountPut(subscriber, mint, acct))

	err = mgr.Spend(subscriber, mint, state.SubscriptionAuthority("some-other-sub"), 100)
	require.ErrorIs(t, err, errors.ErrInsufficientDelegation)
}
