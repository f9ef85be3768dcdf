package escrow

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

func testAddress(fill byte) crypto.Address {
	var b [32]byte
	for i := range b {
		b[i] = fill
	}
	return crypto.Address(b)
}

func newTestEngine(t *testing.T) (*Engine, *state.Manager) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	st := state.NewManager(tr)
	return NewEngine(st), st
}

func seedFundedSubscription(t *testing.T, st *state.Manager, id string, merchant, mint crypto.Address, escrowBalance uint64) {
	t.Helper()
	require.NoError(t, st.SubscriptionPut(&types.Subscription{
		ID:               id,
		Subscriber:       testAddress(0x10),
		Merchant:         merchant,
		MerchantName:     "StreamFlix",
		PaymentTokenMint: mint,
		Amount:           10_000_000,
		IntervalSeconds:  2_592_000,
		EscrowBalance:    escrowBalance,
		Status:           types.StatusActive,
	}))
	require.NoError(t, st.EscrowVaultPut(id, mint, escrowBalance))
}

// Scenario 5: merchant claim discipline.
func TestClaimDisciplineAgainstEscrowBalance(t *testing.T) {
	engine, st := newTestEngine(t)
	merchant := testAddress(0x20)
	mint := testAddress(0x30)
	seedFundedSubscription(t, st, "claim-discipline-0001", merchant, mint, 19_600_000)

	remaining, err := engine.Claim("claim-discipline-0001", merchant, 5_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(14_600_000), remaining)

	merchantAcct, err := st.TokenAccountGet(merchant, mint)
	require.NoError(t, err)
	require.Equal(t, uint64(5_000_000), merchantAcct.Balance)

	_, err = engine.Claim("claim-discipline-0001", merchant, 14_600_001)
	require.ErrorIs(t, err, errors.ErrInsufficientEscrow)

	// The failed claim must not have mutated the balance.
	sub, ok, err := st.SubscriptionGet("claim-discipline-0001")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(14_600_000), sub.EscrowBalance)
}

func TestClaimRejectsNonMerchantCaller(t *testing.T) {
	engine, st := newTestEngine(t)
	merchant := testAddress(0x20)
	mint := testAddress(0x30)
	seedFundedSubscription(t, st, "claim-auth-check-0001", merchant, mint, 1_000)

	_, err := engine.Claim("claim-auth-check-0001", testAddress(0x99), 100)
	require.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestClaimRejectsZeroAmount(t *testing.T) {
	engine, st := newTestEngine(t)
	merchant := testAddress(0x20)
	mint := testAddress(0x30)
	seedFundedSubscription(t, st, "claim-zero-check-0001", merchant, mint, 1_000)

	_, err := engine.Claim("claim-zero-check-0001", merchant, 0)
	require.ErrorIs(t, err, errors.ErrInvalidAmount)
}

func TestClaimAllowedAfterCancellation(t *testing.T) {
	engine, st := newTestEngine(t)
	merchant := testAddress(0x20)
	mint := testAddress(0x30)
	seedFundedSubscription(t, st, "claim-cancelled-check-1", merchant, mint, 2_000)

	sub, _, err := st.SubscriptionGet("claim-cancelled-check-1")
	require.NoError(t, err)
	sub.Status = types.StatusCancelled
	require.NoError(t, st.SubscriptionPut(sub))

	remaining, err := engine.Claim("claim-cancelled-check-1", merchant, 2_000)
	require.NoError(t, err)
	require.Equal(t, uint64(0), remaining)
}
