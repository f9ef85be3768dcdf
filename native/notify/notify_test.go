package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ouroc/core/errors"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
	"ouroc/native/auth"
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

func newTestEmitter(t *testing.T) (*Emitter, *state.Manager) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	st := state.NewManager(tr)
	verifier, err := auth.NewVerifier(auth.Skew(60))
	require.NoError(t, err)
	return New(st, verifier, nil, nil), st
}

func TestBuildMemoUsesKnownSymbol(t *testing.T) {
	mint := testAddress(0x30)
	RegisterSymbol(mint, "USDC")
	sub := &types.Subscription{MerchantName: "StreamFlix", PaymentTokenMint: mint, Amount: 10_000_000}

	memo := BuildMemo(sub, 3)
	require.Equal(t, "StreamFlix: Payment due in 3 days. Amount: 10000000 USDC", memo)
}

func TestBuildMemoFallsBackToTruncatedMint(t *testing.T) {
	mint := testAddress(0x99)
	sub := &types.Subscription{MerchantName: "Acme", PaymentTokenMint: mint, Amount: 500}

	memo := BuildMemo(sub, 1)
	require.Contains(t, memo, "..")
}

func TestBuildMemoTruncatesOverlongMerchantName(t *testing.T) {
	mint := testAddress(0x31)
	RegisterSymbol(mint, "USDT")
	sub := &types.Subscription{MerchantName: strings.Repeat("x", maxMemoBytes), PaymentTokenMint: mint, Amount: 1}

	memo := BuildMemo(sub, 30)
	require.LessOrEqual(t, len(memo), maxMemoBytes)
}

func TestNotifyDoesNotMutateSubscriptionState(t *testing.T) {
	emitter, st := newTestEmitter(t)
	subscriber := testAddress(0x10)
	mint := testAddress(0x30)
	require.NoError(t, st.ConfigPut(&types.Config{AuthorizationMode: types.AuthModeManual}))
	require.NoError(t, st.SubscriptionPut(&types.Subscription{
		ID:                        "notify-check-0001",
		Subscriber:                subscriber,
		Merchant:                  testAddress(0x20),
		MerchantName:              "StreamFlix",
		PaymentTokenMint:          mint,
		Amount:                    10_000_000,
		IntervalSeconds:           2_592_000,
		NextPaymentTime:           2_592_000,
		ReminderDaysBeforePayment: 3,
		Status:                    types.StatusActive,
	}))

	before, _, err := st.SubscriptionGet("notify-check-0001")
	require.NoError(t, err)

	memo, err := emitter.Notify(TriggerInput{
		ID:        "notify-check-0001",
		Now:       2_592_000 - 3*86400,
		Timestamp: 2_592_000 - 3*86400,
		Caller:    subscriber,
	})
	require.NoError(t, err)
	require.Contains(t, memo, "StreamFlix")

	after, _, err := st.SubscriptionGet("notify-check-0001")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestNotifyIsNotGatedOnFundingOrDelegation(t *testing.T) {
	// No token account is ever created for the subscriber; the
	// notification must still succeed since it never inspects balances.
	emitter, st := newTestEmitter(t)
	subscriber := testAddress(0x10)
	require.NoError(t, st.ConfigPut(&types.Config{AuthorizationMode: types.AuthModeManual}))
	require.NoError(t, st.SubscriptionPut(&types.Subscription{
		ID:                        "unfunded-notify-0001",
		Subscriber:                subscriber,
		Merchant:                  testAddress(0x20),
		MerchantName:              "Acme",
		PaymentTokenMint:          testAddress(0x30),
		Amount:                    1,
		IntervalSeconds:           types.OneTimeInterval,
		ReminderDaysBeforePayment: 1,
		Status:                    types.StatusActive,
	}))

	_, err := emitter.Notify(TriggerInput{ID: "unfunded-notify-0001", Now: 0, Timestamp: 0, Caller: subscriber})
	require.NoError(t, err)
}

func TestNotifyRejectsUnauthorizedCaller(t *testing.T) {
	emitter, st := newTestEmitter(t)
	require.NoError(t, st.ConfigPut(&types.Config{AuthorizationMode: types.AuthModeManual}))
	require.NoError(t, st.SubscriptionPut(&types.Subscription{
		ID:                        "notify-auth-check-01",
		Subscriber:                testAddress(0x10),
		Merchant:                  testAddress(0x20),
		MerchantName:              "Acme",
		PaymentTokenMint:          testAddress(0x30),
		Amount:                    1,
		IntervalSeconds:           types.OneTimeInterval,
		ReminderDaysBeforePayment: 1,
		Status:                    types.StatusActive,
	}))

	_, err := emitter.Notify(TriggerInput{ID: "notify-auth-check-01", Now: 0, Timestamp: 0, Caller: testAddress(0x99)})
	require.ErrorIs(t, err, errors.ErrUnauthorized)
}
