// Command ouroc-core is a local smoke-test driver for the subscription and
// escrow core: it wires an in-memory account database to every native
// operation and dispatches a single subcommand per invocation, the same
// opcode-router shape the wire contract exposes on-chain.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"ouroc/core/events"
	"ouroc/core/log"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
	"ouroc/native/auth"
	"ouroc/native/config"
	"ouroc/native/delegation"
	"ouroc/native/escrow"
	"ouroc/native/notify"
	"ouroc/native/payment"
	"ouroc/native/query"
	"ouroc/native/subscription"
	"ouroc/storage"
	"ouroc/storage/trie"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger := log.New()
	defer logger.Sync()

	db := storage.NewMemDB()
	defer db.Close()
	tr, err := trie.NewTrie(db, nil)
	if err != nil {
		fatal(err)
	}
	st := state.NewManager(tr)
	emitter := events.NoopEmitter{}

	verifier, err := auth.NewVerifier(auth.Skew(60))
	if err != nil {
		fatal(err)
	}

	cfgMgr := config.New(st, emitter, logger)
	delegMgr := delegation.New(st, emitter, logger)
	subMgr := subscription.New(st, delegMgr, emitter, logger)
	payProc := payment.New(st, delegMgr, verifier, emitter, logger)
	notifier := notify.New(st, verifier, emitter, logger)
	claimEngine := escrow.NewEngine(st)
	claimEngine.SetEmitter(emitter)
	claimEngine.SetLogger(logger)
	reader := query.New(st)

	authority := mustAddress("11111111111111111111111111111111")
	feeDestination := mustAddress("22222222222222222222222222222222")
	subscriber := mustAddress("33333333333333333333333333333333")
	merchant := mustAddress("44444444444444444444444444444444")
	mint := mustAddress("55555555555555555555555555555555")

	now := time.Now().Unix()

	switch os.Args[1] {
	case "demo":
		runDemo(demoDeps{
			cfgMgr:         cfgMgr,
			delegMgr:       delegMgr,
			subMgr:         subMgr,
			payProc:        payProc,
			notifier:       notifier,
			claimEngine:    claimEngine,
			reader:         reader,
			st:             st,
			authority:      authority,
			feeDestination: feeDestination,
			subscriber:     subscriber,
			merchant:       merchant,
			mint:           mint,
			now:            now,
		})
	default:
		printUsage()
		os.Exit(1)
	}
}

type demoDeps struct {
	cfgMgr         *config.Manager
	delegMgr       *delegation.Manager
	subMgr         *subscription.Manager
	payProc        *payment.Processor
	notifier       *notify.Emitter
	claimEngine    *escrow.Engine
	reader         *query.Reader
	st             *state.Manager
	authority      crypto.Address
	feeDestination crypto.Address
	subscriber     crypto.Address
	merchant       crypto.Address
	mint           crypto.Address
	now            int64
}

// runDemo drives the full create -> pay -> notify -> claim lifecycle
// against a fresh in-memory database, printing each step's outcome.
func runDemo(d demoDeps) {
	_, err := d.cfgMgr.Initialize(config.InitInput{
		Authority:         d.authority,
		AuthorizationMode: types.AuthModeManual,
		PlatformFeeBps:    200,
		FeeDestination:    d.feeDestination,
	})
	must(err)
	fmt.Println("config initialized")

	fundSubscriber(d.st, d.subscriber, d.mint, 100_000_000)

	sub, err := d.subMgr.Create(subscription.CreateInput{
		ID:                        "streamflix-demo-0001",
		Subscriber:                d.subscriber,
		Merchant:                  d.merchant,
		MerchantName:              "StreamFlix",
		PaymentTokenMint:          d.mint,
		Amount:                    10_000_000,
		IntervalSeconds:           2_592_000,
		ReminderDaysBeforePayment: 3,
		Now:                       d.now,
	})
	must(err)
	fmt.Printf("subscription created: id=%s next_payment_time=%d\n", sub.ID, sub.NextPaymentTime)

	result, err := d.payProc.Process(payment.TriggerInput{
		ID:        sub.ID,
		Now:       sub.NextPaymentTime,
		Timestamp: sub.NextPaymentTime,
		Caller:    d.subscriber,
	})
	must(err)
	fmt.Printf("payment processed: fee=%d merchant_amount=%d payments_made=%d\n",
		result.Fee, result.MerchantAmount, result.PaymentsMade)

	memo, err := d.notifier.Notify(notify.TriggerInput{
		ID:        sub.ID,
		Now:       result.NextPaymentTime - 3*86400,
		Timestamp: result.NextPaymentTime - 3*86400,
		Caller:    d.subscriber,
	})
	must(err)
	fmt.Printf("notification memo: %q\n", memo)

	remaining, err := d.claimEngine.Claim(sub.ID, d.merchant, result.MerchantAmount)
	must(err)
	fmt.Printf("escrow claimed: remaining=%d\n", remaining)

	finalSub, err := d.reader.GetSubscription(sub.ID)
	must(err)
	fmt.Printf("final state: payments_made=%d total_paid=%d escrow_balance=%d\n",
		finalSub.PaymentsMade, finalSub.TotalPaid, finalSub.EscrowBalance)
}

func fundSubscriber(st *state.Manager, owner, mint crypto.Address, amount uint64) {
	account, err := st.TokenAccountGet(owner, mint)
	must(err)
	account.Balance = amount
	must(st.TokenAccountPut(owner, mint, account))
}

func mustAddress(hexLike string) crypto.Address {
	raw, err := hex.DecodeString(padHex(hexLike))
	if err != nil {
		fatal(err)
	}
	return crypto.MustNewAddress(raw)
}

func padHex(s string) string {
	if len(s) >= 64 {
		return s[:64]
	}
	return s + fmt.Sprintf("%0*d", 64-len(s), 0)
}

func must(err error) {
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("usage: ouroc-core demo")
}
