// Package notify implements the opcode-1 notification emitter: a
// wallet-visible memo describing the upcoming payment (spec sections 4.7
// and 6), reported through a NotificationEmitted event. It performs no
// token transfer, mutates no subscription state and is never gated on
// funding or delegation.
package notify

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ouroc/core/errors"
	"ouroc/core/events"
	"ouroc/core/state"
	"ouroc/core/types"
	"ouroc/crypto"
	"ouroc/native/auth"
)

// DustAmount is the base-unit amount of a native-token dust transfer that
// carries a memo to the subscriber's wallet. Notify does not use it: it
// moves no tokens.
const DustAmount uint64 = 1_000

// maxMemoBytes bounds the memo string; constructions that would exceed it
// are truncated with a trailing ellipsis.
const maxMemoBytes = 566

// symbols maps well-known stablecoin mints to their display ticker. Mints
// absent from the table fall back to their truncated base58 form.
var symbols = map[string]string{}

// RegisterSymbol records the display ticker for a token mint, used by memo
// construction in place of the base58-truncated fallback. Deployment code
// calls this once per supported mint at startup.
func RegisterSymbol(mint crypto.Address, symbol string) {
	symbols[mint.String()] = symbol
}

// Emitter sends opcode-1 notifications.
type Emitter struct {
	state    *state.Manager
	verifier *auth.Verifier
	emitter  events.Emitter
	log      *zap.Logger
}

// New constructs a notification emitter.
func New(st *state.Manager, verifier *auth.Verifier, emit events.Emitter, logger *zap.Logger) *Emitter {
	if emit == nil {
		emit = events.NoopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{state: st, verifier: verifier, emitter: emit, log: logger}
}

// TriggerInput carries the inputs to process_trigger for opcode 1.
type TriggerInput struct {
	ID        string
	Now       int64
	Timestamp int64
	Signature *crypto.Signature
	Caller    crypto.Address
}

// Notify verifies authorization per spec section 4.1 and emits a
// NotificationEmitted event carrying the memo text. It performs no dust
// transfer and the event carries no transfer amount. It never touches
// subscription state.
func (e *Emitter) Notify(in TriggerInput) (string, error) {
	cfg, ok, err := e.state.ConfigGet()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.ErrAccountMissing
	}
	sub, ok, err := e.state.SubscriptionGet(in.ID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.ErrAccountMissing
	}

	if err := e.verifier.Check(cfg, auth.Request{
		Opcode:    1,
		ID:        in.ID,
		Now:       in.Now,
		Timestamp: in.Timestamp,
		Signature: in.Signature,
		Caller:    in.Caller,
		Sub:       sub,
	}); err != nil {
		return "", err
	}

	daysBefore := daysUntil(sub.NextPaymentTime, in.Now)
	memo := BuildMemo(sub, daysBefore)

	e.log.Info("notification emitted",
		zap.String("id", in.ID),
		zap.Int64("daysBefore", daysBefore),
	)
	e.emitter.Emit(events.NotificationEmitted{
		ID:         in.ID,
		Subscriber: sub.Subscriber.String(),
		DaysBefore: daysBefore,
		Memo:       memo,
	})
	return memo, nil
}

func daysUntil(nextPaymentTime, now int64) int64 {
	remaining := nextPaymentTime - now
	if remaining <= 0 {
		return 0
	}
	return remaining / 86400
}

// BuildMemo renders the human-readable memo string for a subscription,
// truncating to maxMemoBytes with a trailing ellipsis if necessary.
func BuildMemo(sub *types.Subscription, daysBefore int64) string {
	symbol, ok := symbols[sub.PaymentTokenMint.String()]
	if !ok {
		symbol = sub.PaymentTokenMint.Truncated()
	}
	human := decimal.NewFromBigInt(new(big.Int).SetUint64(sub.Amount), 0)
	memo := fmt.Sprintf("%s: Payment due in %d days. Amount: %s %s",
		sub.MerchantName, daysBefore, human.String(), symbol)
	if len(memo) <= maxMemoBytes {
		return memo
	}
	return truncateUTF8(memo, maxMemoBytes-len("…")) + "…"
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isUTF8Boundary(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

func isUTF8Boundary(b byte) bool {
	return b&0xC0 != 0x80
}
