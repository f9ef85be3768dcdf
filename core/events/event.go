// Package events defines the wire-contract event catalogue for the
// subscription and escrow core (spec section 6) and the Emitter every
// native/* op reports through.
package events

// Event represents a structured state change emitted by a subscription,
// delegation, payment, notification, escrow, or config operation.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. an indexer or
// the CLI demo's stdout logger).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event. Native managers fall back to it when
// constructed with a nil emitter, so event delivery stays optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
