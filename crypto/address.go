package crypto

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the fixed width of every account, mint, and
// program-derived address handled by the core. It matches the width of an
// Ed25519 public key, the same convention an SVM-style runtime uses for
// every account key.
const AddressLength = 32

// Address is a 32-byte account key rendered in base58 for display, the
// encoding named throughout the protocol's wire contract.
type Address [AddressLength]byte

// NewAddress validates and wraps a raw 32-byte key.
func NewAddress(b []byte) (Address, error) {
	var addr Address
	if len(b) != AddressLength {
		return addr, fmt.Errorf("crypto: address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// MustNewAddress constructs an address and panics if the input is invalid.
// Intended for constants and tests, never for untrusted input.
func MustNewAddress(b []byte) Address {
	addr, err := NewAddress(b)
	if err != nil {
		panic(err)
	}
	return addr
}

// DecodeAddress parses a base58-encoded address string.
func DecodeAddress(s string) (Address, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: decode base58 address: %w", err)
	}
	return NewAddress(decoded)
}

// String renders the address in base58, e.g. for event attributes and memo
// text.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a defensive copy of the address's raw bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// IsZero reports whether the address is the all-zero placeholder, used to
// mean "unset" for optional fields such as A2A metadata.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Truncated returns the first and last 4 characters of the base58 form,
// joined by "..", the fallback rendering used by the memo formatter when a
// mint has no known symbol.
func (a Address) Truncated() string {
	s := a.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}
