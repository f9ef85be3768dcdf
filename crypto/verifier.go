package crypto

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
)

// SignatureLength is the width of an Ed25519 signature.
const SignatureLength = ed25519.SignatureSize

// Signature is a detached Ed25519 signature over a canonical payload.
type Signature [SignatureLength]byte

// CreationOpcode tags the domain-separated payload signed at subscription
// creation time. Trigger payloads are tagged with opcode 0 (payment) or
// opcode 1 (notification) instead.
const CreationOpcode byte = 0xFF

// TriggerPayload builds the canonical, domain-separated byte string signed
// by the off-chain trigger signer: opcode || id_bytes || timestamp_le(i64).
func TriggerPayload(opcode byte, id string, timestamp int64) []byte {
	buf := make([]byte, 0, 1+len(id)+8)
	buf = append(buf, opcode)
	buf = append(buf, id...)
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(timestamp))
	buf = append(buf, ts[:]...)
	return buf
}

// CreationPayload builds the canonical payload signed for create-time
// authorization: 0xFF || id || subscriber || merchant || amount_le ||
// interval_le || token_mint.
func CreationPayload(id string, subscriber, merchant Address, amount uint64, interval int64, tokenMint Address) []byte {
	buf := make([]byte, 0, 1+len(id)+AddressLength*3+16)
	buf = append(buf, CreationOpcode)
	buf = append(buf, id...)
	buf = append(buf, subscriber[:]...)
	buf = append(buf, merchant[:]...)
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], amount)
	buf = append(buf, amt[:]...)
	var iv [8]byte
	binary.LittleEndian.PutUint64(iv[:], uint64(interval))
	buf = append(buf, iv[:]...)
	buf = append(buf, tokenMint[:]...)
	return buf
}

// VerifyEd25519 reports whether sig is a valid Ed25519 signature over
// payload under pubKey. It never panics on malformed input, returning false
// instead so callers can map the result onto the closed error enumeration.
func VerifyEd25519(pubKey [ed25519.PublicKeySize]byte, payload []byte, sig Signature) bool {
	return ed25519.Verify(pubKey[:], payload, sig[:])
}

// ParseEd25519PublicKey validates a 32-byte Ed25519 public key.
func ParseEd25519PublicKey(b []byte) ([ed25519.PublicKeySize]byte, error) {
	var out [ed25519.PublicKeySize]byte
	if len(b) != ed25519.PublicKeySize {
		return out, fmt.Errorf("crypto: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	copy(out[:], b)
	return out, nil
}
