package crypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTriggerPayloadRoundTripsThroughEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	var pubKey [ed25519.PublicKeySize]byte
	copy(pubKey[:], pub)

	payload := TriggerPayload(0, "streamflix-demo-0001", 1_700_000_000)
	raw := ed25519.Sign(priv, payload)
	var sig Signature
	copy(sig[:], raw)

	require.True(t, VerifyEd25519(pubKey, payload, sig))
}

func TestTriggerPayloadDiffersByOpcode(t *testing.T) {
	a := TriggerPayload(0, "same-id-0001", 100)
	b := TriggerPayload(1, "same-id-0001", 100)
	require.NotEqual(t, a, b)
}

func TestVerifyEd25519RejectsWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	var wrongKey [ed25519.PublicKeySize]byte
	copy(wrongKey[:], otherPub)

	payload := TriggerPayload(0, "streamflix-demo-0001", 42)
	raw := ed25519.Sign(priv, payload)
	var sig Signature
	copy(sig[:], raw)

	require.False(t, VerifyEd25519(wrongKey, payload, sig))
}

func TestCreationPayloadIsDomainSeparatedFromTrigger(t *testing.T) {
	subscriber := MustNewAddress(make([]byte, AddressLength))
	merchant := MustNewAddress(bytesOf(1))
	mint := MustNewAddress(bytesOf(2))

	creation := CreationPayload("id-0001", subscriber, merchant, 100, 3600, mint)
	require.Equal(t, CreationOpcode, creation[0])

	trigger := TriggerPayload(0, "id-0001", 100)
	require.NotEqual(t, creation[0], trigger[0])
}

func bytesOf(fill byte) []byte {
	out := make([]byte, AddressLength)
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestAddressBase58RoundTrip(t *testing.T) {
	addr := MustNewAddress(bytesOf(7))
	decoded, err := DecodeAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr, decoded)
}

func TestAddressTruncatedForUnknownMint(t *testing.T) {
	addr := MustNewAddress(bytesOf(9))
	truncated := addr.Truncated()
	require.Contains(t, truncated, "..")
	require.Less(t, len(truncated), len(addr.String()))
}
