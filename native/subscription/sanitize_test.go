package subscription

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ouroc/core/errors"
)

func TestSanitizeIDBoundaryLengths(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"three bytes too short", "abc", true},
		{"four bytes minimum", "abcd", false},
		{"sixty four bytes maximum", strings.Repeat("abcd", 16), false},
		{"sixty five bytes too long", strings.Repeat("abcd", 16) + "e", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SanitizeID(tc.id)
			if tc.wantErr {
				require.ErrorIs(t, err, errors.ErrInvalidSubscriptionId)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSanitizeIDRejectsForbiddenSubstrings(t *testing.T) {
	cases := []string{
		"../etc/passwd_aaaaa",
		"..%2f..%2fetc_aaaa",
		"drop-table-users01",
		"select-star-from-x1",
		"has-a-quote'-in-it1",
		"javascript:alert(1)1",
	}
	for _, id := range cases {
		t.Run(id, func(t *testing.T) {
			_, err := SanitizeID(id)
			require.ErrorIs(t, err, errors.ErrInvalidSubscriptionId)
		})
	}
}

func TestSanitizeIDRejectsControlAndHighBytes(t *testing.T) {
	_, err := SanitizeID("abc\x00defgh")
	require.ErrorIs(t, err, errors.ErrInvalidSubscriptionId)

	_, err = SanitizeID("abcdefg\xffh")
	require.ErrorIs(t, err, errors.ErrInvalidSubscriptionId)
}

func TestSanitizeIDRejectsIdenticalRuns(t *testing.T) {
	_, err := SanitizeID("aaaaaaaaaa-sub")
	require.ErrorIs(t, err, errors.ErrInvalidSubscriptionId)
}

func TestSanitizeIDAcceptsValidCharset(t *testing.T) {
	id, err := SanitizeID("streamflix-demo_0001")
	require.NoError(t, err)
	require.Equal(t, "streamflix-demo_0001", id)
}

func TestSanitizeMerchantNameBounds(t *testing.T) {
	_, err := SanitizeMerchantName("")
	require.ErrorIs(t, err, errors.ErrInvalidMerchantName)

	_, err = SanitizeMerchantName(strings.Repeat("a", 33))
	require.ErrorIs(t, err, errors.ErrInvalidMerchantName)

	name, err := SanitizeMerchantName("StreamFlix")
	require.NoError(t, err)
	require.Equal(t, "StreamFlix", name)
}
