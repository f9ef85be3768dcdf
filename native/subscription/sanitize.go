package subscription

import (
	"strings"

	"ouroc/core/errors"
)

const (
	minIDLength = 4
	maxIDLength = 64
)

// forbiddenIDSubstrings blocks path traversal, script injection, and
// SQL-keyword probes from ever reaching a subscription id, matching the
// closed blacklist in the input-sanitization rule.
var forbiddenIDSubstrings = []string{
	"../", "..\\", "/etc/", "/usr/", "%2e%2e",
	"<script", "javascript:", "data:", "vbscript:",
	"select", "insert", "update", "delete", "drop", "union",
	"'", "\"", "`",
}

// maxIdenticalRun rejects ids containing 10 or more repeated characters in a
// row, a cheap defense against degenerate keys.
const maxIdenticalRun = 10

// SanitizeID validates a caller-supplied subscription id against the
// charset, length, substring, and run-length rules and returns the id
// unchanged on success.
func SanitizeID(id string) (string, error) {
	if len(id) < minIDLength || len(id) > maxIDLength {
		return "", errors.ErrInvalidSubscriptionId
	}
	for i := 0; i < len(id); i++ {
		b := id[i]
		if b < 0x20 || b > 0x7E {
			return "", errors.ErrInvalidSubscriptionId
		}
		if !isIDByte(b) {
			return "", errors.ErrInvalidSubscriptionId
		}
	}
	lower := strings.ToLower(id)
	for _, bad := range forbiddenIDSubstrings {
		if strings.Contains(lower, bad) {
			return "", errors.ErrInvalidSubscriptionId
		}
	}
	if hasIdenticalRun(id, maxIdenticalRun) {
		return "", errors.ErrInvalidSubscriptionId
	}
	return id, nil
}

func isIDByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_' || b == '-':
		return true
	default:
		return false
	}
}

func hasIdenticalRun(s string, run int) bool {
	if len(s) < run {
		return false
	}
	count := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			count++
			if count >= run {
				return true
			}
		} else {
			count = 1
		}
	}
	return false
}

// SanitizeMerchantName validates the 1-32 byte display name used only in
// memo text.
func SanitizeMerchantName(name string) (string, error) {
	if len(name) < 1 || len(name) > 32 {
		return "", errors.ErrInvalidMerchantName
	}
	return name, nil
}
