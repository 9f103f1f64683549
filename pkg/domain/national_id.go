package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashNationalID returns the hex SHA-256 of a trimmed national ID. Audit
// events and submit locks key on this value so raw IDs never leave the
// record.
func HashNationalID(nationalID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(nationalID)))
	return hex.EncodeToString(sum[:])
}

// IsDigits reports whether s is exactly n ASCII digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
