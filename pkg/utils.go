package pkg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	addressRegexp      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)
	sourceRegexp       = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,29}$`)
	sourceIdemPKRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)
	currencyRegexp     = regexp.MustCompile(`^[A-Z]{3}$`)
)

// IsValidAddress reports whether s is a well formed instance or account
// address.
func IsValidAddress(s string) bool {
	return addressRegexp.MatchString(s)
}

// IsValidSource reports whether s is a well formed command source name.
func IsValidSource(s string) bool {
	return sourceRegexp.MatchString(s)
}

// IsValidSourceIdemPK reports whether s is a well formed source idempotency
// key.
func IsValidSourceIdemPK(s string) bool {
	return sourceIdemPKRegexp.MatchString(s)
}

// IsValidCurrency reports whether s is a well formed currency code.
func IsValidCurrency(s string) bool {
	return currencyRegexp.MatchString(s)
}

// HashIdempotencyKey computes the stable key hash for a command identity.
// The parts are joined with a unit separator because source_idempk and
// update_idempk share characters with the join candidates.
func HashIdempotencyKey(action, source, sourceIdemPK, updateIdemPK string) string {
	parts := []string{action, source, sourceIdemPK}
	if updateIdemPK != "" {
		parts = append(parts, updateIdemPK)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))

	return hex.EncodeToString(sum[:])
}

// IdempotencyRedisKey builds the cache key for the idempotency fast path.
func IdempotencyRedisKey(instanceID, keyHash string) string {
	return fmt.Sprintf("idempotency:%s:%s", instanceID, keyHash)
}

// IsFlatMap reports whether every value of m is a scalar. Context payloads
// must not nest maps or lists.
func IsFlatMap(m map[string]any) bool {
	for _, v := range m {
		switch v.(type) {
		case map[string]any, []any:
			return false
		}
	}

	return true
}
