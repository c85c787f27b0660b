package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization for lookups.
// The stored email keeps the caller's spelling.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
