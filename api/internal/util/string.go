package util

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// ShortHash is a stable 16-hex-char fingerprint, used where raw text must not be logged.
func ShortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}

// Truncate cuts s to at most n runes, appending "…" when it had to cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "…"
		}
		i++
	}
	return s
}
