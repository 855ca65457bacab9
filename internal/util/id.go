package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a URL-safe hex string ID.
func NewID() string {
	return NewToken(12)
}

// NewToken returns n random bytes hex-encoded. Used for opaque session and reset tokens.
func NewToken(n int) string {
	if n <= 0 {
		n = 32
	}
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
