package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSessionToken returns a 64-char hex token from a CSPRNG.
func GenerateSessionToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
