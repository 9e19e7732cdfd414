package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Ptr returns a pointer to the given value; avoids the need for one-off variables.
func Ptr[T any](x T) *T {
	return &x
}

// SHA256 returns the lowercase hex SHA-256 digest of data.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
