// Package crypto implements the hash/crypto primitives: SHA3-256 digesting
// and authenticated encryption of file blobs with a key derived from a
// pool's key phrase.
package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Hash returns the lowercase 64-char hex SHA3-256 digest of s.
func Hash(s string) string {
	sum := sha3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
