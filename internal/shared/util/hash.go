package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashOwnerKey maps an account ID to the directory every object of that
// account lives under. Raw IDs never appear in storage keys.
func HashOwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}
