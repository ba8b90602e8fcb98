package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the stable hex fingerprint of chapter content.
// Identical content always yields the same fingerprint, which drives
// the incremental-skip decision during evaluation.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
