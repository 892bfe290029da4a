package imagestore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint is the lower-case hex SHA-256 digest of an object's raw
// bytes, used as content identity. Identical bytes always yield identical
// fingerprints; distinct fingerprints are treated as distinct content.
type Fingerprint string

// FingerprintHexLen is the length of a hex-encoded SHA-256 digest.
const FingerprintHexLen = sha256.Size * 2

func (f Fingerprint) String() string { return string(f) }

// Digest computes the content fingerprint of b.
func Digest(b []byte) Fingerprint {
	sum := sha256.Sum256(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// ParseFingerprint validates a caller-supplied fingerprint string.
func ParseFingerprint(s string) (Fingerprint, error) {
	if len(s) != FingerprintHexLen {
		return "", fmt.Errorf("%w: fingerprint must be %d hex characters, got %d", ErrInvalidReference, FingerprintHexLen, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: fingerprint is not valid hex", ErrInvalidReference)
	}
	return Fingerprint(s), nil
}
