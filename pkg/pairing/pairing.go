// Package pairing provides content checksums used to bind a model
// artifact to the exact preprocessing artifact it was trained against.
package pairing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Pairing verification errors.
var (
	ErrEmptyChecksum    = errors.New("no checksum recorded")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Checksum computes the SHA-256 hex digest of a serialized artifact.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)

	return hex.EncodeToString(sum[:])
}

// Verify checks serialized content against a recorded checksum.
func Verify(content []byte, recorded string) error {
	if recorded == "" {
		return ErrEmptyChecksum
	}

	if calculated := Checksum(content); calculated != recorded {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, recorded, calculated)
	}

	return nil
}
