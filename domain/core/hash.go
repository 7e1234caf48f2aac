package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types. Fingerprints identify the exact template and
// config a document was generated from, recorded alongside each session.
type (
	TemplateFingerprint Hash
	ConfigFingerprint   Hash
)

// Constructors
func NewTemplateFingerprint(data []byte) TemplateFingerprint {
	return TemplateFingerprint(NewHash(data))
}

func NewConfigFingerprint(data []byte) ConfigFingerprint {
	return ConfigFingerprint(NewHash(data))
}

// String conversions
func (h TemplateFingerprint) String() string { return Hash(h).String() }
func (h ConfigFingerprint) String() string   { return Hash(h).String() }
