package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Supported hash algorithm names.
const (
	AlgorithmSHA256  = "sha256"
	AlgorithmBLAKE2b = "blake2b"
)

// Hasher computes content hashes. It is safe for concurrent use.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewHasher returns a Hasher for the named algorithm. An empty name selects
// sha256. Digests carry no algorithm prefix, so hashes produced by different
// algorithms never match each other.
func NewHasher(algorithm string) (*Hasher, error) {
	switch strings.ToLower(algorithm) {
	case "", AlgorithmSHA256:
		return &Hasher{algorithm: AlgorithmSHA256, newHash: sha256.New}, nil
	case AlgorithmBLAKE2b:
		return &Hasher{algorithm: AlgorithmBLAKE2b, newHash: newBLAKE2b256}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Algorithm returns the name of the hash algorithm in use.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash returns the lowercase hex digest of the normalised content.
func (h *Hasher) Hash(content string) string {
	d := h.newHash()
	// hash.Hash writes never fail.
	_, _ = d.Write([]byte(Normalize(content)))
	return hex.EncodeToString(d.Sum(nil))
}

// Normalize trims surrounding whitespace and lower-cases content. Interior
// whitespace is preserved.
func Normalize(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}

func newBLAKE2b256() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}
