package domain

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"logocluster/pkg/serrors"
)

// FingerprintBits is the bit length of every Fingerprint.
const FingerprintBits = 64

// Algorithm names the perceptual hash that produced a Fingerprint. Distances
// are only meaningful between fingerprints of the same algorithm.
type Algorithm string

// Fingerprint is a 64-bit perceptual hash of an image.
type Fingerprint struct {
	Algorithm Algorithm `json:"algorithm"`
	Hash      uint64    `json:"hash"`
}

// Distance returns the Hamming distance between f and other, in [0, 64].
// Comparing fingerprints of different algorithms is a wiring error.
func (f Fingerprint) Distance(other Fingerprint) (int, error) {
	if f.Algorithm != other.Algorithm {
		return 0, serrors.With(serrors.ErrPrecondition,
			"cannot compare %q fingerprint with %q fingerprint", f.Algorithm, other.Algorithm)
	}

	return bits.OnesCount64(f.Hash ^ other.Hash), nil
}

// String renders the fingerprint as "<algorithm>:<16 hex digits>".
func (f Fingerprint) String() string {
	return fmt.Sprintf("%s:%016x", f.Algorithm, f.Hash)
}

// ParseFingerprint is the inverse of Fingerprint.String.
func ParseFingerprint(s string) (Fingerprint, error) {
	alg, hex, ok := strings.Cut(s, ":")
	if !ok || alg == "" || len(hex) != FingerprintBits/4 {
		return Fingerprint{}, serrors.With(serrors.ErrBadRequest, "invalid fingerprint %q", s)
	}

	h, err := strconv.ParseUint(hex, 16, FingerprintBits)
	if err != nil {
		return Fingerprint{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid fingerprint %q", s)
	}

	return Fingerprint{Algorithm: Algorithm(alg), Hash: h}, nil
}

// FingerprintMap maps domains to fingerprints and remembers insertion order so
// clustering output is reproducible. A domain is present only if both the
// locator and the fingerprinter succeeded for it.
type FingerprintMap struct {
	order []string
	byKey map[string]Fingerprint
}

// NewFingerprintMap returns an empty map.
func NewFingerprintMap() *FingerprintMap {
	return &FingerprintMap{byKey: map[string]Fingerprint{}}
}

// Set adds or replaces the fingerprint of d. Replacing keeps the original position.
func (m *FingerprintMap) Set(d string, fp Fingerprint) {
	if _, ok := m.byKey[d]; !ok {
		m.order = append(m.order, d)
	}
	m.byKey[d] = fp
}

// Get returns the fingerprint of d.
func (m *FingerprintMap) Get(d string) (Fingerprint, bool) {
	fp, ok := m.byKey[d]

	return fp, ok
}

// Len returns the number of domains in the map.
func (m *FingerprintMap) Len() int {
	if m == nil {
		return 0
	}

	return len(m.order)
}

// Domains returns the keys in insertion order. The slice is a copy.
func (m *FingerprintMap) Domains() []string {
	if m == nil {
		return nil
	}

	return append([]string(nil), m.order...)
}
