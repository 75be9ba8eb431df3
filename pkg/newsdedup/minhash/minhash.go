// Package minhash computes MinHash signatures over shingle sets.
//
// Each shingle is hashed once with xxhash; the signature's i-th component is
// the minimum of the universal permutation
//
//	h_i(x) = (a_i*x + b_i) mod (2^61 - 1)
//
// over all shingles. The (a_i, b_i) pairs come from a seeded generator, so
// signatures are reproducible across runs for the same seed and width.
package minhash

import (
	"math"
	"math/bits"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// mersennePrime is 2^61 - 1.
const mersennePrime = (1 << 61) - 1

// Empty is the component value of a signature over no shingles.
const Empty = math.MaxUint64

// DefaultSeed seeds the permutation family when none is configured.
const DefaultSeed = 1

// Signature is a fixed-width vector of permutation minima.
type Signature []uint64

// Jaccard estimates the Jaccard similarity of the sets behind s and other as
// the fraction of equal components. Signatures of different widths compare
// as 0.
func (s Signature) Jaccard(other Signature) float64 {
	if len(s) == 0 || len(s) != len(other) {
		return 0
	}
	matches := 0
	for i := range s {
		if s[i] == other[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(s))
}

// IsEmpty reports whether s is the sentinel signature of an empty set.
func (s Signature) IsEmpty() bool {
	for _, v := range s {
		if v != Empty {
			return false
		}
	}
	return true
}

// Signer holds a permutation family. It is immutable and safe for
// concurrent use.
type Signer struct {
	a, b []uint64
}

// NewSigner creates a signer producing numPerm-wide signatures.
// numPerm must be positive.
func NewSigner(numPerm int, seed int64) *Signer {
	if numPerm <= 0 {
		panic("minhash: numPerm must be positive")
	}

	rng := rand.New(rand.NewSource(seed))
	s := &Signer{
		a: make([]uint64, numPerm),
		b: make([]uint64, numPerm),
	}
	for i := 0; i < numPerm; i++ {
		// a must be non-zero for the map to be a permutation.
		s.a[i] = uint64(rng.Int63n(mersennePrime-1)) + 1
		s.b[i] = uint64(rng.Int63n(mersennePrime))
	}
	return s
}

// NumPerm returns the signature width.
func (s *Signer) NumPerm() int {
	return len(s.a)
}

// Sign computes the signature of a shingle set. Duplicate shingles do not
// change the result; an empty set yields a signature of Empty values.
func (s *Signer) Sign(shingles []string) Signature {
	sig := make(Signature, len(s.a))
	for i := range sig {
		sig[i] = Empty
	}

	for _, sh := range shingles {
		x := xxhash.Sum64String(sh)
		for i := range sig {
			if v := permute(s.a[i], s.b[i], x); v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}

// permute computes (a*x + b) mod p without overflow. a < p keeps the high
// word of the product below p, which bits.Div64 requires.
func permute(a, b, x uint64) uint64 {
	hi, lo := bits.Mul64(a, x)
	_, rem := bits.Div64(hi, lo, mersennePrime)
	return (rem + b) % mersennePrime
}
