// Package lsh buckets MinHash signatures by banding so that similar
// signatures share at least one bucket.
package lsh

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
	"github.com/cognicore/newsdedup/pkg/newsdedup/minhash"
)

// Index maps band sub-vectors to the keys inserted with them.
// It is not safe for concurrent use.
type Index struct {
	params  Params
	numPerm int
	buckets []map[string][]int
	keys    map[int]struct{}
}

// New creates an empty index for numPerm-wide signatures.
func New(params Params, numPerm int) (*Index, error) {
	if err := params.Validate(numPerm); err != nil {
		return nil, err
	}
	buckets := make([]map[string][]int, params.Bands)
	for i := range buckets {
		buckets[i] = make(map[string][]int)
	}
	return &Index{
		params:  params,
		numPerm: numPerm,
		buckets: buckets,
		keys:    make(map[int]struct{}),
	}, nil
}

// Params returns the banding layout.
func (x *Index) Params() Params {
	return x.params
}

// Len returns the number of inserted keys.
func (x *Index) Len() int {
	return len(x.keys)
}

// Insert adds key under every band of sig. Each key may be inserted once.
func (x *Index) Insert(key int, sig minhash.Signature) error {
	if len(sig) != x.numPerm {
		return fmt.Errorf("insert %d: signature width %d, want %d", key, len(sig), x.numPerm)
	}
	if _, ok := x.keys[key]; ok {
		return fmt.Errorf("insert %d: %w", key, internalerr.ErrDuplicate)
	}
	x.keys[key] = struct{}{}

	buf := make([]byte, 0, 8*x.params.Rows)
	for band := range x.buckets {
		buf = x.bandKey(buf[:0], sig, band)
		k := string(buf)
		x.buckets[band][k] = append(x.buckets[band][k], key)
	}
	return nil
}

// Query returns every key sharing at least one band with sig, sorted
// ascending. Querying with an inserted signature always returns its key.
func (x *Index) Query(sig minhash.Signature) []int {
	if len(sig) != x.numPerm {
		return nil
	}

	seen := make(map[int]struct{})
	var out []int
	buf := make([]byte, 0, 8*x.params.Rows)
	for band := range x.buckets {
		buf = x.bandKey(buf[:0], sig, band)
		for _, key := range x.buckets[band][string(buf)] {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	sort.Ints(out)
	return out
}

// bandKey appends the little-endian bytes of band's rows to dst.
func (x *Index) bandKey(dst []byte, sig minhash.Signature, band int) []byte {
	start := band * x.params.Rows
	for _, v := range sig[start : start+x.params.Rows] {
		dst = binary.LittleEndian.AppendUint64(dst, v)
	}
	return dst
}
