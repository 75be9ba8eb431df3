// Package shingle turns token sequences into word-shingle sets.
package shingle

import (
	"sort"
	"strings"
)

// Shingles returns the set of contiguous k-token windows of tokens, each
// joined by a single space. Sequences shorter than k fall back to the set of
// individual tokens. The result is sorted and free of duplicates; an empty
// sequence yields an empty set. k must be positive.
func Shingles(tokens []string, k int) []string {
	if k <= 0 {
		panic("shingle: k must be positive")
	}

	set := make(map[string]struct{})
	if len(tokens) >= k {
		for i := 0; i+k <= len(tokens); i++ {
			set[strings.Join(tokens[i:i+k], " ")] = struct{}{}
		}
	} else {
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
