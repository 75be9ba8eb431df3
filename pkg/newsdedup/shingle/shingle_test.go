package shingle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShingles(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		k      int
		want   []string
	}{
		{
			name:   "two windows",
			tokens: []string{"a", "b", "c", "d", "e", "f"},
			k:      5,
			want:   []string{"a b c d e", "b c d e f"},
		},
		{
			name:   "exact length",
			tokens: []string{"fed", "holds", "rates"},
			k:      3,
			want:   []string{"fed holds rates"},
		},
		{
			name:   "short falls back to tokens",
			tokens: []string{"storm", "hits", "storm"},
			k:      5,
			want:   []string{"hits", "storm"},
		},
		{
			name:   "repeated windows collapse",
			tokens: []string{"go", "go", "go", "go"},
			k:      2,
			want:   []string{"go go"},
		},
		{
			name:   "unigrams",
			tokens: []string{"b", "a"},
			k:      1,
			want:   []string{"a", "b"},
		},
		{
			name:   "empty",
			tokens: nil,
			k:      5,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shingles(tt.tokens, tt.k))
		})
	}
}

func TestShinglesPanicsOnNonPositiveK(t *testing.T) {
	assert.Panics(t, func() { Shingles([]string{"a"}, 0) })
}
