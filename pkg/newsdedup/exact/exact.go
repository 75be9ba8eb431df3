// Package exact groups documents whose normalized text is byte-identical.
package exact

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cognicore/newsdedup/pkg/newsdedup/ingest"
)

// Fingerprint returns the hex SHA-256 of the UTF-8 bytes of text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Detect returns, for each doc in order, the ID of the first doc with the
// same fingerprint. The first doc of a group is its own representative.
// Fingerprint collisions are treated as equality.
func Detect(docs []ingest.Doc) []string {
	first := make(map[string]string, len(docs))
	reps := make([]string, len(docs))
	for i, d := range docs {
		fp := Fingerprint(d.Text)
		rep, ok := first[fp]
		if !ok {
			rep = d.ID
			first[fp] = rep
		}
		reps[i] = rep
	}
	return reps
}
