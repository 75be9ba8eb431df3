package ingest

// Doc is a record after normalization. Text is Tokens joined by single
// spaces and is what exact-duplicate fingerprints are taken over.
type Doc struct {
	ID     string
	Tokens []string
	Text   string
}

// Empty reports whether normalization left no tokens.
func (d Doc) Empty() bool {
	return len(d.Tokens) == 0
}
