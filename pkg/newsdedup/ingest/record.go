package ingest

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
)

// Record is one news article row as loaded from the input table.
type Record struct {
	ArticleID       string
	Title           string
	PublicationDate string // optional; blocking key
	SourceURL       string
	ContentSnippet  string
}

// Validate checks if the record has the required fields
func (r Record) Validate() error {
	if strings.TrimSpace(r.ArticleID) == "" {
		return &internalerr.InputError{Field: "article_id", Msg: "required"}
	}
	if _, err := r.NumericID(); err != nil {
		return &internalerr.InputError{Field: "article_id", Msg: "not an integer: " + strconv.Quote(r.ArticleID)}
	}
	return nil
}

// NumericID parses ArticleID as a base-10 integer.
func (r Record) NumericID() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(r.ArticleID), 10, 64)
}

// Text is the raw text the normalizer sees: title and snippet.
func (r Record) Text() string {
	return r.Title + " " + r.ContentSnippet
}

// ValidateBatch validates every record and rejects ids that are equal by
// numeric value. Errors carry the 1-based row of the offending record.
func ValidateBatch(records []Record) error {
	seen := make(map[int64]int, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			var ie *internalerr.InputError
			if errors.As(err, &ie) {
				ie.Line = i + 1
			}
			return err
		}
		id, _ := r.NumericID()
		if prev, ok := seen[id]; ok {
			return &internalerr.InputError{
				Line:  i + 1,
				Field: "article_id",
				Msg:   "duplicate of row " + strconv.Itoa(prev),
			}
		}
		seen[id] = i + 1
	}
	return nil
}
