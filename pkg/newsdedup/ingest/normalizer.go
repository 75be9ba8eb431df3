package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var tagPattern = regexp.MustCompile(`<.*?>`)

// StopSet reports whether a token is a stopword.
// *stoplist.Manager satisfies it.
type StopSet interface {
	IsStop(token string) bool
}

// TokenizeFunc splits cleaned text into tokens.
type TokenizeFunc func(text string) []string

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithTokenizer replaces the default whitespace tokenizer.
func WithTokenizer(fn TokenizeFunc) Option {
	return func(n *Normalizer) {
		n.tokenize = fn
	}
}

// WithHTMLParser strips markup by tokenizing it as HTML and keeping only
// text nodes, instead of the default `<...>` pattern replacement.
func WithHTMLParser() Option {
	return func(n *Normalizer) {
		n.stripTags = stripTagsParsed
	}
}

// Normalizer turns raw article text into a lowercase, stopword-filtered
// token sequence.
type Normalizer struct {
	stops     StopSet
	tokenize  TokenizeFunc
	stripTags func(string) string
}

// NewNormalizer creates a normalizer using the given stopword set.
// A nil set filters nothing but single-character tokens.
func NewNormalizer(stops StopSet, opts ...Option) *Normalizer {
	n := &Normalizer{
		stops:     stops,
		tokenize:  strings.Fields,
		stripTags: stripTagsPattern,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lowercases raw, strips markup and punctuation, tokenizes, and
// drops stopwords and tokens of length <= 1. Token order and repeats are
// preserved.
func (n *Normalizer) Normalize(raw string) []string {
	text := strings.ToLower(raw)
	text = n.stripTags(text)
	text = strings.Map(keepAlnum, text)

	var tokens []string
	for _, tok := range n.tokenize(text) {
		if len(tok) <= 1 {
			continue
		}
		if n.stops != nil && n.stops.IsStop(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// NormalizeRecord normalizes the title and snippet of r.
func (n *Normalizer) NormalizeRecord(r Record) Doc {
	tokens := n.Normalize(r.Text())
	return Doc{
		ID:     r.ArticleID,
		Tokens: tokens,
		Text:   strings.Join(tokens, " "),
	}
}

// keepAlnum maps every rune outside [a-z0-9] and whitespace to a space.
func keepAlnum(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
		return r
	}
	return ' '
}

func stripTagsPattern(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

func stripTagsParsed(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		default:
			b.WriteByte(' ')
		}
	}
}
