package ingest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/newsdedup/pkg/newsdedup/stoplist"
)

func TestNormalizerBasic(t *testing.T) {
	normalizer := NewNormalizer(stoplist.NewManager([]string{"the", "a", "and", "of", "over"}))

	tokens := normalizer.Normalize("The quick brown fox jumps over the lazy dog")

	expected := []string{"quick", "brown", "fox", "jumps", "lazy", "dog"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizerStripsTags(t *testing.T) {
	normalizer := NewNormalizer(nil)

	tokens := normalizer.Normalize("<p>Markets <b>rally</b></p> today")

	expected := []string{"markets", "rally", "today"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizerTagPatternIsNonGreedy(t *testing.T) {
	normalizer := NewNormalizer(nil)

	// Each tag is replaced on its own; the text between them survives.
	tokens := normalizer.Normalize("<a href='x'>central bank</a> cuts <i>rates</i>")

	expected := []string{"central", "bank", "cuts", "rates"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizerHTMLParserMode(t *testing.T) {
	normalizer := NewNormalizer(nil, WithHTMLParser())

	tokens := normalizer.Normalize("<div class=\"lede\">Storm&nbsp;hits <em>coast</em></div>")

	expected := []string{"storm", "hits", "coast"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizerPunctuationBecomesSpace(t *testing.T) {
	normalizer := NewNormalizer(nil)

	tokens := normalizer.Normalize("U.S.-China trade: talks resume (again)!")

	// "u" and "s" are single characters and dropped.
	expected := []string{"china", "trade", "talks", "resume", "again"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizerCaseNormalization(t *testing.T) {
	normalizer := NewNormalizer(nil)

	tokens := normalizer.Normalize("BREAKING News TODAY")

	for _, tok := range tokens {
		if tok != strings.ToLower(tok) {
			t.Errorf("Token %s should be lowercased", tok)
		}
	}
}

func TestNormalizerKeepsDuplicatesInOrder(t *testing.T) {
	normalizer := NewNormalizer(nil)

	tokens := normalizer.Normalize("vote count vote recount vote")

	expected := []string{"vote", "count", "vote", "recount", "vote"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizerEmptyInput(t *testing.T) {
	normalizer := NewNormalizer(stoplist.English())

	tokens := normalizer.Normalize("")
	if len(tokens) != 0 {
		t.Error("Empty input should produce empty output")
	}
}

func TestNormalizerWhitespaceOnly(t *testing.T) {
	normalizer := NewNormalizer(nil)

	tokens := normalizer.Normalize("   \t\n\r   ")

	if len(tokens) != 0 {
		t.Errorf("Whitespace-only input should produce 0 tokens, got %d", len(tokens))
	}
}

func TestNormalizerUnicodeLettersAreSeparators(t *testing.T) {
	normalizer := NewNormalizer(nil)

	tokens := normalizer.Normalize("café résumé")

	// Non-ASCII letters are replaced by spaces, splitting the words.
	expected := []string{"caf", "sum"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizerSingleCharacterFiltering(t *testing.T) {
	normalizer := NewNormalizer(nil)

	tokens := normalizer.Normalize("a b c 7 machine learning")

	for _, tok := range tokens {
		if len(tok) == 1 {
			t.Errorf("Single character token should be filtered: %s", tok)
		}
	}
	if len(tokens) != 2 {
		t.Errorf("Expected 2 tokens, got %v", tokens)
	}
}

func TestNormalizerIdempotent(t *testing.T) {
	normalizer := NewNormalizer(stoplist.English())
	raw := "<h1>Fed holds rates</h1> The Federal Reserve kept rates unchanged on Wednesday."

	first := normalizer.Normalize(raw)
	second := normalizer.Normalize(raw)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalize should be deterministic: %v vs %v", first, second)
	}
}

func TestNormalizerCustomTokenizer(t *testing.T) {
	var seen string
	normalizer := NewNormalizer(nil, WithTokenizer(func(text string) []string {
		seen = text
		return strings.Split(strings.TrimSpace(text), " ")
	}))

	tokens := normalizer.Normalize("Oil, gas")

	if seen != "oil  gas" {
		t.Errorf("Tokenizer should receive cleaned text, got %q", seen)
	}
	// Splitting on a single space leaves an empty token, which the length
	// filter drops.
	expected := []string{"oil", "gas"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestNormalizeRecord(t *testing.T) {
	normalizer := NewNormalizer(stoplist.English())

	doc := normalizer.NormalizeRecord(Record{
		ArticleID:      "42",
		Title:          "Breaking: News",
		ContentSnippet: "<p>Today</p>",
	})

	if doc.ID != "42" {
		t.Errorf("Expected ID 42, got %s", doc.ID)
	}
	if doc.Text != "breaking news today" {
		t.Errorf("Expected 'breaking news today', got %q", doc.Text)
	}
}

func TestNormalizeRecordEmptyFields(t *testing.T) {
	normalizer := NewNormalizer(stoplist.English())

	doc := normalizer.NormalizeRecord(Record{ArticleID: "1"})

	if !doc.Empty() || doc.Text != "" {
		t.Errorf("Empty title and snippet should normalize to nothing, got %+v", doc)
	}
}
