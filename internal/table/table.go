// Package table reads article tables from CSV or JSONL files and writes
// dedup results back out as CSV.
package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/newsdedup/pkg/newsdedup"
	"github.com/cognicore/newsdedup/pkg/newsdedup/ingest"
	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
)

// Column names shared by the input and output tables.
const (
	ColArticleID       = "article_id"
	ColTitle           = "title"
	ColPublicationDate = "publication_date"
	ColSourceURL       = "source_url"
	ColContentSnippet  = "content_snippet"
	ColExactDuplicate  = "exact_duplicate_of"
	ColNearDuplicate   = "near_duplicate_of"
)

// OutputHeader is the column order of WriteCSV.
var OutputHeader = []string{
	ColArticleID, ColTitle, ColPublicationDate, ColSourceURL, ColContentSnippet,
	ColExactDuplicate, ColNearDuplicate,
}

// Table is a loaded input batch.
type Table struct {
	Records []ingest.Record
	// HasPublicationDate reports whether the input carries a
	// publication_date column at all. Blocking is meaningless without it.
	HasPublicationDate bool
}

// Read loads path as JSONL when its extension is .jsonl or .ndjson and as
// CSV otherwise.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	var t *Table
	if IsJSONL(path) {
		t, err = ReadJSONL(f)
	} else {
		t, err = ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// IsJSONL reports whether path names a line-delimited JSON file.
func IsJSONL(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}

// ReadCSV parses a CSV table with a header row. Columns may come in any
// order and unknown columns are ignored; article_id is required.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &internalerr.InputError{Msg: "missing header row"}
	}
	if err != nil {
		return nil, csvError(err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	if _, ok := cols[ColArticleID]; !ok {
		return nil, &internalerr.InputError{Field: ColArticleID, Msg: "missing column"}
	}
	_, hasDate := cols[ColPublicationDate]

	field := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	t := &Table{HasPublicationDate: hasDate}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		t.Records = append(t.Records, ingest.Record{
			ArticleID:       field(row, ColArticleID),
			Title:           field(row, ColTitle),
			PublicationDate: field(row, ColPublicationDate),
			SourceURL:       field(row, ColSourceURL),
			ContentSnippet:  field(row, ColContentSnippet),
		})
	}
	return t, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &internalerr.InputError{Line: pe.Line, Msg: pe.Err.Error()}
	}
	return fmt.Errorf("read csv: %w", err)
}

// ReadJSONL parses one JSON object per line using the CSV column names as
// keys. Blank lines are skipped. article_id may be a JSON string or number.
func ReadJSONL(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	t := &Table{}
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, &internalerr.InputError{Line: line, Msg: "malformed json: " + err.Error()}
		}

		if _, ok := obj[ColPublicationDate]; ok {
			t.HasPublicationDate = true
		}
		var rec ingest.Record
		fields := []struct {
			key string
			dst *string
		}{
			{ColArticleID, &rec.ArticleID},
			{ColTitle, &rec.Title},
			{ColPublicationDate, &rec.PublicationDate},
			{ColSourceURL, &rec.SourceURL},
			{ColContentSnippet, &rec.ContentSnippet},
		}
		for _, f := range fields {
			v, err := jsonField(obj, f.key)
			if err != nil {
				return nil, &internalerr.InputError{Line: line, Field: f.key, Msg: err.Error()}
			}
			*f.dst = v
		}
		t.Records = append(t.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}
	return t, nil
}

// jsonField renders a scalar JSON value as the string a CSV cell would hold.
// Missing keys and null read as empty.
func jsonField(obj map[string]any, key string) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("expected a scalar, got %T", v)
	}
}

// WriteCSV writes results with OutputHeader, one row per result in order.
func WriteCSV(w io.Writer, results []newsdedup.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.ArticleID, r.Title, r.PublicationDate, r.SourceURL, r.ContentSnippet,
			r.ExactDuplicateOf, r.NearDuplicateOf,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", r.ArticleID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes results to path, replacing it only once every row has
// been written.
func WriteFile(path string, results []newsdedup.Result) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, results); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
