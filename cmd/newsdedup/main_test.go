package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

const sampleCSV = `article_id,title,publication_date,source_url,content_snippet
100,Breaking News,2026-05-01,https://a.example/1,Today
7,breaking news,2026-05-01,https://b.example/2,<b>today</b>!
31,Local team wins the regional cup,2026-05-02,https://c.example/3,A late goal sealed it
`

func TestDedupWritesAnnotatedCSV(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", sampleCSV)
	out := filepath.Join(dir, "out.csv")

	stdout, _, err := execute(t, "--input", in, "--output", out, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 records, 2 exact groups (1 duplicates), 2 near clusters (1 duplicates)")

	rows := readCSV(t, out)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{
		"article_id", "title", "publication_date", "source_url", "content_snippet",
		"exact_duplicate_of", "near_duplicate_of",
	}, rows[0])
	assert.Equal(t, []string{"100", "100", "7"}, []string{rows[1][0], rows[1][5], rows[1][6]})
	assert.Equal(t, []string{"7", "100", "7"}, []string{rows[2][0], rows[2][5], rows[2][6]})
	assert.Equal(t, []string{"31", "31", "31"}, []string{rows[3][0], rows[3][5], rows[3][6]})
	assert.Equal(t, "<b>today</b>!", rows[2][4])
}

func TestDedupJSONLWithoutDatesWarnsWhenBlocking(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.jsonl",
		`{"article_id": 2, "title": "Rates held steady"}`+"\n"+
			`{"article_id": 1, "title": "Rates held steady"}`+"\n")
	out := filepath.Join(dir, "out.csv")

	_, stderr, err := execute(t, "-i", in, "-o", out, "--block-by-date", "--log-json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "no publication_date column")

	rows := readCSV(t, out)
	assert.Equal(t, "1", rows[1][6])
	assert.Equal(t, "1", rows[2][6])
}

func TestDedupConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", sampleCSV)
	cfgPath := writeFile(t, dir, "newsdedup.yaml", "threshold: 0.5\nnum_perm: 64\n")
	out := filepath.Join(dir, "out.csv")

	_, stderr, err := execute(t, "-i", in, "-o", out, "--config", cfgPath, "--threshold", "0.9", "--log-json")
	require.NoError(t, err)

	// File sets num_perm, the flag wins for threshold.
	assert.Contains(t, stderr, `"threshold":0.9`)
	assert.Contains(t, stderr, `"num_perm":64`)
	assert.Contains(t, stderr, `"lsh":"3 bands x 21 rows"`)
}

func TestDedupRejectsBadConfigBeforeReading(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	// The input does not exist; the config error must come first.
	_, _, err := execute(t, "-i", filepath.Join(dir, "missing.csv"), "-o", out, "--threshold", "1.5")
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
	assert.Equal(t, 2, exitCode(err))

	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestDedupRejectsBadRecords(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "article_id,title\n1,a\nabc,b\n")
	out := filepath.Join(dir, "out.csv")

	_, _, err := execute(t, "-i", in, "-o", out)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "row 2")

	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestDedupRequiresInputAndOutput(t *testing.T) {
	_, _, err := execute(t, "--output", "x.csv")
	assert.ErrorContains(t, err, "input")
}

func TestRunsListAndShow(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", sampleCSV)
	db := filepath.Join(dir, "runs.db")

	stdout, _, err := execute(t, "-i", in, "-o", filepath.Join(dir, "out.csv"), "--db", db, "--log-level", "error")
	require.NoError(t, err)
	runID := strings.Fields(strings.TrimPrefix(stdout, "run "))[0]
	runID = strings.TrimSuffix(runID, ":")
	require.Len(t, runID, 26)

	stdout, _, err = execute(t, "runs", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "RUN")
	assert.Contains(t, stdout, runID)
	assert.Contains(t, stdout, "9x13")

	stdout, _, err = execute(t, "runs", "show", runID, "--db", db)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "https://b.example/2", rows[2][3])
	assert.Equal(t, "100", rows[2][5])

	_, _, err = execute(t, "runs", "show", "01J00000000000000000000000", "--db", db)
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestParamsCommand(t *testing.T) {
	stdout, _, err := execute(t, "params")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bands:           9\n")
	assert.Contains(t, stdout, "rows per band:   13\n")

	stdout, _, err = execute(t, "params", "--threshold", "0.5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bands:           25\n")
	assert.Contains(t, stdout, "rows per band:   5\n")

	_, _, err = execute(t, "params", "--threshold", "0")
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger(&bytes.Buffer{}, "loud", false)
	assert.Error(t, err)
}
