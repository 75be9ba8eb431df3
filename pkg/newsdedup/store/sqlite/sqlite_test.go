package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/newsdedup/pkg/newsdedup/store"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		return st
	})
}

func TestSQLiteReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	run := store.Run{ID: "01J00000000000000000000009", Records: 1}
	rows := []store.Row{{ArticleID: "5", ExactDuplicateOf: "5", NearDuplicateOf: "5"}}
	if err := st.SaveRun(ctx, run, rows); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Schema creation must be idempotent.
	st, err = OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	got, err := st.Rows(ctx, run.ID)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(got) != 1 || got[0].ArticleID != "5" {
		t.Errorf("Expected persisted row for article 5, got %+v", got)
	}
}
