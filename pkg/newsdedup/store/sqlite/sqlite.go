package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	threshold REAL NOT NULL,
	shingle_size INTEGER NOT NULL,
	num_perm INTEGER NOT NULL,
	block_by_date INTEGER NOT NULL,
	bands INTEGER NOT NULL,
	rows_per_band INTEGER NOT NULL,
	records INTEGER NOT NULL,
	exact_groups INTEGER NOT NULL,
	near_clusters INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	article_id TEXT NOT NULL,
	title TEXT,
	publication_date TEXT,
	source_url TEXT,
	content_snippet TEXT,
	exact_duplicate_of TEXT NOT NULL,
	near_duplicate_of TEXT NOT NULL,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_results_article ON results(article_id);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes the run row and all result rows in one transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, run store.Run, rows []store.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id=?`, run.ID).Scan(&exists)
	switch {
	case err == nil:
		return fmt.Errorf("run %s: %w", run.ID, internalerr.ErrDuplicate)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	const runStmt = `
INSERT INTO runs (id, created_at, threshold, shingle_size, num_perm, block_by_date,
	bands, rows_per_band, records, exact_groups, near_clusters)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err = tx.ExecContext(ctx, runStmt,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Threshold,
		run.ShingleSize,
		run.NumPerm,
		boolToInt(run.BlockByDate),
		run.Bands,
		run.RowsPerBand,
		run.Records,
		run.ExactGroups,
		run.NearClusters,
	)
	if err != nil {
		return err
	}

	if err := insertRows(ctx, tx, run.ID, rows); err != nil {
		return err
	}

	return tx.Commit()
}

func insertRows(ctx context.Context, tx *sql.Tx, runID string, rows []store.Row) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO results (run_id, position, article_id, title, publication_date, source_url,
	content_snippet, exact_duplicate_of, near_duplicate_of)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			runID,
			r.Position,
			r.ArticleID,
			r.Title,
			r.PublicationDate,
			r.SourceURL,
			r.ContentSnippet,
			r.ExactDuplicateOf,
			r.NearDuplicateOf,
		); err != nil {
			return err
		}
	}
	return nil
}

const runColumns = `id, created_at, threshold, shingle_size, num_perm, block_by_date,
	bands, rows_per_band, records, exact_groups, near_clusters`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var (
		run       store.Run
		createdAt string
		block     int
	)
	err := sc.Scan(
		&run.ID,
		&createdAt,
		&run.Threshold,
		&run.ShingleSize,
		&run.NumPerm,
		&block,
		&run.Bands,
		&run.RowsPerBand,
		&run.Records,
		&run.ExactGroups,
		&run.NearClusters,
	)
	if err != nil {
		return store.Run{}, err
	}
	run.BlockByDate = block != 0
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}

// GetRun loads a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return run, err
}

// ListRuns returns runs newest first; ULIDs sort by creation time.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Rows returns a run's result rows ordered by input position.
func (s *sqliteStore) Rows(ctx context.Context, runID string) ([]store.Row, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT position, article_id, title, publication_date, source_url, content_snippet,
	exact_duplicate_of, near_duplicate_of
FROM results WHERE run_id=? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var r store.Row
		if err := rows.Scan(
			&r.Position,
			&r.ArticleID,
			&r.Title,
			&r.PublicationDate,
			&r.SourceURL,
			&r.ContentSnippet,
			&r.ExactDuplicateOf,
			&r.NearDuplicateOf,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
