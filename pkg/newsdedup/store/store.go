package store

import (
	"context"
	"time"
)

// Store persists the output table of finished dedup runs. Signatures and
// other intermediate state are never stored.
type Store interface {
	Close() error

	// SaveRun writes a run and its rows atomically. Saving an existing run
	// ID fails with internalerr.ErrDuplicate.
	SaveRun(ctx context.Context, run Run, rows []Row) error

	// GetRun fails with internalerr.ErrNotFound for unknown IDs.
	GetRun(ctx context.Context, id string) (Run, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Rows returns a run's rows in input order.
	Rows(ctx context.Context, runID string) ([]Row, error)
}

// Run describes one batch run and its parameters.
type Run struct {
	ID           string // ULID
	CreatedAt    time.Time
	Threshold    float64
	ShingleSize  int
	NumPerm      int
	BlockByDate  bool
	Bands        int
	RowsPerBand  int
	Records      int
	ExactGroups  int
	NearClusters int
}

// Row is one output row.
type Row struct {
	Position         int // 0-based input position
	ArticleID        string
	Title            string
	PublicationDate  string
	SourceURL        string
	ContentSnippet   string
	ExactDuplicateOf string
	NearDuplicateOf  string
}
