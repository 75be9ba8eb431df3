// Package storetest holds the behavior every store.Store implementation
// must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store"
)

// Run exercises a fresh store returned by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("SaveAndLoad", func(t *testing.T) { testSaveAndLoad(t, open(t)) })
	t.Run("Duplicate", func(t *testing.T) { testDuplicate(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, open(t)) })
}

func sampleRun(id string) store.Run {
	return store.Run{
		ID:           id,
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Threshold:    0.8,
		ShingleSize:  5,
		NumPerm:      128,
		BlockByDate:  true,
		Bands:        9,
		RowsPerBand:  13,
		Records:      2,
		ExactGroups:  1,
		NearClusters: 1,
	}
}

func sampleRows() []store.Row {
	return []store.Row{
		{
			Position:         0,
			ArticleID:        "1",
			Title:            "Breaking news",
			PublicationDate:  "2026-03-01",
			SourceURL:        "https://example.com/a",
			ContentSnippet:   "today",
			ExactDuplicateOf: "1",
			NearDuplicateOf:  "1",
		},
		{
			Position:         1,
			ArticleID:        "2",
			Title:            "Breaking news",
			PublicationDate:  "2026-03-01",
			SourceURL:        "https://example.com/b",
			ContentSnippet:   "today",
			ExactDuplicateOf: "1",
			NearDuplicateOf:  "1",
		},
	}
}

func testSaveAndLoad(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	run := sampleRun("01J0000000000000000000000A")
	require.NoError(t, st.SaveRun(ctx, run, sampleRows()))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.Threshold, got.Threshold)
	assert.Equal(t, run.Bands, got.Bands)
	assert.Equal(t, run.RowsPerBand, got.RowsPerBand)
	assert.True(t, got.BlockByDate)
	assert.Equal(t, 2, got.Records)

	rows, err := st.Rows(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
}

func testDuplicate(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	run := sampleRun("01J0000000000000000000000B")
	require.NoError(t, st.SaveRun(ctx, run, nil))

	err := st.SaveRun(ctx, run, sampleRows())
	assert.ErrorIs(t, err, internalerr.ErrDuplicate)

	// The failed save must not leak rows.
	rows, err := st.Rows(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testNotFound(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	_, err := st.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)

	_, err = st.Rows(ctx, "missing")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func testListOrder(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	for _, id := range []string{"01J00000000000000000000001", "01J00000000000000000000003", "01J00000000000000000000002"} {
		require.NoError(t, st.SaveRun(ctx, sampleRun(id), nil))
	}

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "01J00000000000000000000003", runs[0].ID)
	assert.Equal(t, "01J00000000000000000000001", runs[2].ID)

	limited, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
