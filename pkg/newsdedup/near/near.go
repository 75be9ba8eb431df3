// Package near clusters near-duplicate documents with MinHash and LSH.
package near

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/newsdedup/pkg/newsdedup/ingest"
	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
	"github.com/cognicore/newsdedup/pkg/newsdedup/lsh"
	"github.com/cognicore/newsdedup/pkg/newsdedup/minhash"
	"github.com/cognicore/newsdedup/pkg/newsdedup/shingle"
)

// Options configures a Clusterer.
type Options struct {
	Params      lsh.Params // banding layout, see lsh.OptimalParams
	ShingleSize int
	Workers     int // parallel signers; <= 0 means GOMAXPROCS
}

// Clusterer assigns each document to a near-duplicate representative.
// One Clusterer may serve several independent Cluster calls concurrently;
// each call builds its own index.
type Clusterer struct {
	signer      *minhash.Signer
	params      lsh.Params
	shingleSize int
	workers     int
}

// NewClusterer creates a clusterer around a shared signer.
func NewClusterer(signer *minhash.Signer, opts Options) (*Clusterer, error) {
	if opts.ShingleSize <= 0 {
		return nil, &internalerr.ConfigError{Field: "shingle_size", Msg: fmt.Sprintf("must be positive, got %d", opts.ShingleSize)}
	}
	if err := opts.Params.Validate(signer.NumPerm()); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Clusterer{
		signer:      signer,
		params:      opts.Params,
		shingleSize: opts.ShingleSize,
		workers:     workers,
	}, nil
}

// Signatures shingles and signs every doc, in parallel, preserving order.
func (c *Clusterer) Signatures(ctx context.Context, docs []ingest.Doc) ([]minhash.Signature, error) {
	sigs := make([]minhash.Signature, len(docs))

	chunk := (len(docs) + c.workers - 1) / c.workers
	if chunk == 0 {
		return sigs, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(docs); start += chunk {
		end := min(start+chunk, len(docs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				sigs[i] = c.signer.Sign(shingle.Shingles(docs[i].Tokens, c.shingleSize))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sigs, nil
}

// Cluster returns, for each doc in order, the ID of its representative.
//
// Docs are visited in order. An unvisited doc queries the index; the member
// of the returned group with the numerically smallest ID becomes the
// representative, and every member not yet assigned takes it. Members
// already assigned by an earlier group keep their assignment, so groups
// are not merged transitively and the outcome depends on input order.
func (c *Clusterer) Cluster(ctx context.Context, docs []ingest.Doc) ([]string, error) {
	nums := make([]int64, len(docs))
	for i, d := range docs {
		n, err := ingest.Record{ArticleID: d.ID}.NumericID()
		if err != nil {
			return nil, &internalerr.InputError{Field: "article_id", Msg: fmt.Sprintf("not an integer: %q", d.ID)}
		}
		nums[i] = n
	}

	sigs, err := c.Signatures(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("sign docs: %w", err)
	}

	idx, err := lsh.New(c.params, c.signer.NumPerm())
	if err != nil {
		return nil, err
	}
	for i, sig := range sigs {
		if err := idx.Insert(i, sig); err != nil {
			return nil, fmt.Errorf("index doc %s: %w", docs[i].ID, err)
		}
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return assign(ctx, ids, nums, func(i int) []int { return idx.Query(sigs[i]) })
}

// assign runs the greedy single pass over candidate groups returned by query.
func assign(ctx context.Context, ids []string, nums []int64, query func(i int) []int) ([]string, error) {
	reps := make([]string, len(ids))
	visited := make([]bool, len(ids))
	for i := range ids {
		if visited[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		group := query(i)
		rep := i
		for _, m := range group {
			if nums[m] < nums[rep] {
				rep = m
			}
		}
		for _, m := range group {
			if visited[m] {
				continue
			}
			reps[m] = ids[rep]
			visited[m] = true
		}
		// The seed always belongs to its own group.
		if !visited[i] {
			reps[i] = ids[rep]
			visited[i] = true
		}
	}
	return reps, nil
}
