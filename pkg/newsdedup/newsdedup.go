package newsdedup

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/newsdedup/pkg/newsdedup/config"
	"github.com/cognicore/newsdedup/pkg/newsdedup/exact"
	"github.com/cognicore/newsdedup/pkg/newsdedup/ingest"
	"github.com/cognicore/newsdedup/pkg/newsdedup/lsh"
	"github.com/cognicore/newsdedup/pkg/newsdedup/minhash"
	"github.com/cognicore/newsdedup/pkg/newsdedup/near"
	"github.com/cognicore/newsdedup/pkg/newsdedup/stoplist"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store"
)

// Deduper is the batch dedup engine facade
type Deduper struct {
	cfg       config.Config
	params    lsh.Params
	pipeline  *ingest.Pipeline
	clusterer *near.Clusterer
	store     store.Store
	log       zerolog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures a Deduper instance
type Options struct {
	Config     config.Config
	Normalizer *ingest.Normalizer // nil uses the English stoplist
	Store      store.Store        // optional sink for finished runs
	Logger     *zerolog.Logger    // nil disables logging
}

// New validates the configuration and creates a Deduper.
func New(opts Options) (*Deduper, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params, err := lsh.OptimalParams(cfg.Threshold, cfg.NumPerm)
	if err != nil {
		return nil, err
	}

	clusterer, err := near.NewClusterer(minhash.NewSigner(cfg.NumPerm, cfg.Seed), near.Options{
		Params:      params,
		ShingleSize: cfg.ShingleSize,
		Workers:     cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = ingest.NewNormalizer(stoplist.English())
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Deduper{
		cfg:       cfg,
		params:    params,
		pipeline:  ingest.NewPipeline(normalizer),
		clusterer: clusterer,
		store:     opts.Store,
		log:       logger,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Params returns the LSH banding layout derived from the configuration.
func (d *Deduper) Params() lsh.Params {
	return d.params
}

// Close cleanly shuts down the configured store, if any.
func (d *Deduper) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

// Result is the dedup outcome for one record.
type Result struct {
	ingest.Record
	ExactDuplicateOf string
	NearDuplicateOf  string
}

// Stats summarizes a run.
type Stats struct {
	Records         int
	ExactGroups     int // distinct exact representatives
	ExactDuplicates int // records whose exact representative is another record
	NearClusters    int // distinct near representatives
	NearDuplicates  int // records whose near representative is another record
	Partitions      int
}

// Report is the output of one batch run. Results are in input order.
type Report struct {
	RunID     string
	CreatedAt time.Time
	Params    lsh.Params
	Results   []Result
	Stats     Stats
}

// Run deduplicates a batch. Any invalid record, cancellation, or store
// failure aborts the whole run and no report is returned.
func (d *Deduper) Run(ctx context.Context, records []ingest.Record) (*Report, error) {
	runID, createdAt := d.newRunID()
	log := d.log.With().Str("run_id", runID).Logger()
	log.Info().
		Int("records", len(records)).
		Float64("threshold", d.cfg.Threshold).
		Int("shingle_size", d.cfg.ShingleSize).
		Int("num_perm", d.cfg.NumPerm).
		Stringer("lsh", d.params).
		Bool("block_by_date", d.cfg.BlockByDate).
		Msg("dedup run started")

	docs, err := d.pipeline.Process(records)
	if err != nil {
		return nil, err
	}

	exactReps := exact.Detect(docs)

	partitions := [][]int{allIndices(len(docs))}
	if d.cfg.BlockByDate {
		partitions = partitionByDate(records)
	}
	log.Debug().Int("partitions", len(partitions)).Msg("clustering near duplicates")

	nearReps, err := d.clusterPartitions(ctx, docs, partitions)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     runID,
		CreatedAt: createdAt,
		Params:    d.params,
		Results:   make([]Result, len(records)),
	}
	for i, r := range records {
		report.Results[i] = Result{
			Record:           r,
			ExactDuplicateOf: exactReps[i],
			NearDuplicateOf:  nearReps[i],
		}
	}
	report.Stats = summarize(report.Results, len(partitions))

	if d.store != nil {
		if err := d.save(ctx, report); err != nil {
			return nil, fmt.Errorf("save run %s: %w", runID, err)
		}
		log.Debug().Msg("run saved")
	}

	log.Info().
		Int("exact_groups", report.Stats.ExactGroups).
		Int("exact_duplicates", report.Stats.ExactDuplicates).
		Int("near_clusters", report.Stats.NearClusters).
		Int("near_duplicates", report.Stats.NearDuplicates).
		Dur("elapsed", time.Since(createdAt)).
		Msg("dedup run finished")

	return report, nil
}

// clusterPartitions runs the clusterer independently on each partition and
// merges representatives back into input positions.
func (d *Deduper) clusterPartitions(ctx context.Context, docs []ingest.Doc, partitions [][]int) ([]string, error) {
	reps := make([]string, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for _, part := range partitions {
		g.Go(func() error {
			sub := make([]ingest.Doc, len(part))
			for j, idx := range part {
				sub[j] = docs[idx]
			}
			subReps, err := d.clusterer.Cluster(ctx, sub)
			if err != nil {
				return err
			}
			// Partitions are disjoint, so writes never overlap.
			for j, idx := range part {
				reps[idx] = subReps[j]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cluster near duplicates: %w", err)
	}
	return reps, nil
}

func (d *Deduper) save(ctx context.Context, report *Report) error {
	run := store.Run{
		ID:           report.RunID,
		CreatedAt:    report.CreatedAt,
		Threshold:    d.cfg.Threshold,
		ShingleSize:  d.cfg.ShingleSize,
		NumPerm:      d.cfg.NumPerm,
		BlockByDate:  d.cfg.BlockByDate,
		Bands:        report.Params.Bands,
		RowsPerBand:  report.Params.Rows,
		Records:      report.Stats.Records,
		ExactGroups:  report.Stats.ExactGroups,
		NearClusters: report.Stats.NearClusters,
	}
	rows := make([]store.Row, len(report.Results))
	for i, res := range report.Results {
		rows[i] = store.Row{
			Position:         i,
			ArticleID:        res.ArticleID,
			Title:            res.Title,
			PublicationDate:  res.PublicationDate,
			SourceURL:        res.SourceURL,
			ContentSnippet:   res.ContentSnippet,
			ExactDuplicateOf: res.ExactDuplicateOf,
			NearDuplicateOf:  res.NearDuplicateOf,
		}
	}
	return d.store.SaveRun(ctx, run, rows)
}

// newRunID returns a monotonic ULID and its timestamp.
func (d *Deduper) newRunID() (string, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), d.entropy)
	return id.String(), now
}

// partitionByDate groups record positions by publication date, in order of
// first appearance. Records without a date share one partition.
func partitionByDate(records []ingest.Record) [][]int {
	byKey := make(map[string]int)
	var parts [][]int
	for i, r := range records {
		p, ok := byKey[r.PublicationDate]
		if !ok {
			p = len(parts)
			byKey[r.PublicationDate] = p
			parts = append(parts, nil)
		}
		parts[p] = append(parts[p], i)
	}
	return parts
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func summarize(results []Result, partitions int) Stats {
	s := Stats{Records: len(results), Partitions: partitions}
	exactReps := make(map[string]struct{})
	nearReps := make(map[string]struct{})
	for _, r := range results {
		exactReps[r.ExactDuplicateOf] = struct{}{}
		nearReps[r.NearDuplicateOf] = struct{}{}
		if r.ExactDuplicateOf != r.ArticleID {
			s.ExactDuplicates++
		}
		if r.NearDuplicateOf != r.ArticleID {
			s.NearDuplicates++
		}
	}
	s.ExactGroups = len(exactReps)
	s.NearClusters = len(nearReps)
	return s
}
