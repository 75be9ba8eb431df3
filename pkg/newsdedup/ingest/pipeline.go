package ingest

import "fmt"

// Pipeline orchestrates the ingestion flow:
// records → validation → normalization
type Pipeline struct {
	normalizer *Normalizer
}

// NewPipeline creates an ingestion pipeline with the given normalizer
func NewPipeline(normalizer *Normalizer) *Pipeline {
	return &Pipeline{normalizer: normalizer}
}

// Process validates the batch and normalizes every record, preserving order.
// A single invalid record rejects the whole batch.
func (p *Pipeline) Process(records []Record) ([]Doc, error) {
	if err := ValidateBatch(records); err != nil {
		return nil, fmt.Errorf("validate records: %w", err)
	}

	docs := make([]Doc, len(records))
	for i, r := range records {
		docs[i] = p.normalizer.NormalizeRecord(r)
	}
	return docs, nil
}
