// Package normalizer turns raw harvested records into an ordered batch ready
// to be written.
package normalizer

import (
	"xkcdharvest/internal/models"
)

// Processor handles record validation and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process drops invalid records and returns the rest deduplicated and sorted.
// The input slice is not modified.
func (p *Processor) Process(records []models.Record) *Batch {
	valid := make([]models.Record, 0, len(records))

	var rejections []Rejection

	// 1. Validate each record
	for i := range records {
		if err := p.validator.Validate(&records[i]); err != nil {
			rejections = append(rejections, Rejection{ExplainedURL: records[i].ExplainedURL, Err: err})

			continue
		}

		valid = append(valid, records[i])
	}

	// 2. Deduplicate, sort and summarize
	batch := p.transformer.Transform(valid)
	batch.Invalid = len(rejections)
	batch.Rejections = rejections

	return batch
}
