package normalizer

import (
	"cmp"
	"slices"

	"xkcdharvest/internal/models"
)

// Batch is the normalized output of one harvest run.
type Batch struct {
	// Records are unique by identifier and sorted ascending.
	Records []models.Record
	MinID   int
	MaxID   int
	// Invalid counts records dropped by the validator.
	Invalid    int
	Rejections []Rejection
	// Duplicates counts records dropped because an earlier one shared the id.
	Duplicates int
	// Missing counts, per JSON field name, the kept records lacking it.
	Missing map[string]int
}

// Rejection describes one record the validator dropped.
type Rejection struct {
	ExplainedURL string
	Err          error
}

// Empty reports whether the batch has no records. MinID and MaxID are only
// meaningful for a non-empty batch.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}

// Transformer deduplicates and orders validated records.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform keeps the first record seen for each identifier, sorts the
// survivors by identifier and computes the batch range. Every record must
// already carry an identifier.
func (t *Transformer) Transform(records []models.Record) *Batch {
	batch := &Batch{Missing: make(map[string]int)}

	seen := make(map[int]struct{}, len(records))
	kept := make([]models.Record, 0, len(records))

	for _, rec := range records {
		id := rec.IDValue()
		if _, dup := seen[id]; dup {
			batch.Duplicates++

			continue
		}

		seen[id] = struct{}{}
		kept = append(kept, rec)
	}

	slices.SortStableFunc(kept, func(a, b models.Record) int {
		return cmp.Compare(a.IDValue(), b.IDValue())
	})

	for i := range kept {
		for _, field := range kept[i].Missing() {
			batch.Missing[field]++
		}
	}

	batch.Records = kept
	if len(kept) > 0 {
		batch.MinID = kept[0].IDValue()
		batch.MaxID = kept[len(kept)-1].IDValue()
	}

	return batch
}
