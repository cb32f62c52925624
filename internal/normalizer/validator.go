package normalizer

import (
	"errors"
	"strings"

	"xkcdharvest/internal/models"
)

// Validation errors.
var (
	ErrNilRecord           = errors.New("record is nil")
	ErrMissingID           = errors.New("record has no identifier")
	ErrMissingExplainedURL = errors.New("record has no explained URL")
)

// Validator decides which harvested records are kept.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that rec can be written out. Only the identifier and the
// source URL are required; every other field may be absent. Any parsed
// identifier is accepted.
func (v *Validator) Validate(rec *models.Record) error {
	if rec == nil {
		return ErrNilRecord
	}

	if rec.ID == nil {
		return ErrMissingID
	}

	if strings.TrimSpace(rec.ExplainedURL) == "" {
		return ErrMissingExplainedURL
	}

	return nil
}
