package harvest

import (
	"context"
	"errors"
	"fmt"

	"xkcdharvest/internal/crawler"
	"xkcdharvest/internal/crawler/parsers"
	"xkcdharvest/internal/logger"
	"xkcdharvest/internal/models"
)

// ErrNoIdentifier is the reason given for a heading that carries no id.
var ErrNoIdentifier = errors.New("heading has no identifier")

// Fields holds the per-field outcome of extracting one detail URL.
type Fields struct {
	ExplainedURL string
	// DetailErr is set when the detail page could not be fetched; every
	// other field is then absent.
	DetailErr error
	// AssetErr is set when the asset page could not be fetched.
	AssetErr    error
	ID          Field[int]
	Title       Field[string]
	Explanation Field[string]
	Transcript  Field[string]
	URL         Field[string]
	ImageTitle  Field[string]
	ImageURL    Field[string]
}

// Record assembles the record. Absent fields are left nil.
func (f *Fields) Record() models.Record {
	return models.Record{
		ID:           f.ID.Ptr(),
		Title:        f.Title.Value(),
		ImageTitle:   f.ImageTitle.Ptr(),
		URL:          f.URL.Ptr(),
		ImageURL:     f.ImageURL.Ptr(),
		ExplainedURL: f.ExplainedURL,
		Transcript:   f.Transcript.Ptr(),
		Explanation:  f.Explanation.Ptr(),
	}
}

// Extractor builds records from a detail page and its asset page.
type Extractor struct {
	fetcher      DocumentFetcher
	parser       *parsers.Parser
	assetBaseURL string
	logger       *logger.Logger
}

// NewExtractor creates an extractor. Asset pages are addressed as
// assetBaseURL/<id>.
func NewExtractor(fetcher DocumentFetcher, parser *parsers.Parser, assetBaseURL string, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Discard()
	}

	return &Extractor{
		fetcher:      fetcher,
		parser:       parser,
		assetBaseURL: assetBaseURL,
		logger:       log.With("component", "extractor"),
	}
}

// Extract builds the record for detailURL. It never fails: fields that could
// not be extracted are left unset.
func (e *Extractor) Extract(ctx context.Context, detailURL string) models.Record {
	fields := e.ExtractFields(ctx, detailURL)

	return fields.Record()
}

// ExtractFields runs every extraction step independently and reports each
// field's outcome.
func (e *Extractor) ExtractFields(ctx context.Context, detailURL string) *Fields {
	f := &Fields{ExplainedURL: detailURL}
	log := e.logger.With("url", detailURL)

	doc, err := e.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		log.Warn("Detail page unavailable", "error", err)

		f.DetailErr = err
		f.ID = Absent[int](err)
		f.Title = Absent[string](err)
		f.Explanation = Absent[string](err)
		f.Transcript = Absent[string](err)
		f.URL = Absent[string](err)
		f.ImageTitle = Absent[string](err)
		f.ImageURL = Absent[string](err)

		return f
	}

	heading, err := e.parser.Heading(doc)
	switch {
	case err != nil:
		f.ID = Absent[int](err)
		f.Title = Absent[string](err)
	case heading.ID == nil:
		f.ID = Absent[int](fmt.Errorf("%w: %q", ErrNoIdentifier, heading.Raw))
		f.Title = Found(heading.Title)
	default:
		f.ID = Found(*heading.ID)
		f.Title = Found(heading.Title)
	}

	f.Explanation = FieldOf(e.parser.Explanation(doc))
	f.Transcript = FieldOf(e.parser.Transcript(doc))

	if !f.ID.Ok() {
		f.URL = Absent[string](ErrSkipped)
		f.ImageTitle = Absent[string](ErrSkipped)
		f.ImageURL = Absent[string](ErrSkipped)
		e.logFields(log, f)

		return f
	}

	assetURL := crawler.AssetURL(e.assetBaseURL, f.ID.Value())
	f.URL = Found(assetURL)

	assetDoc, err := e.fetcher.Fetch(ctx, assetURL)
	if err != nil {
		log.Warn("Asset page unavailable", "asset_url", assetURL, "error", err)

		f.AssetErr = err
		f.ImageTitle = Absent[string](err)
		f.ImageURL = Absent[string](err)
		e.logFields(log, f)

		return f
	}

	f.ImageTitle = FieldOf(e.parser.ImageTitle(assetDoc, f.Title.Value()))
	f.ImageURL = FieldOf(e.parser.ImageURL(assetDoc))
	e.logFields(log, f)

	return f
}

func (e *Extractor) logFields(log *logger.Logger, f *Fields) {
	absent := []struct {
		name string
		err  error
	}{
		{"id", f.ID.Err()},
		{"title", f.Title.Err()},
		{"explanation", f.Explanation.Err()},
		{"transcript", f.Transcript.Err()},
		{"url", f.URL.Err()},
		{"image_title", f.ImageTitle.Err()},
		{"image_url", f.ImageURL.Err()},
	}

	for _, field := range absent {
		if field.err != nil {
			log.Debug("Field absent", "field", field.name, "reason", field.err)
		}
	}
}
