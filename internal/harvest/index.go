package harvest

import (
	"context"
	"errors"
	"fmt"

	"xkcdharvest/internal/crawler/parsers"
	"xkcdharvest/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// Discovery errors. Both abort the run.
var (
	ErrIndexUnavailable = errors.New("index page unavailable")
	ErrNoItems          = errors.New("index page lists no items")
)

// DocumentFetcher retrieves and parses HTML documents.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
	FetchWithAttempts(ctx context.Context, url string, attempts int) (*goquery.Document, error)
}

// IndexScraper discovers detail page URLs from the index page.
type IndexScraper struct {
	fetcher  DocumentFetcher
	parser   *parsers.Parser
	baseURL  string
	attempts int
	logger   *logger.Logger
}

// NewIndexScraper creates an index scraper. Relative links are resolved
// against baseURL; the index is fetched at most attempts times.
func NewIndexScraper(fetcher DocumentFetcher, parser *parsers.Parser, baseURL string, attempts int, log *logger.Logger) *IndexScraper {
	if attempts < 1 {
		attempts = 1
	}

	if log == nil {
		log = logger.Discard()
	}

	return &IndexScraper{
		fetcher:  fetcher,
		parser:   parser,
		baseURL:  baseURL,
		attempts: attempts,
		logger:   log.With("component", "index"),
	}
}

// ListItemURLs returns the absolute detail URLs of the index page in
// document order.
func (s *IndexScraper) ListItemURLs(ctx context.Context, indexURL string) ([]string, error) {
	doc, err := s.fetcher.FetchWithAttempts(ctx, indexURL, s.attempts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	links, err := s.parser.ItemLinks(doc, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	if links.Skipped > 0 {
		s.logger.Warn("Index markers without a usable link", "skipped", links.Skipped, "markers", links.Markers)
	}

	if len(links.URLs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoItems, indexURL)
	}

	s.logger.Info("Index scraped", "url", indexURL, "items", len(links.URLs))

	return links.URLs, nil
}
