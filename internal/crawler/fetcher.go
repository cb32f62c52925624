// Package crawler implements rate-limited, retrying retrieval of HTML pages.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"xkcdharvest/internal/config"
	"xkcdharvest/internal/logger"
	"xkcdharvest/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Fetch errors.
var (
	// ErrUnexpectedStatusCode indicates an HTTP response outside the 2xx range.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrFetchFailed is returned once every attempt for a URL has failed.
	ErrFetchFailed = errors.New("fetch failed")
)

// Limiter gates outgoing requests.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Fetcher issues GET requests through a shared Limiter and parses the
// response into a document tree, retrying transient failures.
type Fetcher struct {
	client      *resty.Client
	limiter     Limiter
	attempts    *AttemptLog
	logger      *logger.Logger
	maxAttempts int
	bodyLimit   int64
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	MaxAttempts int
	Timeout     time.Duration
	BodyLimit   int64
	UserAgent   string
}

// NewFetcher creates a fetcher sharing limiter with every other fetcher.
func NewFetcher(limiter Limiter, opts FetcherOptions, log *logger.Logger) *Fetcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 5
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 4 << 20
	}

	if log == nil {
		log = logger.Discard()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)

	for key, values := range utils.NewHTTPHelper().BuildHeaders(opts.UserAgent, nil) {
		if len(values) > 0 {
			client.SetHeader(key, values[0])
		}
	}

	client.SetLogger(log)

	return &Fetcher{
		client:      client,
		limiter:     limiter,
		attempts:    NewAttemptLog(),
		logger:      log.With("component", "fetcher"),
		maxAttempts: opts.MaxAttempts,
		bodyLimit:   opts.BodyLimit,
	}
}

// NewFetcherWithConfig creates a fetcher from the harvester configuration.
func NewFetcherWithConfig(cfg *config.Config, limiter Limiter, log *logger.Logger) *Fetcher {
	return NewFetcher(limiter, FetcherOptions{
		MaxAttempts: cfg.Harvester.Retry.MaxAttempts,
		Timeout:     cfg.Harvester.Retry.GetTimeout(),
		BodyLimit:   cfg.Advanced.BufferSizeBytes(),
		UserAgent:   cfg.Advanced.UserAgent,
	}, log)
}

// Fetch retrieves url using the configured number of attempts.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	return f.FetchWithAttempts(ctx, url, f.maxAttempts)
}

// FetchWithAttempts retrieves url, trying at most attempts times. A token is
// acquired from the limiter before every attempt. Transport errors and non-2xx
// responses are retried; exhausting the attempts yields ErrFetchFailed.
func (f *Fetcher) FetchWithAttempts(ctx context.Context, url string, attempts int) (*goquery.Document, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := f.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: rate limiter: %w", ErrFetchFailed, url, err)
		}

		startTime := time.Now()
		doc, statusCode, err := f.get(ctx, url)
		f.attempts.RecordAttempt(url, attempt, err, statusCode, time.Since(startTime))

		if err == nil {
			if attempt > 1 {
				f.logger.Debug("Fetch succeeded after retry", "url", url, "attempt", attempt)
			}

			return doc, nil
		}

		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt, attempts, err)
		f.logger.Debug("Fetch attempt failed", "url", url, "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, url, lastErr)
}

// Attempts returns the log of every attempt made by this fetcher.
func (f *Fetcher) Attempts() *AttemptLog {
	return f.attempts
}

func (f *Fetcher) get(ctx context.Context, url string) (*goquery.Document, int, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	body := resp.RawBody()
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			f.logger.Debug("Failed to close response body", "url", url, "error", closeErr)
		}
	}()

	if !resp.IsSuccess() {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, f.bodyLimit))

		return nil, resp.StatusCode(), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode())
	}

	// Read with buffer limit
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, f.bodyLimit))
	if err != nil {
		return nil, resp.StatusCode(), fmt.Errorf("failed to parse response body: %w", err)
	}

	return doc, resp.StatusCode(), nil
}
