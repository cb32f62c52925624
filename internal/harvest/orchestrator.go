// Package harvest discovers new items on the index page and extracts one
// record per item, concurrently and under a shared rate limit.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"xkcdharvest/internal/config"
	"xkcdharvest/internal/crawler"
	"xkcdharvest/internal/crawler/parsers"
	"xkcdharvest/internal/logger"
	"xkcdharvest/internal/models"
	"xkcdharvest/internal/normalizer"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxWorkers bounds concurrent extractions when no limit is given.
const DefaultMaxWorkers = 32

// ErrCancelled is returned when the run context ends before every
// extraction finished.
var ErrCancelled = errors.New("harvest cancelled")

// Stats summarizes one run.
type Stats struct {
	Discovered int
	// Unidentified counts index URLs whose path carries no numeric id.
	Unidentified int
	// AlreadyHarvested counts URLs at or below the resume point.
	AlreadyHarvested int
	Scheduled        int
	DetailFailures   int
	AssetFailures    int
	Invalid          int
	Duplicates       int
	Kept             int
	Missing          map[string]int
	Fetch            crawler.AttemptStats
	Elapsed          time.Duration
}

// Result is the outcome of a run.
type Result struct {
	// Records are valid, unique by id and sorted ascending.
	Records []models.Record
	// MinID and MaxID bound Records; zero when Records is empty.
	MinID         int
	MaxID         int
	ResumeAfterID int
	Rejections    []normalizer.Rejection
	Stats         Stats
}

// Empty reports whether the run produced no records.
func (r *Result) Empty() bool {
	return len(r.Records) == 0
}

// Orchestrator runs discovery, filtering, extraction and normalization.
type Orchestrator struct {
	index      *IndexScraper
	extractor  *Extractor
	processor  *normalizer.Processor
	attempts   *crawler.AttemptLog
	maxWorkers int
	logger     *logger.Logger
}

// Options configures an Orchestrator.
type Options struct {
	MaxWorkers int
	// Attempts, when set, is summarized into Stats.Fetch.
	Attempts *crawler.AttemptLog
}

// NewOrchestrator creates an orchestrator from its collaborators.
func NewOrchestrator(index *IndexScraper, extractor *Extractor, opts Options, log *logger.Logger) *Orchestrator {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = DefaultMaxWorkers
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Orchestrator{
		index:      index,
		extractor:  extractor,
		processor:  normalizer.NewProcessor(),
		attempts:   opts.Attempts,
		maxWorkers: opts.MaxWorkers,
		logger:     log.With("component", "orchestrator"),
	}
}

// New wires a complete orchestrator from configuration: one rate limiter
// shared by a single fetcher used for index, detail and asset pages.
func New(cfg *config.Config, log *logger.Logger) (*Orchestrator, error) {
	if log == nil {
		log = logger.Discard()
	}

	parser, err := parsers.NewParserWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}

	limiter := crawler.NewRateLimiter(cfg.Harvester.RateLimit.Requests, cfg.Harvester.RateLimit.Period())
	fetcher := crawler.NewFetcherWithConfig(cfg, limiter, log)

	index := NewIndexScraper(fetcher, parser, cfg.Harvester.Sources.DetailBaseURL, cfg.Harvester.Retry.IndexAttempts, log)
	extractor := NewExtractor(fetcher, parser, cfg.Harvester.Sources.AssetBaseURL, log)

	return NewOrchestrator(index, extractor, Options{
		MaxWorkers: cfg.Harvester.Concurrency.MaxWorkers,
		Attempts:   fetcher.Attempts(),
	}, log), nil
}

// Run discovers item URLs on indexURL, keeps those whose URL id exceeds
// resumeAfterID and extracts each one. Every extraction runs to completion;
// individual failures only leave fields unset. Records without an id are
// dropped and the rest are returned sorted by id. Discovery failure and
// cancellation are the only errors.
func (o *Orchestrator) Run(ctx context.Context, indexURL string, resumeAfterID int) (*Result, error) {
	startTime := time.Now()

	urls, err := o.index.ListItemURLs(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	stats := Stats{Discovered: len(urls)}
	todo := o.filter(urls, resumeAfterID, &stats)
	stats.Scheduled = len(todo)

	o.logger.Info("Extracting new items",
		"discovered", stats.Discovered,
		"scheduled", stats.Scheduled,
		"resume_after_id", resumeAfterID,
		"max_workers", o.maxWorkers,
	)

	fields, err := o.extractAll(ctx, todo)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, len(fields))
	for i, f := range fields {
		records[i] = f.Record()

		if f.DetailErr != nil {
			stats.DetailFailures++
		}

		if f.AssetErr != nil {
			stats.AssetFailures++
		}
	}

	batch := o.processor.Process(records)
	for _, rejection := range batch.Rejections {
		o.logger.Warn("Dropping record", "url", rejection.ExplainedURL, "reason", rejection.Err)
	}

	stats.Invalid = batch.Invalid
	stats.Duplicates = batch.Duplicates
	stats.Kept = len(batch.Records)
	stats.Missing = batch.Missing
	stats.Elapsed = time.Since(startTime)

	if o.attempts != nil {
		stats.Fetch = o.attempts.Stats()
	}

	return &Result{
		Records:       batch.Records,
		MinID:         batch.MinID,
		MaxID:         batch.MaxID,
		ResumeAfterID: resumeAfterID,
		Rejections:    batch.Rejections,
		Stats:         stats,
	}, nil
}

// filter keeps URLs whose path id exceeds resumeAfterID, preserving order.
func (o *Orchestrator) filter(urls []string, resumeAfterID int, stats *Stats) []string {
	todo := make([]string, 0, len(urls))

	for _, u := range urls {
		id, err := crawler.IDFromDetailURL(u)
		if err != nil {
			stats.Unidentified++
			o.logger.Warn("Skipping URL without identifier", "url", u, "error", err)

			continue
		}

		if id <= resumeAfterID {
			stats.AlreadyHarvested++

			continue
		}

		todo = append(todo, u)
	}

	return todo
}

// extractAll runs one extraction per URL with at most maxWorkers in flight
// and waits for all of them.
func (o *Orchestrator) extractAll(ctx context.Context, urls []string) ([]*Fields, error) {
	results := make([]*Fields, len(urls))
	sem := semaphore.NewWeighted(int64(o.maxWorkers))

	var wg sync.WaitGroup

	for i, u := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			defer sem.Release(1)

			results[i] = o.extractor.ExtractFields(ctx, u)
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	return results, nil
}
