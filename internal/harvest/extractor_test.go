package harvest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"xkcdharvest/internal/crawler"
	"xkcdharvest/internal/crawler/parsers"
	"xkcdharvest/internal/logger"
	"xkcdharvest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T, site *fakeSite) *Extractor {
	t.Helper()

	cfg := site.config()

	parser, err := parsers.NewParserWithConfig(cfg)
	require.NoError(t, err)

	limiter := crawler.NewRateLimiter(cfg.Harvester.RateLimit.Requests, cfg.Harvester.RateLimit.Period())
	fetcher := crawler.NewFetcherWithConfig(cfg, limiter, logger.Discard())

	return NewExtractor(fetcher, parser, cfg.Harvester.Sources.AssetBaseURL, nil)
}

func TestField(t *testing.T) {
	found := Found("x")
	assert.True(t, found.Ok())
	assert.Equal(t, "x", *found.Ptr())
	require.NoError(t, found.Err())

	boom := errors.New("boom")
	absent := FieldOf(0, boom)
	assert.False(t, absent.Ok())
	assert.Nil(t, absent.Ptr())
	require.ErrorIs(t, absent.Err(), boom)

	require.ErrorIs(t, Absent[string](nil).Err(), ErrSkipped)
}

func TestExtractor_FullRecord(t *testing.T) {
	site := newFakeSite(t)
	site.headings[1000] = "1000: Title Text"

	rec := newTestExtractor(t, site).Extract(context.Background(), site.detailURL(1000))

	want := models.Record{
		ID:           models.Ptr(1000),
		Title:        "Title Text",
		ImageTitle:   models.Ptr("alt 1000"),
		URL:          models.Ptr(site.srv.URL + "/asset/1000"),
		ImageURL:     models.Ptr("https://imgs.xkcd.com/comics/c1000.png"),
		ExplainedURL: site.detailURL(1000),
		Transcript:   models.Ptr("Cueball: 1000"),
		Explanation:  models.Ptr("Explanation of 1000."),
	}
	assert.Equal(t, want, rec)
}

func TestExtractor_HeadingWithoutIdentifier(t *testing.T) {
	site := newFakeSite(t)
	site.headings[7] = "Title Only"

	fields := newTestExtractor(t, site).ExtractFields(context.Background(), site.detailURL(7))

	assert.False(t, fields.ID.Ok())
	require.ErrorIs(t, fields.ID.Err(), ErrNoIdentifier)
	assert.Equal(t, "Title Only", fields.Title.Value())
	assert.True(t, fields.Explanation.Ok())
	assert.True(t, fields.Transcript.Ok())

	require.ErrorIs(t, fields.URL.Err(), ErrSkipped)
	require.ErrorIs(t, fields.ImageTitle.Err(), ErrSkipped)
	assert.Zero(t, site.totalHits("/asset/"))

	rec := fields.Record()
	assert.False(t, rec.Valid())
}

func TestExtractor_AssetPageFails(t *testing.T) {
	site := newFakeSite(t)
	site.assetStatus[42] = http.StatusServiceUnavailable

	fields := newTestExtractor(t, site).ExtractFields(context.Background(), site.detailURL(42))

	require.ErrorIs(t, fields.AssetErr, crawler.ErrFetchFailed)
	assert.Equal(t, 5, site.hitCount("/asset/42"))

	rec := fields.Record()
	require.NotNil(t, rec.ID)
	assert.Equal(t, 42, *rec.ID)
	assert.Equal(t, "Title 42", rec.Title)
	require.NotNil(t, rec.URL)
	assert.NotNil(t, rec.Explanation)
	assert.NotNil(t, rec.Transcript)
	assert.Nil(t, rec.ImageTitle)
	assert.Nil(t, rec.ImageURL)
}

func TestExtractor_DetailPageFails(t *testing.T) {
	site := newFakeSite(t)
	site.detailStatus[9] = http.StatusInternalServerError

	fields := newTestExtractor(t, site).ExtractFields(context.Background(), site.detailURL(9))

	require.ErrorIs(t, fields.DetailErr, crawler.ErrFetchFailed)
	assert.Equal(t, 5, site.hitCount(detailPath(9)))
	assert.Zero(t, site.totalHits("/asset/"))

	assert.Equal(t, models.Record{ExplainedURL: site.detailURL(9)}, fields.Record())
}
