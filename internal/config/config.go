// Package config provides configuration management for the harvester.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"xkcdharvest/pkg/utils"

	"gopkg.in/yaml.v3"
)

var httpHelper = utils.NewHTTPHelper()

// Configuration validation errors.
var (
	ErrMissingIndexURL       = errors.New("sources.index_url is required")
	ErrInvalidSourceURL      = errors.New("source URL must be an absolute http(s) URL")
	ErrInvalidAssetPattern   = errors.New("sources.asset_url_pattern is invalid regex")
	ErrMissingSelector       = errors.New("selector is required")
	ErrInvalidRateRequests   = errors.New("rate_limit.requests must be at least 1")
	ErrInvalidRatePeriod     = errors.New("rate_limit.period_ms must be at least 1")
	ErrInvalidMaxAttempts    = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidIndexAttempts  = errors.New("retry.index_attempts must be at least 1")
	ErrInvalidTimeout        = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidMaxWorkers     = errors.New("concurrency.max_workers must be at least 1")
	ErrInvalidMaxSiblings    = errors.New("walker.max_siblings must be at least 1")
	ErrInvalidStartAfterID   = errors.New("store.start_after_id must be non-negative")
	ErrMissingOutputDir      = errors.New("output.dir is required")
	ErrMissingOutputPrefix   = errors.New("output.prefix is required")
	ErrInvalidLogLevel       = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat      = errors.New("logging.format must be one of: text, json, console")
	ErrInvalidBufferSize     = errors.New("advanced.buffer_size_kb must be at least 1")
	ErrInvalidBlockKinds     = errors.New("selectors.block_kinds must not be empty")
	ErrInvalidTerminators    = errors.New("selectors.terminators must not be empty")
	ErrTerminatorIsBlockKind = errors.New("selectors.terminators must not overlap selectors.block_kinds")
)

// DefaultPath is the configuration file picked up when no --config flag is given.
const DefaultPath = "configs/harvester.yaml"

// Config represents the complete harvester configuration.
type Config struct {
	Harvester HarvesterConfig `yaml:"harvester"`
	Logging   LoggingConfig   `yaml:"logging"`
	Advanced  AdvancedConfig  `yaml:"advanced"`
}

// HarvesterConfig contains harvester-specific settings.
type HarvesterConfig struct {
	Sources     SourcesConfig     `yaml:"sources"`
	Selectors   SelectorsConfig   `yaml:"selectors"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Retry       RetryPolicy       `yaml:"retry"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Walker      WalkerConfig      `yaml:"walker"`
	Store       StoreConfig       `yaml:"store"`
	Output      OutputConfig      `yaml:"output"`
}

// SourcesConfig names the two cross-referenced sites.
type SourcesConfig struct {
	IndexURL        string `yaml:"index_url"`
	DetailBaseURL   string `yaml:"detail_base_url"`
	AssetBaseURL    string `yaml:"asset_base_url"`
	AssetURLPattern string `yaml:"asset_url_pattern"`
}

// SelectorsConfig holds the structural markers used during extraction.
type SelectorsConfig struct {
	IndexMarker       string   `yaml:"index_marker"`
	Heading           string   `yaml:"heading"`
	ExplanationMarker string   `yaml:"explanation_marker"`
	TranscriptMarker  string   `yaml:"transcript_marker"`
	Terminators       []string `yaml:"terminators"`
	BlockKinds        []string `yaml:"block_kinds"`
	MediaNode         string   `yaml:"media_node"`
}

// RateLimitConfig bounds the aggregate request rate: Requests per PeriodMs.
type RateLimitConfig struct {
	Requests int `yaml:"requests"`
	PeriodMs int `yaml:"period_ms"`
}

// RetryPolicy defines retry behavior. Pacing between attempts comes from the
// shared rate limiter only.
type RetryPolicy struct {
	MaxAttempts   int `yaml:"max_attempts"`
	IndexAttempts int `yaml:"index_attempts"`
	TimeoutSec    int `yaml:"timeout_sec"`
}

// ConcurrencyConfig caps the number of extraction tasks in flight.
type ConcurrencyConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}

// WalkerConfig bounds section walks.
type WalkerConfig struct {
	MaxSiblings int `yaml:"max_siblings"`
}

// StoreConfig points at the previously harvested dataset.
type StoreConfig struct {
	Existing     string `yaml:"existing"`
	StartAfterID int    `yaml:"start_after_id"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Prefix       string `yaml:"prefix"`
	CreateBackup bool   `yaml:"create_backup"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	BufferSizeKb int    `yaml:"buffer_size_kb"`
	UserAgent    string `yaml:"user_agent"`
}

// Default returns a complete configuration targeting explainxkcd and xkcd.
func Default() *Config {
	return &Config{
		Harvester: HarvesterConfig{
			Sources: SourcesConfig{
				IndexURL:        "https://www.explainxkcd.com/wiki/index.php/List_of_all_comics_(full)",
				DetailBaseURL:   "https://www.explainxkcd.com",
				AssetBaseURL:    "https://www.xkcd.com",
				AssetURLPattern: `https://imgs\.xkcd\.com/\S+`,
			},
			Selectors: SelectorsConfig{
				IndexMarker:       "span.create",
				Heading:           "h1",
				ExplanationMarker: "span#Explanation",
				TranscriptMarker:  "span#Transcript",
				Terminators:       []string{"h1", "h2"},
				BlockKinds:        []string{"p", "dl"},
				MediaNode:         "div#comic img",
			},
			RateLimit: RateLimitConfig{
				Requests: 10,
				PeriodMs: 1000,
			},
			Retry: RetryPolicy{
				MaxAttempts:   5,
				IndexAttempts: 1,
				TimeoutSec:    30,
			},
			Concurrency: ConcurrencyConfig{
				MaxWorkers: 32,
			},
			Walker: WalkerConfig{
				MaxSiblings: 1000,
			},
			Store: StoreConfig{
				Existing:     "data/xkcd-metadata.jsonl",
				StartAfterID: 0,
			},
			Output: OutputConfig{
				Dir:          "data",
				Prefix:       "xkcd-metadata",
				CreateBackup: true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Advanced: AdvancedConfig{
			BufferSizeKb: 4096,
			UserAgent:    "xkcdharvest/1.0",
		},
	}
}

// LoadConfig loads configuration from YAML file. Keys absent from the file
// keep their Default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	h := &c.Harvester

	// Sources
	if h.Sources.IndexURL == "" {
		return ErrMissingIndexURL
	}

	sourceURLs := map[string]string{
		"index_url":       h.Sources.IndexURL,
		"detail_base_url": h.Sources.DetailBaseURL,
		"asset_base_url":  h.Sources.AssetBaseURL,
	}

	for name, raw := range sourceURLs {
		if !httpHelper.IsValidURL(raw) {
			return fmt.Errorf("%w: sources.%s=%q", ErrInvalidSourceURL, name, raw)
		}
	}

	if _, err := regexp.Compile(h.Sources.AssetURLPattern); err != nil || h.Sources.AssetURLPattern == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAssetPattern, h.Sources.AssetURLPattern)
	}

	// Selectors
	selectors := []struct {
		name  string
		value string
	}{
		{"index_marker", h.Selectors.IndexMarker},
		{"heading", h.Selectors.Heading},
		{"explanation_marker", h.Selectors.ExplanationMarker},
		{"transcript_marker", h.Selectors.TranscriptMarker},
		{"media_node", h.Selectors.MediaNode},
	}

	for _, sel := range selectors {
		if sel.value == "" {
			return fmt.Errorf("%w: selectors.%s", ErrMissingSelector, sel.name)
		}
	}

	if len(h.Selectors.BlockKinds) == 0 {
		return ErrInvalidBlockKinds
	}

	if len(h.Selectors.Terminators) == 0 {
		return ErrInvalidTerminators
	}

	for _, terminator := range h.Selectors.Terminators {
		if slices.Contains(h.Selectors.BlockKinds, terminator) {
			return fmt.Errorf("%w: %q", ErrTerminatorIsBlockKind, terminator)
		}
	}

	// Rate limit and retry
	if h.RateLimit.Requests < 1 {
		return ErrInvalidRateRequests
	}

	if h.RateLimit.PeriodMs < 1 {
		return ErrInvalidRatePeriod
	}

	if h.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if h.Retry.IndexAttempts < 1 {
		return ErrInvalidIndexAttempts
	}

	if h.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if h.Concurrency.MaxWorkers < 1 {
		return ErrInvalidMaxWorkers
	}

	if h.Walker.MaxSiblings < 1 {
		return ErrInvalidMaxSiblings
	}

	// Store and output
	if h.Store.StartAfterID < 0 {
		return ErrInvalidStartAfterID
	}

	if h.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if h.Output.Prefix == "" {
		return ErrMissingOutputPrefix
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{"text": true, "json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	if c.Advanced.BufferSizeKb < 1 {
		return ErrInvalidBufferSize
	}

	return nil
}

// Period returns the rate limiter window.
func (r *RateLimitConfig) Period() time.Duration {
	return time.Duration(r.PeriodMs) * time.Millisecond
}

// GetTimeout returns the per-request timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// BufferSizeBytes returns the response body cap in bytes.
func (a *AdvancedConfig) BufferSizeBytes() int64 {
	return int64(a.BufferSizeKb) * 1024
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Index: %s, Rate: %d/%dms, MaxAttempts: %d, Workers: %d, Output: %s}",
		c.Harvester.Sources.IndexURL,
		c.Harvester.RateLimit.Requests,
		c.Harvester.RateLimit.PeriodMs,
		c.Harvester.Retry.MaxAttempts,
		c.Harvester.Concurrency.MaxWorkers,
		c.Harvester.Output.Dir,
	)
}
