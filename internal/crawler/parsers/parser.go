package parsers

import (
	"errors"
	"fmt"
	"regexp"

	"xkcdharvest/internal/config"
)

// Default selectors for the explainxkcd and xkcd page layouts.
const (
	DefaultIndexMarker       = "span.create"
	DefaultHeading           = "h1"
	DefaultExplanationMarker = "span#Explanation"
	DefaultTranscriptMarker  = "span#Transcript"
	DefaultMediaNode         = "div#comic img"
	DefaultAssetURLPattern   = `https://imgs\.xkcd\.com/\S+`
)

// Parser errors.
var (
	ErrMarkerNotFound   = errors.New("marker not found")
	ErrNoEnclosingBlock = errors.New("marker has no enclosing block")
	ErrAttributeMissing = errors.New("attribute missing")
	ErrNoMatch          = errors.New("no matching text")
	ErrNilDocument      = errors.New("document is nil")
)

// Selectors names the document elements the parser looks for.
type Selectors struct {
	IndexMarker       string
	Heading           string
	ExplanationMarker string
	TranscriptMarker  string
	MediaNode         string
	Terminators       []string
	BlockKinds        []string
}

// Parser extracts record fields from detail, asset and index documents.
type Parser struct {
	selectors    Selectors
	assetPattern *regexp.Regexp
	walker       *Walker
}

// DefaultSelectors returns the selectors for the public explainxkcd and xkcd
// layouts.
func DefaultSelectors() Selectors {
	return Selectors{
		IndexMarker:       DefaultIndexMarker,
		Heading:           DefaultHeading,
		ExplanationMarker: DefaultExplanationMarker,
		TranscriptMarker:  DefaultTranscriptMarker,
		MediaNode:         DefaultMediaNode,
		Terminators:       []string{"h1", "h2"},
		BlockKinds:        []string{"p", "dl"},
	}
}

// NewParser creates a parser. An empty assetPattern selects
// DefaultAssetURLPattern.
func NewParser(selectors Selectors, assetPattern string, maxSiblings int) (*Parser, error) {
	if assetPattern == "" {
		assetPattern = DefaultAssetURLPattern
	}

	re, err := regexp.Compile(assetPattern)
	if err != nil {
		return nil, fmt.Errorf("compile asset pattern: %w", err)
	}

	return &Parser{
		selectors:    selectors,
		assetPattern: re,
		walker:       NewWalker(selectors.BlockKinds, maxSiblings),
	}, nil
}

// NewParserWithConfig creates a parser from the harvester configuration.
func NewParserWithConfig(cfg *config.Config) (*Parser, error) {
	sel := cfg.Harvester.Selectors

	return NewParser(Selectors{
		IndexMarker:       sel.IndexMarker,
		Heading:           sel.Heading,
		ExplanationMarker: sel.ExplanationMarker,
		TranscriptMarker:  sel.TranscriptMarker,
		MediaNode:         sel.MediaNode,
		Terminators:       sel.Terminators,
		BlockKinds:        sel.BlockKinds,
	}, cfg.Harvester.Sources.AssetURLPattern, cfg.Harvester.Walker.MaxSiblings)
}

// Walker returns the sibling walker used for section extraction.
func (p *Parser) Walker() *Walker {
	return p.walker
}
