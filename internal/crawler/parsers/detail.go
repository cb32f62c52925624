package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Heading is the parsed page heading of a detail document.
type Heading struct {
	// Raw is the heading text as displayed.
	Raw string
	// IDText is the text before the first colon, trimmed.
	IDText string
	// ID is nil when IDText is absent or not an integer.
	ID    *int
	Title string
}

// Heading splits the first heading element at its first colon into an
// identifier and a title. A heading without a colon is all title.
func (p *Parser) Heading(doc *goquery.Document) (Heading, error) {
	if doc == nil {
		return Heading{}, ErrNilDocument
	}

	sel := doc.Find(p.selectors.Heading).First()
	if sel.Length() == 0 {
		return Heading{}, fmt.Errorf("%w: %s", ErrMarkerNotFound, p.selectors.Heading)
	}

	return ParseHeading(NodeText(sel.Get(0))), nil
}

// ParseHeading splits heading text of the form "<id>: <title>".
func ParseHeading(raw string) Heading {
	h := Heading{Raw: raw}

	idText, title, found := strings.Cut(raw, ":")
	if !found {
		h.Title = strings.TrimSpace(raw)

		return h
	}

	h.IDText = strings.TrimSpace(idText)
	h.Title = strings.TrimSpace(title)

	if id, err := strconv.Atoi(h.IDText); err == nil {
		h.ID = &id
	}

	return h
}

// Explanation returns the explanation section text.
func (p *Parser) Explanation(doc *goquery.Document) (string, error) {
	return p.Section(doc, p.selectors.ExplanationMarker)
}

// Transcript returns the transcript section text.
func (p *Parser) Transcript(doc *goquery.Document) (string, error) {
	return p.Section(doc, p.selectors.TranscriptMarker)
}

// Section locates marker and walks forward from the block that encloses it.
func (p *Parser) Section(doc *goquery.Document, marker string) (string, error) {
	if doc == nil {
		return "", ErrNilDocument
	}

	sel := doc.Find(marker).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrMarkerNotFound, marker)
	}

	block := sel.Get(0).Parent
	if block == nil {
		return "", fmt.Errorf("%w: %s", ErrNoEnclosingBlock, marker)
	}

	text, err := p.walker.Walk(block, p.selectors.Terminators...)
	if err != nil {
		return "", fmt.Errorf("section %s: %w", marker, err)
	}

	return text, nil
}
