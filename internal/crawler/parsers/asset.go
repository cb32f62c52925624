package parsers

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageTitle returns the media node's caption. When title is non-empty and
// appears in the media node's text, the "title" attribute is used, otherwise
// the "alt" attribute.
func (p *Parser) ImageTitle(doc *goquery.Document, title string) (string, error) {
	if doc == nil {
		return "", ErrNilDocument
	}

	media := doc.Find(p.selectors.MediaNode).First()
	if media.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrMarkerNotFound, p.selectors.MediaNode)
	}

	attr := "alt"
	if title != "" && strings.Contains(media.Text(), title) {
		attr = "title"
	}

	value, ok := media.Attr(attr)
	if !ok {
		return "", fmt.Errorf("%w: %s[%s]", ErrAttributeMissing, p.selectors.MediaNode, attr)
	}

	return value, nil
}

// ImageURL returns the first match of the asset pattern found in the text of
// doc, searching text nodes in document order.
func (p *Parser) ImageURL(doc *goquery.Document) (string, error) {
	if doc == nil {
		return "", ErrNilDocument
	}

	for _, root := range doc.Nodes {
		if found := firstTextMatch(root, p.assetPattern.FindString); found != "" {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoMatch, p.assetPattern)
}
