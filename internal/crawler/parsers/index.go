package parsers

import (
	"strings"

	"xkcdharvest/internal/crawler"

	"github.com/PuerkitoBio/goquery"
)

// IndexLinks is the result of scanning an index document.
type IndexLinks struct {
	// URLs holds absolute detail URLs in document order.
	URLs []string
	// Markers is the number of index markers seen.
	Markers int
	// Skipped counts markers whose parent held no usable anchor.
	Skipped int
}

// ItemLinks finds every index marker and resolves the href of the first
// anchor under the marker's parent against base.
func (p *Parser) ItemLinks(doc *goquery.Document, base string) (IndexLinks, error) {
	var links IndexLinks

	if doc == nil {
		return links, ErrNilDocument
	}

	doc.Find(p.selectors.IndexMarker).Each(func(_ int, marker *goquery.Selection) {
		links.Markers++

		href, ok := marker.Parent().Find("a").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			links.Skipped++

			return
		}

		resolved, err := crawler.ResolveURL(base, href)
		if err != nil {
			links.Skipped++

			return
		}

		links.URLs = append(links.URLs, resolved)
	})

	return links, nil
}
