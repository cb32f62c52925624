package parsers

import (
	"strings"

	"xkcdharvest/pkg/utils"

	"golang.org/x/net/html"
)

var stringHelper = utils.NewStringHelper()

// NodeText returns the visible text beneath n. Each descendant text node is
// trimmed, empty ones are dropped and the rest are joined with single spaces.
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}

	var parts []string

	var visit func(*html.Node)
	visit = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			if s := strings.TrimSpace(node.Data); s != "" {
				parts = append(parts, s)
			}

			return
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		case html.CommentNode:
			return
		}

		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)

	return stringHelper.NormalizeWhitespace(strings.Join(parts, " "))
}

// firstTextMatch walks n in document order and returns the first text node
// for which match reports a non-empty result.
func firstTextMatch(n *html.Node, match func(string) string) string {
	if n == nil {
		return ""
	}

	if n.Type == html.TextNode {
		return match(n.Data)
	}

	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstTextMatch(c, match); found != "" {
			return found
		}
	}

	return ""
}
