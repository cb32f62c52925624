// Package parsers extracts harvested fields from parsed HTML documents.
package parsers

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Walker defaults.
const (
	DefaultMaxSiblings = 1000
)

// Walk errors.
var (
	ErrNilStart      = errors.New("walk start node is nil")
	ErrNoTerminator  = errors.New("no terminator among following siblings")
	ErrSiblingLimit  = errors.New("sibling limit exceeded before terminator")
	ErrNoTerminators = errors.New("no terminator kinds given")
)

// Walker collects text from a run of sibling elements.
type Walker struct {
	blockKinds  map[string]struct{}
	maxSiblings int
}

// NewWalker creates a walker that keeps the text of elements whose tag is one
// of blockKinds and gives up after maxSiblings elements.
func NewWalker(blockKinds []string, maxSiblings int) *Walker {
	if maxSiblings < 1 {
		maxSiblings = DefaultMaxSiblings
	}

	kinds := make(map[string]struct{}, len(blockKinds))
	for _, kind := range blockKinds {
		kinds[strings.ToLower(kind)] = struct{}{}
	}

	return &Walker{blockKinds: kinds, maxSiblings: maxSiblings}
}

// Walk visits start and then its following element siblings in order. Text of
// every block element is kept, one line per block, until an element whose tag
// is one of terminators is reached. The start node itself is never treated as
// a terminator. Running out of siblings yields ErrNoTerminator.
func (w *Walker) Walk(start *html.Node, terminators ...string) (string, error) {
	if start == nil {
		return "", ErrNilStart
	}

	if len(terminators) == 0 {
		return "", ErrNoTerminators
	}

	siblings, cursor := elementRun(start)
	lines := make([]string, 0, 8)

	for visited := 0; cursor < len(siblings); cursor, visited = cursor+1, visited+1 {
		if visited >= w.maxSiblings {
			return "", fmt.Errorf("%w: %d", ErrSiblingLimit, w.maxSiblings)
		}

		node := siblings[cursor]
		tag := strings.ToLower(node.Data)

		if visited > 0 && isOneOf(tag, terminators) {
			return strings.Join(lines, "\n"), nil
		}

		if _, ok := w.blockKinds[tag]; ok {
			lines = append(lines, NodeText(node))
		}
	}

	return "", ErrNoTerminator
}

// elementRun materializes the element children of start's parent and returns
// them together with the index of start. A detached start yields itself and
// its following element siblings.
func elementRun(start *html.Node) ([]*html.Node, int) {
	first := start
	if start.Parent != nil {
		first = start.Parent.FirstChild
	}

	var (
		run    []*html.Node
		cursor int
	)

	for n := first; n != nil; n = n.NextSibling {
		if n == start {
			cursor = len(run)
			run = append(run, n)

			continue
		}

		if n.Type == html.ElementNode {
			run = append(run, n)
		}
	}

	return run, cursor
}

func isOneOf(tag string, kinds []string) bool {
	for _, kind := range kinds {
		if strings.EqualFold(tag, kind) {
			return true
		}
	}

	return false
}
