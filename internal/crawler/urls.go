package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// detailPathMarker precedes the page name in wiki detail URLs.
const detailPathMarker = "index.php/"

// URL errors.
var (
	ErrInvalidURL   = errors.New("invalid URL")
	ErrNoIdentifier = errors.New("no numeric identifier in URL")
)

// ResolveURL resolves href against base, the way a browser would.
func ResolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %w", ErrInvalidURL, base, err)
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: href %q: %w", ErrInvalidURL, href, err)
	}

	return baseURL.ResolveReference(ref).String(), nil
}

// IDFromDetailURL reads the item identifier out of a detail page URL. The
// page name following "index.php/" has the form "<id>:_<Title>", e.g.
// /wiki/index.php/2000:_xkcd_Phone_2000. Titles may contain slashes.
func IDFromDetailURL(raw string) (int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidURL, raw, err)
	}

	segment := path.Base(u.Path)
	if _, page, ok := strings.Cut(u.Path, detailPathMarker); ok {
		segment = page
	}

	if unescaped, unescapeErr := url.PathUnescape(segment); unescapeErr == nil {
		segment = unescaped
	}

	idText, _, _ := strings.Cut(segment, ":")

	id, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoIdentifier, raw)
	}

	return id, nil
}

// AssetURL derives the asset page URL for an identifier.
func AssetURL(base string, id int) string {
	return fmt.Sprintf("%s/%d", strings.TrimRight(base, "/"), id)
}
