package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPHelper_IsValidURL(t *testing.T) {
	h := NewHTTPHelper()

	assert.True(t, h.IsValidURL("https://www.xkcd.com/1"))
	assert.True(t, h.IsValidURL("http://127.0.0.1:8080/wiki"))
	assert.False(t, h.IsValidURL("/wiki/index.php/1:_Barrel"))
	assert.False(t, h.IsValidURL("mailto:someone@example.com"))
	assert.False(t, h.IsValidURL("http://[::1"))
}

func TestHTTPHelper_BuildHeaders(t *testing.T) {
	h := NewHTTPHelper()

	headers := h.BuildHeaders("", map[string]string{"Accept-Language": "en"})
	assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
	assert.Equal(t, "en", headers.Get("Accept-Language"))
	assert.Contains(t, headers.Get("Accept"), "text/html")

	headers = h.BuildHeaders("custom/2.0", nil)
	assert.Equal(t, "custom/2.0", headers.Get("User-Agent"))
}

func TestStringHelper_NormalizeWhitespace(t *testing.T) {
	s := NewStringHelper()

	assert.Equal(t, "a b c", s.NormalizeWhitespace("  a \n\t b   c \n"))
	assert.Equal(t, "", s.NormalizeWhitespace(" \n "))
}

func TestStringHelper_TruncateString(t *testing.T) {
	s := NewStringHelper()

	assert.Equal(t, "short", s.TruncateString("short", 10))
	assert.Equal(t, "Lorem i...", s.TruncateString("Lorem ipsum dolor", 10))
	// each CJK rune occupies two columns
	assert.Equal(t, "漢字...", s.TruncateString("漢字漢字漢字", 7))
	assert.Equal(t, "", s.TruncateString("anything", 0))
}
