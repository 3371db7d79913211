// Package markup normalizes the rich-text payloads produced by the editor:
// sanitized markup for storage, derived plain text for search, and
// whitespace-tokenized word counts.
package markup

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	storagePolicy = bluemonday.UGCPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

// Sanitize strips scripts and other unsafe markup while keeping the
// formatting tags the editor emits.
func Sanitize(raw string) string {
	return strings.TrimSpace(storagePolicy.Sanitize(raw))
}

// SanitizeKeepSpace sanitizes without trimming, for freeform fields where
// surrounding whitespace is part of the content.
func SanitizeKeepSpace(raw string) string {
	return storagePolicy.Sanitize(raw)
}

// PlainText strips all markup and returns the trimmed text content.
func PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
}

// CountWords tokenizes on whitespace. Empty or blank text counts zero.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
