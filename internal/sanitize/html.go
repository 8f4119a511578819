// Package sanitize strips unsafe markup from scraped content before it is
// stored or served.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all tags and attributes. Used for titles,
	// locations, and other fields that must be plain text.
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy allows basic formatting (p, b, i, em, strong, a, lists).
	// Used for event descriptions.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML and collapses surrounding whitespace.
func Text(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// Description sanitizes a scraped description, keeping safe formatting tags
// and dropping scripts, iframes, and event handlers.
func Description(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}
