// internal/app/system/sanitize/sanitize.go

// Package sanitize strips dangerous markup from user-supplied rich text
// (rule descriptions, announcement bodies) before it is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ugc allows the formatting subset managers actually use.
	ugc = bluemonday.UGCPolicy()

	// strict strips all markup, for plain-text fields.
	strict = bluemonday.StrictPolicy()
)

// HTML sanitizes rich text, keeping safe formatting tags only.
func HTML(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}

// Text strips all markup from a plain-text field.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
