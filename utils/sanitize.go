package utils

import "github.com/microcosm-cc/bluemonday"

// Audit log notes are plain text and never rendered as HTML, so strip
// all markup instead of allowing a UGC subset.
var sanitizer = bluemonday.StrictPolicy()

// SanitizeNote cleans free-text notes before they reach the audit log.
func SanitizeNote(input string) string {
	return sanitizer.Sanitize(input)
}
