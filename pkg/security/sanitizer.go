package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from user-supplied free text, removes null
// bytes and trims surrounding whitespace. Entities escaped by the policy are
// decoded back so plain text like "Tom & Jerry" survives unchanged.
func SanitizeText(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(input)))
}
