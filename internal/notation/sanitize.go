package notation

import (
	"regexp"
	"strings"
)

// Rendered markup coming back over the host boundary gets exactly the
// same treatment as markup from the remote path: executable content is
// stripped before it reaches the preview document.
var (
	scriptElementPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>|<script\b[^>]*/?>`)
	eventAttrPattern     = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	scriptHrefPattern    = regexp.MustCompile(`(?i)(href|src|xlink:href)\s*=\s*(["']?)\s*javascript:[^"'\s>]*(["']?)`)
)

// Sanitize strips script elements, inline event handlers, and
// javascript: references from externally produced markup.
func Sanitize(markup string) string {
	markup = scriptElementPattern.ReplaceAllString(markup, "")
	markup = eventAttrPattern.ReplaceAllString(markup, "")
	markup = scriptHrefPattern.ReplaceAllString(markup, `$1=$2#$3`)

	return strings.TrimSpace(markup)
}
