// ABOUTME: Journal entry previews for list views
// ABOUTME: Whitespace-collapsed excerpts truncated to a fixed length

package wellness

import (
	"regexp"
	"strings"
)

// previewLength is the maximum preview length in runes.
const previewLength = 150

var whitespaceRun = regexp.MustCompile(`\s+`)

// Preview collapses whitespace runs into single spaces and truncates to
// previewLength runes with a trailing ellipsis.
func Preview(content string) string {
	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
	runes := []rune(cleaned)
	if len(runes) <= previewLength {
		return cleaned
	}
	return string(runes[:previewLength]) + "..."
}
