// ABOUTME: HTML export of the journal for printing and sharing
// ABOUTME: Entry content is treated as markdown and rendered with goldmark

package wellness

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
)

// ExportJournalHTML renders every journal entry as a single HTML document,
// newest first.
func (s *Service) ExportJournalHTML(ctx context.Context) ([]byte, error) {
	entries, err := s.store.JournalEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading journal entries: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	buf.WriteString("<title>MindEase Journal</title>\n</head>\n<body>\n")
	buf.WriteString("<h1>MindEase Journal</h1>\n")

	for _, entry := range entries {
		buf.WriteString("<article>\n")
		fmt.Fprintf(&buf, "<h2>%s</h2>\n", html.EscapeString(entry.Title))
		fmt.Fprintf(&buf, "<p><time>%s</time></p>\n", entry.CreatedAt.Format("January 2, 2006"))

		var rendered bytes.Buffer
		if err := goldmark.Convert([]byte(entry.Content), &rendered); err != nil {
			s.logger.Error("failed to convert markdown", "entry", entry.ID, "error", err)
			fmt.Fprintf(&rendered, "<p>%s</p>", html.EscapeString(entry.Content))
		}
		buf.Write(rendered.Bytes())
		buf.WriteString("</article>\n")
	}

	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}
