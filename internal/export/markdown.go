package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/trompo-cli/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# %s\n\n", transcript.Title())
	if !transcript.ExportedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", transcript.ExportedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range transcript.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Format(time.RFC3339))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n", transcript.Speaker(msg), timestamp)
		if body := strings.TrimSpace(msg.Body); body != "" {
			_, _ = fmt.Fprintf(w, "%s\n\n", escapeMarkdown(body))
		}
		if msg.Product != nil {
			_, _ = fmt.Fprintf(w, "> Product: %s, %s\n\n", escapeMarkdown(msg.Product.Name), internal.FormatPrice(msg.Product.Price))
		}

		// Horizontal rule between messages
		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
