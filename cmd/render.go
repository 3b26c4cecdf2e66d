package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/trompo-cli/internal"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	placeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

// newTable writes a styled header row and returns the writer for the body.
// Callers must Flush it.
func newTable(out io.Writer, columns ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = titleStyle.Render(c)
	}
	_, _ = fmt.Fprintln(w, strings.Join(titles, "\t")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 20*len(columns)))
	return w
}

func printHeader(out io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf(format, args...)))
	_, _ = fmt.Fprintln(out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

// argID turns a positional argument into an ID
func argID(field, arg string) (internal.ID, error) {
	id := internal.ID(strings.TrimSpace(arg))
	if id == "" {
		return "", &internal.ValidationError{Field: field, Reason: "is required"}
	}
	return id, nil
}

func verifiedMark(ok bool) string {
	if ok {
		return countStyle.Render("✓")
	}
	return dateStyle.Render("pending")
}
