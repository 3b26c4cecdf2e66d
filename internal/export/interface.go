package export

import (
	"fmt"
	"io"
	"os"

	"github.com/iksnae/trompo-cli/internal"
)

// Exporter defines the interface for all transcript export formats
type Exporter interface {
	Export(transcript *internal.Transcript, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// DefaultFileName names an export of transcript in the exporter's format
func DefaultFileName(e Exporter, transcript *internal.Transcript) string {
	return fmt.Sprintf("chat_%s_%s.%s", transcript.SenderID, transcript.ReceiverID, e.Extension())
}

// WriteFile exports transcript to path, replacing any existing file
func WriteFile(e Exporter, transcript *internal.Transcript, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	if err := e.Export(transcript, f); err != nil {
		_ = f.Close()
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	return nil
}
