package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/trompo-cli/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range transcript.Messages {
		obj := map[string]interface{}{
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
			"speaker":     transcript.Speaker(msg),
			"message":     msg.Body,
		}
		if msg.ID != "" {
			obj["id"] = msg.ID
		}
		if msg.Product != nil {
			obj["product"] = msg.Product
		}
		if !msg.Timestamp.IsZero() {
			obj["timestamp"] = msg.Timestamp.Format(time.RFC3339)
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
