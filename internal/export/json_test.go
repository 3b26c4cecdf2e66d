package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/trompo-cli/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		wantCount  int
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript("4", "9"),
			wantCount:  2,
		},
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithMessages("4", "9", []internal.Message{}),
			wantCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := &JSONExporter{}
			var buf bytes.Buffer
			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			var decoded internal.Transcript
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			if decoded.SenderID != tt.transcript.SenderID || decoded.ReceiverID != tt.transcript.ReceiverID {
				t.Errorf("ids = %s/%s", decoded.SenderID, decoded.ReceiverID)
			}
			if len(decoded.Messages) != tt.wantCount {
				t.Errorf("messages = %d, want %d", len(decoded.Messages), tt.wantCount)
			}
			if !strings.Contains(buf.String(), "\n  ") {
				t.Error("output should be indented")
			}
		})
	}
}

func TestJSONExporter_KeepsProduct(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(internal.CreateTestTranscript("4", "9"), &buf); err != nil {
		t.Fatal(err)
	}
	var decoded internal.Transcript
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	product := decoded.Messages[1].Product
	if product == nil || product.Name != "Tamales" || product.Price != 45 || product.SellableID != "31" {
		t.Errorf("product = %+v", product)
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	if got := (&JSONExporter{}).Extension(); got != "json" {
		t.Errorf("Extension() = %v, want json", got)
	}
}
