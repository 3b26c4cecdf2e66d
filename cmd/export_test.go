package cmd

import (
	"errors"
	"testing"

	"github.com/iksnae/trompo-cli/internal"
)

func TestExportCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		wantVal bool
	}{
		{
			name:    "missing receiver",
			args:    []string{"export"},
			wantErr: true,
		},
		{
			name:    "blank receiver",
			args:    []string{"export", " "},
			wantErr: true,
			wantVal: true,
		},
		{
			name:    "invalid format",
			args:    []string{"export", "2", "--format", "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("export error = %v, wantErr %v", err, tt.wantErr)
			}
			var vErr *internal.ValidationError
			if tt.wantVal && !errors.As(err, &vErr) {
				t.Errorf("export error = %v, want ValidationError", err)
			}
		})
	}
}

func TestExportCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"format", "f", "jsonl"},
		{"out", "o", ""},
		{"cached", "", "false"},
		{"clear-cache", "", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := exportCmd.Flags().Lookup(tt.name)
			if f == nil {
				t.Fatalf("flag --%s not registered", tt.name)
			}
			if f.Shorthand != tt.shorthand {
				t.Errorf("--%s shorthand = %q, want %q", tt.name, f.Shorthand, tt.shorthand)
			}
			if f.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.name, f.DefValue, tt.defValue)
			}
		})
	}
}
