package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/chat"
	"github.com/iksnae/trompo-cli/internal/export"
	"github.com/spf13/cobra"
)

var (
	format      string
	outputDir   string
	exportCache bool
	clearCache  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <receiver-id>",
	Short: "Export a conversation transcript",
	Long: `Export your conversation with another user to a file (jsonl, md, yaml, json).

Without --out the transcript is written to stdout. Every export refreshes
the local transcript cache; --cached exports the cached copy without
contacting the backend.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		receiverID, err := argID("receiver id", args[0])
		if err != nil {
			return err
		}
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireLogin()
		if err != nil {
			return err
		}

		if clearCache {
			if err := a.cache.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear cache: %v", err)
			} else {
				internal.LogInfo("Cache cleared")
			}
		}

		var transcript *internal.Transcript
		if exportCache {
			transcript, err = a.cache.LoadTranscript(s.UserID, receiverID)
			if err != nil {
				return err
			}
			if transcript == nil {
				return fmt.Errorf("no cached conversation with %s (run without --cached first)", receiverID)
			}
			internal.LogInfo("Loaded %d message(s) from cache", len(transcript.Messages))
		} else {
			err = internal.ShowProgress(cmd.Context(), "Fetching conversation", func() error {
				messages, loadErr := chat.LoadHistory(cmd.Context(), a.client, s.UserID, receiverID)
				if loadErr != nil {
					return loadErr
				}
				transcript = internal.NewTranscript(s.UserID, receiverID, messages)
				return nil
			})
			if err != nil {
				return err
			}
			if err := a.cache.SaveTranscript(transcript); err != nil {
				internal.LogWarn("Failed to save cache: %v", err)
			}
		}

		if outputDir == "" {
			return exporter.Export(transcript, cmd.OutOrStdout())
		}

		path := filepath.Join(outputDir, export.DefaultFileName(exporter, transcript))
		err = internal.ShowProgressWithSteps(cmd.Context(), []internal.ProgressStep{
			{Message: "Creating output directory", Fn: func() error {
				return os.MkdirAll(outputDir, 0755)
			}},
			{Message: "Writing " + format, Fn: func() error {
				return export.WriteFile(exporter, transcript, path)
			}},
		})
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Export complete: %d message(s) written to %s", len(transcript.Messages), path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (default stdout)")
	exportCmd.Flags().BoolVar(&exportCache, "cached", false, "Export the cached transcript without contacting the backend")
	exportCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "Clear the cache before running")
}
