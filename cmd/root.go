package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	apiURL      string
	realtimeURL string
	dataDir     string
	logLevel    string
	envFile     string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	// config is resolved once per invocation in PersistentPreRunE
	config *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trompo",
	Short: "Terminal client for the Trompo marketplace",
	Long: `A terminal client for the Trompo local marketplace.

Browse verified businesses and their products, manage your own listings,
and chat with customers and sellers in real time.

Features:
  • Live chat with history, delivered over a realtime channel
  • Unread inbox for business accounts, with --watch
  • Browse and filter businesses and sellables
  • Reviews, disputes, transactions and verification workflows
  • Export conversations (JSONL, Markdown, YAML, JSON)

Quick Start:
  trompo login --email you@example.com --password ...
  trompo businesses list --city Cebu
  trompo chat 42                          # chat with user 42

Configuration is read from .env and TROMPO_* environment variables;
the flags below override both.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		config = cfg
		internal.SetLogLevel(cfg.LogLevel)
		if verbose {
			internal.SetVerbose(true)
		}
		return nil
	},
}

// resolveConfig layers flags over .env and the environment
func resolveConfig() (*internal.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := internal.LoadConfig(files...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(apiURL, "/")
	}
	if realtimeURL != "" {
		cfg.RealtimeURL = realtimeURL
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		level, err := internal.ParseLogLevel(logLevel)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %s\n", internal.LoginHint(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "REST API base URL (default from TROMPO_API_URL)")
	rootCmd.PersistentFlags().StringVar(&realtimeURL, "realtime", "", "Realtime endpoint URL (default from TROMPO_REALTIME_URL)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the session database and cache (default ~/.trompo)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load settings from this file instead of .env")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
