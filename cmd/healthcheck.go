package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
	healthcheckTimeout time.Duration
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, local storage and backend connectivity",
	Long: `Check the health of trompo by verifying:
  • Configuration
  • Local data directory and session database
  • REST API reachability
  • Realtime channel connectivity
  • Login state

This command is useful for debugging connection problems.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		line := func(a ...interface{}) { _, _ = fmt.Fprintln(out, a...) }
		detail := func(format string, a ...interface{}) {
			if healthcheckDetails {
				_, _ = fmt.Fprintf(out, "   "+format+"\n", a...)
			}
		}

		line(sectionStyle.Render("🔍 Trompo Health Check"))
		line()

		// Step 1: Configuration
		line(infoStyle.Render("Step 1: Resolving configuration..."))
		cfg := config
		if cfg == nil {
			var err error
			if cfg, err = resolveConfig(); err != nil {
				line(errorStyle.Render("❌ Invalid configuration:"), err)
				return err
			}
		}
		line(successStyle.Render("✅ Configuration loaded"))
		detail("API:       %s", cfg.APIBaseURL)
		detail("Realtime:  %s", cfg.RealtimeURL)
		detail("Data dir:  %s", cfg.DataDir)
		detail("Log level: %s", cfg.LogLevel)
		line()

		// Step 2: Local storage
		line(infoStyle.Render("Step 2: Opening the session database..."))
		a, err := newApp()
		if err != nil {
			line(errorStyle.Render("❌ Failed to open local storage:"), err)
			return err
		}
		defer a.Close()
		line(successStyle.Render("✅ Session database available"))
		detail("Database: %s", cfg.DBPath())
		detail("Cache:    %s", cfg.CacheDir())
		line()

		ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
		defer cancel()

		// Step 3: REST API
		line(infoStyle.Render("Step 3: Contacting the REST API..."))
		apiOK := false
		status, err := a.client.Healthcheck(ctx)
		switch {
		case err != nil:
			line(errorStyle.Render("❌ API unreachable:"), err)
		case status >= http.StatusInternalServerError:
			line(errorStyle.Render(fmt.Sprintf("❌ API answered with HTTP %d", status)))
		default:
			apiOK = true
			line(successStyle.Render("✅ API reachable"))
			detail("Status: HTTP %d", status)
		}
		line()

		// Step 4: Login state
		line(infoStyle.Render("Step 4: Checking the stored session..."))
		s, err := a.store.Load()
		loggedIn := err == nil && s.IsAuthenticated()
		switch {
		case err != nil:
			line(errorStyle.Render("❌ Failed to read the session:"), err)
		case !loggedIn:
			line(warningStyle.Render("⚠️  Not logged in"))
			detail("Run `trompo login` to chat and manage listings")
		case s.Expired(time.Now()):
			line(warningStyle.Render(fmt.Sprintf("⚠️  Session for user %s has expired", s.UserID)))
		default:
			line(successStyle.Render(fmt.Sprintf("✅ Logged in as user %s (%s)", s.UserID, s.UserType)))
			if exp, ok := s.TokenExpiry(); ok {
				detail("Token valid until %s", exp.Local().Format(time.RFC1123))
			}
		}
		line()

		// Step 5: Realtime
		line(infoStyle.Render("Step 5: Connecting to the realtime channel..."))
		realtimeOK := false
		if !loggedIn {
			line(warningStyle.Render("⚠️  Skipped: the realtime channel needs a login"))
		} else if ch, err := a.openChannel(ctx, s); err != nil {
			line(errorStyle.Render("❌ Realtime unreachable:"), err)
		} else {
			realtimeOK = true
			_ = ch.Close()
			line(successStyle.Render("✅ Realtime channel connected"))
		}
		line()

		return summarizeHealth(out, apiOK, loggedIn, realtimeOK)
	},
}

func summarizeHealth(out io.Writer, apiOK, loggedIn, realtimeOK bool) error {
	_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	_, _ = fmt.Fprintln(out)
	switch {
	case !apiOK:
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
		_, _ = fmt.Fprintln(out, "   • The REST API cannot be reached")
		return fmt.Errorf("health check failed: API unavailable")
	case loggedIn && !realtimeOK:
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  API available but live chat is not"))
		_, _ = fmt.Fprintln(out, "   • Messages are still sent, but arrive only on refresh")
		return nil
	case !loggedIn:
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  API available, not logged in"))
		return nil
	default:
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		_, _ = fmt.Fprintln(out, successStyle.Render("   • API: reachable"))
		_, _ = fmt.Fprintln(out, successStyle.Render("   • Realtime: connected"))
		return nil
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 10*time.Second, "Timeout for the network checks")
}
