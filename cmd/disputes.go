package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/spf13/cobra"
)

var (
	disputeReason   string
	disputeStatus   string
	disputeResponse string
)

var disputesCmd = &cobra.Command{
	Use:   "disputes",
	Short: "File and resolve transaction disputes",
}

var disputesFileCmd = &cobra.Command{
	Use:   "file <transaction-id>",
	Short: "File a dispute about a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("transaction id", args[0])
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
		d, err := a.client.FileDispute(cmd.Context(), s.UserID, id, disputeReason)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Dispute %s filed", d.DisputeID))
		return nil
	},
}

var disputesPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending disputes (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requireRole(internal.RoleAdmin); err != nil {
			return err
		}
		disputes, err := a.client.PendingDisputes(cmd.Context())
		if err != nil {
			return err
		}
		displayDisputes(cmd.OutOrStdout(), disputes)
		return nil
	},
}

var disputesAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every dispute (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requireRole(internal.RoleAdmin); err != nil {
			return err
		}
		disputes, err := a.client.AllDisputes(cmd.Context())
		if err != nil {
			return err
		}
		displayDisputes(cmd.OutOrStdout(), disputes)
		return nil
	},
}

var disputesResolveCmd = &cobra.Command{
	Use:   "resolve <dispute-id>",
	Short: "Resolve or dismiss a dispute (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("dispute id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requireRole(internal.RoleAdmin); err != nil {
			return err
		}
		ack, err := a.client.ResolveDispute(cmd.Context(), id, disputeStatus, disputeResponse)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Dispute updated"))
		return nil
	},
}

func displayDisputes(out io.Writer, disputes []internal.Dispute) {
	if len(disputes) == 0 {
		printHeader(out, "⚖️  No disputes")
		return
	}
	printHeader(out, "⚖️  %d dispute(s)", len(disputes))

	w := newTable(out, "ID", "Transaction", "Complainant", "Status", "Reason")
	for _, d := range disputes {
		by := d.ComplainantID.String()
		if d.Complainant != nil {
			by = displayUser(*d.Complainant)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(d.DisputeID.String()),
			d.TransactionID,
			nameStyle.Render(by),
			countStyle.Render(d.Status),
			truncate(d.Reason, 50),
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(disputesCmd)
	disputesCmd.AddCommand(disputesFileCmd, disputesPendingCmd, disputesAllCmd, disputesResolveCmd)

	disputesFileCmd.Flags().StringVar(&disputeReason, "reason", "", "What went wrong")
	disputesResolveCmd.Flags().StringVar(&disputeStatus, "status", internal.DisputeResolved, "RESOLVED or DISMISSED")
	disputesResolveCmd.Flags().StringVar(&disputeResponse, "response", "", "Response sent to the complainant")
}
