package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/spf13/cobra"
)

var (
	transactionItems  []string
	transactionStatus string
	transactionReason string
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "Create and track purchases",
}

var transactionsCreateCmd = &cobra.Command{
	Use:     "create <business-id>",
	Short:   "Start a purchase from a business",
	Example: `  trompo transactions create 12 --item 31:2 --item 40:1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("business id", args[0])
		if err != nil {
			return err
		}
		items, err := parseItems(transactionItems)
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
		tx, err := a.client.CreateTransaction(cmd.Context(), s.UserID, id, items)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Transaction %s created (%s)", tx.TransactionID, tx.Status))
		return nil
	},
}

var transactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireLogin()
		if err != nil {
			return err
		}
		txs, err := a.client.UserTransactions(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}
		displayTransactions(cmd.OutOrStdout(), txs)
		return nil
	},
}

var transactionsCompleteCmd = &cobra.Command{
	Use:   "complete <transaction-id>",
	Short: "Mark a transaction as fulfilled (business owner)",
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

		s, err := a.requireRole(internal.RoleBusinessOwner)
		if err != nil {
			return err
		}
		ack, err := a.client.CompleteTransaction(cmd.Context(), id, s.UserID)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Transaction completed"))
		return nil
	},
}

var transactionsConfirmCmd = &cobra.Command{
	Use:   "confirm <transaction-id>",
	Short: "Confirm whether a transaction finished",
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
		ack, err := a.client.ConfirmTransaction(cmd.Context(), id, s.UserID, transactionStatus, transactionReason)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Transaction confirmed"))
		return nil
	},
}

var transactionsAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every transaction (admin)",
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
		txs, err := a.client.AllTransactions(cmd.Context())
		if err != nil {
			return err
		}
		displayTransactions(cmd.OutOrStdout(), txs)
		return nil
	},
}

// parseItems reads SELLABLE_ID:QUANTITY pairs; a bare id means quantity 1
func parseItems(entries []string) ([]internal.TransactionItem, error) {
	items := make([]internal.TransactionItem, 0, len(entries))
	for _, entry := range entries {
		id, qty, found := strings.Cut(strings.TrimSpace(entry), ":")
		if id == "" {
			return nil, &internal.ValidationError{Field: "item", Reason: fmt.Sprintf("%q has no sellable id", entry)}
		}
		quantity := 1
		if found {
			n, err := strconv.Atoi(qty)
			if err != nil {
				return nil, &internal.ValidationError{Field: "item", Reason: fmt.Sprintf("%q has a bad quantity", entry)}
			}
			quantity = n
		}
		items = append(items, internal.TransactionItem{SellableID: internal.ID(id), Quantity: quantity})
	}
	return items, nil
}

func displayTransactions(out io.Writer, txs []internal.Transaction) {
	if len(txs) == 0 {
		printHeader(out, "🧾 No transactions")
		return
	}
	printHeader(out, "🧾 %d transaction(s)", len(txs))

	w := newTable(out, "ID", "Customer", "Business", "Status", "Total", "Created")
	for _, tx := range txs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(tx.TransactionID.String()),
			tx.CustomerID,
			tx.BusinessID,
			countStyle.Render(tx.Status),
			internal.FormatPrice(tx.TotalAmount),
			dateStyle.Render(dash(tx.CreatedAt)),
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
	transactionsCmd.AddCommand(transactionsCreateCmd, transactionsListCmd, transactionsCompleteCmd,
		transactionsConfirmCmd, transactionsAllCmd)

	transactionsCreateCmd.Flags().StringArrayVar(&transactionItems, "item", nil, "SELLABLE_ID[:QUANTITY], repeatable")
	transactionsConfirmCmd.Flags().StringVar(&transactionStatus, "status", internal.TransactionFinished, "FINISHED or INCOMPLETE")
	transactionsConfirmCmd.Flags().StringVar(&transactionReason, "reason", "", "Why the transaction is incomplete")
}
