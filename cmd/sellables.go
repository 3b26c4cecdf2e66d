package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/api"
	"github.com/spf13/cobra"
)

var (
	sellableInStock    bool
	sellableOutOfStock bool
	sellableMin        float64
	sellableMax        float64

	sellableName        string
	sellableType        string
	sellablePrice       float64
	sellableDescription string
	sellableActive      bool
	sellableMedia       []string
)

var sellablesCmd = &cobra.Command{
	Use:     "sellables",
	Aliases: []string{"products"},
	Short:   "Browse and manage products and services",
}

var sellablesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sellables of verified businesses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := sellableFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var all []internal.Business
		err = internal.ShowProgress(cmd.Context(), "Fetching businesses", func() error {
			var fetchErr error
			all, fetchErr = a.client.AllBusinesses(cmd.Context())
			return fetchErr
		})
		if err != nil {
			return err
		}
		sellables := internal.FilterSellables(internal.ExtractSellables(all), filter)
		displaySellables(cmd.OutOrStdout(), sellables)
		return nil
	},
}

var sellablesAddCmd = &cobra.Command{
	Use:   "add <business-id>",
	Short: "Add a sellable to one of your businesses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("business id", args[0])
		if err != nil {
			return err
		}
		input := sellableInputFromFlags(cmd)
		if err := input.ValidateNew(); err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requireRole(internal.RoleBusinessOwner); err != nil {
			return err
		}
		created, err := a.client.AddSellable(cmd.Context(), id, input)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Added %s (id %s)", created.Name, created.SellableID))
		return nil
	},
}

var sellablesEditCmd = &cobra.Command{
	Use:   "edit <sellable-id>",
	Short: "Edit a sellable; only the flags you pass are changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("sellable id", args[0])
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
		ack, err := a.client.EditSellable(cmd.Context(), id, s.UserID, sellableInputFromFlags(cmd))
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Sellable updated"))
		return nil
	},
}

var sellablesDeleteCmd = &cobra.Command{
	Use:   "delete <sellable-id>",
	Short: "Delete a sellable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("sellable id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requireRole(internal.RoleBusinessOwner); err != nil {
			return err
		}
		ack, err := a.client.DeleteSellable(cmd.Context(), id)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Sellable deleted"))
		return nil
	},
}

// sellableFilterFromFlags leaves a price bound nil unless its flag was given
func sellableFilterFromFlags(cmd *cobra.Command) (internal.SellableFilter, error) {
	var f internal.SellableFilter
	switch {
	case sellableInStock && sellableOutOfStock:
		return f, &internal.ValidationError{Field: "availability", Reason: "--in-stock and --out-of-stock are exclusive"}
	case sellableInStock:
		f.Availability = internal.AvailabilityInStock
	case sellableOutOfStock:
		f.Availability = internal.AvailabilityOutOfStock
	}
	if cmd.Flags().Changed("min") {
		v := sellableMin
		f.MinPrice = &v
	}
	if cmd.Flags().Changed("max") {
		v := sellableMax
		f.MaxPrice = &v
	}
	return f, f.Validate()
}

func sellableInputFromFlags(cmd *cobra.Command) api.SellableInput {
	input := api.SellableInput{
		Name:        sellableName,
		Type:        sellableType,
		Description: sellableDescription,
		Media:       sellableMedia,
	}
	if cmd.Flags().Changed("price") {
		v := sellablePrice
		input.Price = &v
	}
	if cmd.Flags().Changed("active") || cmd.Name() == "add" {
		v := sellableActive
		input.IsActive = &v
	}
	return input
}

func displaySellables(out io.Writer, sellables []internal.Sellable) {
	if len(sellables) == 0 {
		printHeader(out, "🛒 No sellables found")
		return
	}
	printHeader(out, "🛒 %d sellable(s)", len(sellables))

	w := newTable(out, "ID", "Name", "Type", "Price", "Business", "Available")
	for _, s := range sellables {
		avail := countStyle.Render("in stock")
		if !s.IsActive {
			avail = dateStyle.Render("out of stock")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(s.SellableID.String()),
			nameStyle.Render(truncate(s.Name, 40)),
			dash(s.Type),
			internal.FormatPrice(s.Price),
			placeStyle.Render(truncate(dash(s.BusinessName), 30)),
			avail,
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(sellablesCmd)
	sellablesCmd.AddCommand(sellablesListCmd, sellablesAddCmd, sellablesEditCmd, sellablesDeleteCmd)

	sellablesListCmd.Flags().BoolVar(&sellableInStock, "in-stock", false, "Only available items")
	sellablesListCmd.Flags().BoolVar(&sellableOutOfStock, "out-of-stock", false, "Only unavailable items")
	sellablesListCmd.Flags().Float64Var(&sellableMin, "min", 0, "Minimum price")
	sellablesListCmd.Flags().Float64Var(&sellableMax, "max", 0, "Maximum price")

	for _, c := range []*cobra.Command{sellablesAddCmd, sellablesEditCmd} {
		c.Flags().StringVar(&sellableName, "name", "", "Name")
		c.Flags().StringVar(&sellableType, "type", "", "PRODUCT or SERVICE")
		c.Flags().Float64Var(&sellablePrice, "price", 0, "Price in pesos")
		c.Flags().StringVar(&sellableDescription, "description", "", "Description")
		c.Flags().BoolVar(&sellableActive, "active", true, "Whether the item is available")
		c.Flags().StringSliceVar(&sellableMedia, "media", nil, "Media URLs")
	}
}
