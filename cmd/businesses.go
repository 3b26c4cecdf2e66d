package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/api"
	"github.com/spf13/cobra"
)

var (
	businessFilter internal.BusinessFilter
	businessUpdate api.BusinessUpdate
	permitPath     string
)

var businessesCmd = &cobra.Command{
	Use:     "businesses",
	Aliases: []string{"business", "biz"},
	Short:   "Browse and manage businesses",
}

var businessesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List verified businesses",
	Long: `List verified businesses. Filters match exactly; --province and --city
match any of a business's locations.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		businesses := internal.FilterBusinesses(internal.VerifiedBusinesses(all), businessFilter)
		displayBusinesses(cmd.OutOrStdout(), businesses)
		return nil
	},
}

var businessesFiltersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Show the categories, provinces and cities you can filter by",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		all, err := a.client.AllBusinesses(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, facet := range []struct {
			title  string
			values []string
		}{
			{"Categories", internal.DistinctCategories(all)},
			{"Provinces", internal.DistinctProvinces(all)},
			{"Cities", internal.DistinctCities(all)},
		} {
			_, _ = fmt.Fprintln(out, titleStyle.Render(facet.title))
			for _, v := range facet.values {
				_, _ = fmt.Fprintf(out, "  %s\n", v)
			}
			_, _ = fmt.Fprintln(out)
		}
		return nil
	},
}

var businessesShowCmd = &cobra.Command{
	Use:   "show <business-id>",
	Short: "Show a business and its sellables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("business id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.client.GetBusiness(cmd.Context(), id)
		if err != nil {
			return err
		}
		displayBusiness(cmd.OutOrStdout(), b)
		return nil
	},
}

var businessesMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the businesses you own",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireRole(internal.RoleBusinessOwner)
		if err != nil {
			return err
		}
		businesses, err := a.client.BusinessesByOwner(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}
		displayBusinesses(cmd.OutOrStdout(), businesses)
		return nil
	},
}

var businessesUpdateCmd = &cobra.Command{
	Use:   "update <business-id>",
	Short: "Update a business profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("business id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireRole(internal.RoleBusinessOwner, internal.RoleAdmin)
		if err != nil {
			return err
		}
		ack, err := a.client.UpdateBusiness(cmd.Context(), id, s.UserID, businessUpdate)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Business updated"))
		return nil
	},
}

var businessesDeleteCmd = &cobra.Command{
	Use:   "delete <business-id>",
	Short: "Delete a business",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("business id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireRole(internal.RoleBusinessOwner, internal.RoleAdmin)
		if err != nil {
			return err
		}
		ack, err := a.client.DeleteBusiness(cmd.Context(), id, s.UserID)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Business deleted"))
		return nil
	},
}

var businessesVerifyCmd = &cobra.Command{
	Use:   "verify <business-id>",
	Short: "Submit a business permit for verification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("business id", args[0])
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
		f, err := openUpload("permit", permitPath)
		if err != nil {
			return err
		}
		defer f.Close()

		ack, err := a.client.SubmitBusinessVerification(cmd.Context(), id, filepath.Base(permitPath), f)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Verification request submitted"))
		return nil
	},
}

func displayBusinesses(out io.Writer, businesses []internal.Business) {
	if len(businesses) == 0 {
		printHeader(out, "🏪 No businesses found")
		return
	}
	printHeader(out, "🏪 Found %d business(es)", len(businesses))

	w := newTable(out, "ID", "Name", "Category", "Locations", "Items", "Verified")
	for _, b := range businesses {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(b.BusinessID.String()),
			nameStyle.Render(truncate(b.BusinessName, 40)),
			dash(b.Category.CategoryName),
			placeStyle.Render(truncate(dash(locations(b)), 40)),
			countStyle.Render(fmt.Sprintf("%d", len(b.Sellables))),
			verifiedMark(b.IsVerified),
		)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: use `trompo businesses show <id>` for details"))
}

func displayBusiness(out io.Writer, b *internal.Business) {
	printHeader(out, "🏪 %s", b.BusinessName)
	_, _ = fmt.Fprintf(out, "ID:          %s\n", b.BusinessID)
	_, _ = fmt.Fprintf(out, "Category:    %s\n", dash(b.Category.CategoryName))
	_, _ = fmt.Fprintf(out, "Verified:    %s\n", verifiedMark(b.IsVerified))
	_, _ = fmt.Fprintf(out, "Owner:       %s\n", dash(b.UserID.String()))
	_, _ = fmt.Fprintf(out, "Address:     %s\n", dash(b.Address))
	_, _ = fmt.Fprintf(out, "Contact:     %s\n", dash(b.ContactNumber))
	_, _ = fmt.Fprintf(out, "Website:     %s\n", dash(b.WebsiteURL))
	_, _ = fmt.Fprintf(out, "Locations:   %s\n", dash(locations(*b)))
	if b.Description != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", b.Description)
	}
	_, _ = fmt.Fprintln(out)
	displaySellables(out, b.Sellables)
}

func locations(b internal.Business) string {
	parts := make([]string, 0, len(b.Locations))
	for _, l := range b.Locations {
		parts = append(parts, fmt.Sprintf("%s, %s", l.City, l.Province))
	}
	return strings.Join(parts, "; ")
}

func ackMessage(ack *api.Ack, fallback string) string {
	if ack == nil || ack.Message == "" {
		return fallback
	}
	return ack.Message
}

// openUpload opens a file for a multipart submission
func openUpload(field, path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &internal.ValidationError{Field: field, Reason: "a file is required"}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &internal.StorageError{Path: path, Op: "open", Err: err}
	}
	return f, nil
}

func init() {
	rootCmd.AddCommand(businessesCmd)
	businessesCmd.AddCommand(businessesListCmd, businessesFiltersCmd, businessesShowCmd, businessesMineCmd,
		businessesUpdateCmd, businessesDeleteCmd, businessesVerifyCmd)

	businessesListCmd.Flags().StringVar(&businessFilter.Category, "category", "", "Only businesses in this category")
	businessesListCmd.Flags().StringVar(&businessFilter.Province, "province", "", "Only businesses with a location in this province")
	businessesListCmd.Flags().StringVar(&businessFilter.City, "city", "", "Only businesses with a location in this city")

	businessesUpdateCmd.Flags().StringVar(&businessUpdate.BusinessName, "name", "", "Business name")
	businessesUpdateCmd.Flags().StringVar(&businessUpdate.Description, "description", "", "Description")
	businessesUpdateCmd.Flags().StringVar((*string)(&businessUpdate.CategoryID), "category-id", "", "Category id")
	businessesUpdateCmd.Flags().StringVar(&businessUpdate.Address, "address", "", "Street address")
	businessesUpdateCmd.Flags().StringVar(&businessUpdate.ContactNumber, "contact", "", "Contact number")
	businessesUpdateCmd.Flags().StringVar(&businessUpdate.WebsiteURL, "website", "", "Website URL")

	businessesVerifyCmd.Flags().StringVar(&permitPath, "permit", "", "Business permit image to upload")
}
