package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/api"
	"github.com/spf13/cobra"
)

var (
	reviewRating int
	reviewText   string
	reviewMedia  []string
	reviewReason string
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Read and write business reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list <business-id>",
	Short: "List the reviews of a business",
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

		reviews, err := a.client.BusinessReviews(cmd.Context(), id)
		if err != nil {
			return err
		}
		displayReviews(cmd.OutOrStdout(), reviews)
		return nil
	},
}

var reviewsAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every review (admin)",
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
		reviews, err := a.client.AllReviews(cmd.Context())
		if err != nil {
			return err
		}
		displayReviews(cmd.OutOrStdout(), reviews)
		return nil
	},
}

var reviewsCreateCmd = &cobra.Command{
	Use:   "create <business-id>",
	Short: "Review a business",
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

		s, err := a.requireLogin()
		if err != nil {
			return err
		}
		review, err := a.client.CreateReview(cmd.Context(), api.ReviewInput{
			UserID:     s.UserID,
			BusinessID: id,
			Rating:     reviewRating,
			ReviewText: reviewText,
			Media:      reviewMedia,
		})
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Review %s posted", review.ReviewID))
		return nil
	},
}

var reviewsDeleteCmd = &cobra.Command{
	Use:   "delete <review-id>",
	Short: "Remove a review (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("review id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireRole(internal.RoleAdmin)
		if err != nil {
			return err
		}
		ack, err := a.client.DeleteReview(cmd.Context(), id, s.UserID, reviewReason)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Review deleted"))
		return nil
	},
}

func displayReviews(out io.Writer, reviews []internal.Review) {
	if len(reviews) == 0 {
		printHeader(out, "⭐ No reviews yet")
		return
	}
	printHeader(out, "⭐ %d review(s)", len(reviews))

	w := newTable(out, "ID", "Rating", "By", "Review", "Date")
	for _, r := range reviews {
		by := r.UserID.String()
		if r.User != nil {
			by = displayUser(*r.User)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(r.ReviewID.String()),
			countStyle.Render(stars(r.Rating)),
			nameStyle.Render(by),
			truncate(dash(r.ReviewText), 50),
			dateStyle.Render(dash(r.ReviewDate)),
		)
	}
	_ = w.Flush()
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func init() {
	rootCmd.AddCommand(reviewsCmd)
	reviewsCmd.AddCommand(reviewsListCmd, reviewsAllCmd, reviewsCreateCmd, reviewsDeleteCmd)

	reviewsCreateCmd.Flags().IntVar(&reviewRating, "rating", 0, "Rating from 1 to 5")
	reviewsCreateCmd.Flags().StringVar(&reviewText, "text", "", "Review text")
	reviewsCreateCmd.Flags().StringSliceVar(&reviewMedia, "media", nil, "Media URLs")

	reviewsDeleteCmd.Flags().StringVar(&reviewReason, "reason", "", "Reason given to the author")
}
