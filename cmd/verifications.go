package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/api"
	"github.com/spf13/cobra"
)

var (
	idImagePath          string
	verificationBusiness bool
	verificationReview   api.VerificationReview
)

var verificationsCmd = &cobra.Command{
	Use:   "verifications",
	Short: "Identity and business permit verification",
}

var verificationsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an ID image to verify your account",
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
		f, err := openUpload("id_image", idImagePath)
		if err != nil {
			return err
		}
		defer f.Close()

		ack, err := a.client.SubmitUserVerification(cmd.Context(), s.UserID, filepath.Base(idImagePath), f)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Verification submitted"))
		return nil
	},
}

var verificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List verification requests (admin)",
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
		out := cmd.OutOrStdout()
		if verificationBusiness {
			requests, err := a.client.BusinessVerifications(cmd.Context())
			if err != nil {
				return err
			}
			displayBusinessVerifications(out, requests)
			return nil
		}
		requests, err := a.client.UserVerifications(cmd.Context())
		if err != nil {
			return err
		}
		displayUserVerifications(out, requests)
		return nil
	},
}

var verificationsReviewCmd = &cobra.Command{
	Use:   "review <verification-id>",
	Short: "Approve or deny a verification request (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("verification id", args[0])
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
		review := verificationReview
		review.AdminID = s.UserID

		var ack *api.Ack
		if verificationBusiness {
			ack, err = a.client.ReviewBusinessVerification(cmd.Context(), id, review)
		} else {
			ack, err = a.client.ReviewUserVerification(cmd.Context(), id, review)
		}
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "Verification "+review.Status))
		return nil
	},
}

func displayUserVerifications(out io.Writer, requests []internal.UserVerification) {
	if len(requests) == 0 {
		printHeader(out, "🪪 No user verifications")
		return
	}
	printHeader(out, "🪪 %d user verification(s)", len(requests))

	w := newTable(out, "ID", "User", "Status", "Image")
	for _, v := range requests {
		user := v.UserID.String()
		if v.User != nil {
			user = displayUser(*v.User)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(v.VerificationID.String()),
			nameStyle.Render(user),
			countStyle.Render(v.Status),
			dateStyle.Render(truncate(v.IDImage, 50)),
		)
	}
	_ = w.Flush()
}

func displayBusinessVerifications(out io.Writer, requests []internal.VerificationRequest) {
	if len(requests) == 0 {
		printHeader(out, "📄 No business verifications")
		return
	}
	printHeader(out, "📄 %d business verification(s)", len(requests))

	w := newTable(out, "ID", "Business", "Status", "Requested", "Permit")
	for _, v := range requests {
		name := v.BusinessID.String()
		if v.Business != nil {
			name = v.Business.BusinessName
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(v.RequestID.String()),
			nameStyle.Render(name),
			countStyle.Render(v.Status),
			dateStyle.Render(dash(v.RequestDate)),
			truncate(v.BusinessPermit, 50),
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(verificationsCmd)
	verificationsCmd.AddCommand(verificationsSubmitCmd, verificationsListCmd, verificationsReviewCmd)

	verificationsSubmitCmd.Flags().StringVar(&idImagePath, "id-image", "", "Image of a government ID")
	verificationsListCmd.Flags().BoolVar(&verificationBusiness, "business", false, "List business permit requests instead of user IDs")
	verificationsReviewCmd.Flags().BoolVar(&verificationBusiness, "business", false, "Review a business permit request")
	verificationsReviewCmd.Flags().StringVar(&verificationReview.Status, "status", internal.VerificationApproved, "APPROVED or DENIED")
	verificationsReviewCmd.Flags().StringVar(&verificationReview.DenialReason, "reason", "", "Reason for a denial")
}
