package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/api"
	"github.com/spf13/cobra"
)

var userUpdate api.UserUpdate

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts (admin)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
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
		users, err := a.client.AllUsers(cmd.Context())
		if err != nil {
			return err
		}
		displayUsers(cmd.OutOrStdout(), users)
		return nil
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("user id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		// users may read their own profile
		s, err := a.requireLogin()
		if err != nil {
			return err
		}
		if s.UserID != id {
			if err := internal.RequireRole(s, internal.RoleAdmin); err != nil {
				return err
			}
		}
		u, err := a.client.GetUser(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printHeader(out, "👤 %s", displayUser(*u))
		_, _ = fmt.Fprintf(out, "ID:          %s\n", u.UserID)
		_, _ = fmt.Fprintf(out, "Type:        %s\n", u.UserType)
		_, _ = fmt.Fprintf(out, "Email:       %s\n", dash(u.Email))
		_, _ = fmt.Fprintf(out, "Phone:       %s\n", dash(u.PhoneNumber))
		_, _ = fmt.Fprintf(out, "Verified:    %s\n", verifiedMark(u.IsVerified))
		_, _ = fmt.Fprintf(out, "Registered:  %s\n", dash(u.DateRegistered))
		return nil
	},
}

var usersEditCmd = &cobra.Command{
	Use:   "edit <user-id>",
	Short: "Edit a user; only the flags you pass are changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("user id", args[0])
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
		if s.UserID != id {
			if err := internal.RequireRole(s, internal.RoleAdmin); err != nil {
				return err
			}
		}
		ack, err := a.client.EditUser(cmd.Context(), id, userUpdate)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "User updated"))
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID("user id", args[0])
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
		ack, err := a.client.DeleteUser(cmd.Context(), id)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), ackMessage(ack, "User deleted"))
		return nil
	},
}

func displayUsers(out io.Writer, users []internal.User) {
	if len(users) == 0 {
		printHeader(out, "👥 No users")
		return
	}
	printHeader(out, "👥 %d user(s)", len(users))

	w := newTable(out, "ID", "Name", "Email", "Type", "Verified")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(u.UserID.String()),
			nameStyle.Render(displayUser(u)),
			dash(u.Email),
			u.UserType,
			verifiedMark(u.IsVerified),
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersShowCmd, usersEditCmd, usersDeleteCmd)

	usersEditCmd.Flags().StringVar(&userUpdate.FirstName, "first", "", "First name")
	usersEditCmd.Flags().StringVar(&userUpdate.LastName, "last", "", "Last name")
	usersEditCmd.Flags().StringVar(&userUpdate.Email, "email", "", "Email")
	usersEditCmd.Flags().StringVar(&userUpdate.PhoneNumber, "phone", "", "Phone number")
	usersEditCmd.Flags().StringVar(&userUpdate.UserType, "type", "", "Account type")
}
