package cmd

import (
	"fmt"
	"time"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/api"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	registerForm api.RegisterRequest
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var resp *api.AuthResponse
		err = internal.ShowProgress(cmd.Context(), "Logging in", func() error {
			var loginErr error
			resp, loginErr = a.client.Login(cmd.Context(), loginEmail, loginPassword)
			return loginErr
		})
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Logged in as %s (%s)", displayUser(resp.User), resp.User.UserType))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.client.Register(cmd.Context(), registerForm)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Welcome, %s! Your %s account is ready.", displayUser(resp.User), resp.User.UserType))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.client.Logout(); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
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
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User ID:   %s\n", s.UserID)
		fmt.Fprintf(out, "User type: %s\n", s.UserType)
		if exp, ok := s.TokenExpiry(); ok {
			state := "valid"
			if s.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(out, "Token:     %s until %s\n", state, exp.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func displayUser(u internal.User) string {
	c := internal.Counterpart{UserID: u.UserID, FirstName: u.FirstName, LastName: u.LastName}
	return c.DisplayName()
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")

	registerCmd.Flags().StringVar(&registerForm.FirstName, "first", "", "First name")
	registerCmd.Flags().StringVar(&registerForm.LastName, "last", "", "Last name")
	registerCmd.Flags().StringVar(&registerForm.Email, "email", "", "Email")
	registerCmd.Flags().StringVar(&registerForm.PhoneNumber, "phone", "", "Phone number")
	registerCmd.Flags().StringVar(&registerForm.Password, "password", "", "Password")
	registerCmd.Flags().StringVar(&registerForm.UserType, "type", internal.RoleCustomer, "Account type: CUSTOMER or BUSINESS_OWNER")
}
