package cmd

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/tui"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the portal",
	Long: `Sign in to the Company Access Portal.

The backend session cookie and a local session marker are stored in
~/.portalctl, so later invocations reuse the session without asking for
credentials again.

Examples:
  portalctl login --email user@example.com
  portalctl login --email user@example.com --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		email := loginEmail
		password := loginPassword

		if email == "" && tui.ShouldPrompt() {
			email, err = tui.PromptForString(tui.Prompt{
				Message:     "Email",
				Placeholder: "user@example.com",
				Required:    true,
			})
			if err != nil {
				return err
			}
		}
		if password == "" && tui.ShouldPrompt() {
			password, err = tui.PromptForString(tui.Prompt{
				Message:  "Password",
				Required: true,
				Password: true,
			})
			if err != nil {
				return err
			}
		}

		if err := a.sessions.Login(cmd.Context(), email, password); err != nil {
			return err
		}

		snap := a.sessions.Snapshot()
		fmt.Printf("Signed in as %s\n", snap.Identity)
		fmt.Printf("Roles: %s\n", strings.Join(snap.Roles, ", "))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear local session state",
	Long: `Sign out from the portal.

The backend session is terminated on a best-effort basis; the local session
marker and persisted cookies are removed either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Logout(cmd.Context())
		fmt.Println("Signed out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())
		snap := a.sessions.Snapshot()

		if !snap.Authenticated() {
			fmt.Println("Not signed in.")
			fmt.Println()
			fmt.Println("Use 'portalctl login' to sign in.")
			return nil
		}

		fmt.Printf("Signed in as %s\n", snap.Identity)
		fmt.Printf("Roles: %s\n", strings.Join(snap.Roles, ", "))
		if snap.IsAdmin() {
			fmt.Println("Administrator: yes")
		}
		return nil
	},
}

var (
	resetToken    string
	resetPassword string
	resetConfirm  string
)

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password using an invitation or reset token",
	Long: `Set a new password using the token from an invitation or password
reset mail. The new password must be at least 6 characters long and contain
an uppercase letter and a digit.

Examples:
  portalctl reset-password --token <token>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		if resetToken == "" {
			return errors.NewRequiredFieldError("token")
		}

		password := resetPassword
		confirm := resetConfirm
		if password == "" && tui.ShouldPrompt() {
			password, err = tui.PromptForString(tui.Prompt{
				Message:  "New password",
				Required: true,
				Password: true,
			})
			if err != nil {
				return err
			}
			confirm, err = tui.PromptForString(tui.Prompt{
				Message:  "Confirm password",
				Required: true,
				Password: true,
			})
			if err != nil {
				return err
			}
		}

		if err := validateNewPassword(password, confirm); err != nil {
			return err
		}

		if err := a.client.ResetPassword(cmd.Context(), resetToken, password); err != nil {
			return err
		}

		fmt.Println("Password updated. Use 'portalctl login' to sign in.")
		return nil
	},
}

// validateNewPassword enforces the password policy locally so obviously bad
// passwords never travel to the backend
func validateNewPassword(password, confirm string) error {
	if len(password) < 6 {
		return errors.New(errors.ErrCodeValidationFormat, "password must be at least 6 characters long")
	}

	var hasUpper, hasDigit bool
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New(errors.ErrCodeValidationFormat, "password must contain an uppercase letter")
	}
	if !hasDigit {
		return errors.New(errors.ErrCodeValidationFormat, "password must contain a digit")
	}

	if confirm != "" && confirm != password {
		return errors.New(errors.ErrCodeValidationFormat, "passwords do not match")
	}
	return nil
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "portal account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "portal account password (prompted when omitted)")

	resetPasswordCmd.Flags().StringVar(&resetToken, "token", "", "invitation or reset token")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "new password (prompted when omitted)")
	resetPasswordCmd.Flags().StringVar(&resetConfirm, "confirm", "", "confirmation of the new password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetPasswordCmd)
}
