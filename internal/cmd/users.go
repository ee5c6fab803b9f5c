package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/portalctl/internal/admin"
	"github.com/felixgeelhaar/portalctl/internal/session"
	"github.com/felixgeelhaar/portalctl/internal/tui"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage portal users (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List portal users",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())
		if err := a.console.LoadUsers(cmd.Context()); err != nil {
			return err
		}

		users := a.console.Users()
		if len(users) == 0 {
			fmt.Println("No portal users.")
			return nil
		}

		for _, user := range users {
			state := "enabled"
			if user.Enabled == 0 {
				state = "disabled"
			}
			name := strings.TrimSpace(user.FirstName + " " + user.LastName)
			fmt.Printf("%-40s %-30s %s\n", user.Name, name, state)
		}
		return nil
	},
}

var (
	userEmail     string
	userFirstName string
	userLastName  string
	userRoles     []string
)

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a portal user and send the invitation mail",
	Long: `Create a portal user. The backend sends an invitation mail with a
password setup link. At least one role is required; pass --role multiple
times to assign several.

Examples:
  portalctl users create --email ada@example.com --first-name Ada --role "Task Manager"
  portalctl users create --email ada@example.com --first-name Ada --role "Task Manager" --role "Reports Only"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())

		roles := userRoles
		if len(roles) == 0 && tui.ShouldPrompt() {
			options, err := roleNames(cmd, a)
			if err != nil {
				return err
			}
			roles, err = tui.PromptForMultiSelect("Roles for the new user", options)
			if err != nil {
				return err
			}
		}

		err = a.console.CreateUser(cmd.Context(), admin.NewUser{
			Email:     userEmail,
			FirstName: userFirstName,
			LastName:  userLastName,
			Roles:     roles,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created %s and sent the invitation mail.\n", userEmail)
		return nil
	},
}

// roleNames loads the selectable role names, always offering the built-in
// employee role alongside the custom ones
func roleNames(cmd *cobra.Command, a *app) ([]string, error) {
	if err := a.editor.LoadRoles(cmd.Context()); err != nil {
		return nil, err
	}

	names := []string{session.AdminRole, "Company Employee"}
	for _, role := range a.editor.Roles() {
		names = append(names, role.Name)
	}
	return names, nil
}

func init() {
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address of the new user")
	usersCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "first name of the new user")
	usersCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "last name of the new user")
	usersCreateCmd.Flags().StringArrayVar(&userRoles, "role", nil, "role to assign (repeatable)")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}
