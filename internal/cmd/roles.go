package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/portalctl/internal/permissions"
	"github.com/felixgeelhaar/portalctl/internal/tui"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage roles and their document permissions (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List custom roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())
		if err := a.editor.LoadRoles(cmd.Context()); err != nil {
			return err
		}

		roles := a.editor.Roles()
		if len(roles) == 0 {
			fmt.Println("No custom roles.")
			return nil
		}
		for _, role := range roles {
			fmt.Println(role.Name)
		}
		return nil
	},
}

var rolesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())
		if err := a.editor.CreateRole(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Created role %q.\n", args[0])
		return nil
	},
}

var rolesDeleteForce bool

var rolesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a role",
	Long: `Delete a role. The backend refuses to delete a role that is still
assigned to any user.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		if !rolesDeleteForce && tui.ShouldPrompt() {
			confirmed, err := tui.PromptForConfirmation(fmt.Sprintf("Delete role %q?", args[0]), false)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a.sessions.Restore(cmd.Context())
		if err := a.editor.DeleteRole(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Deleted role %q.\n", args[0])
		return nil
	},
}

var permsRole string

var permsCmd = &cobra.Command{
	Use:   "perms",
	Short: "Show and edit a role's document permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var permsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the permission matrix of a role",
	Long: `Show the five-flag permission matrix of a role, grouped by module.
Document types without a stored row are all-false.

Examples:
  portalctl roles perms show --role "Task Manager"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if permsRole == "" {
			return requiredFlag("role")
		}

		a.sessions.Restore(cmd.Context())
		if err := a.editor.LoadCatalog(cmd.Context()); err != nil {
			return err
		}
		if err := a.editor.SelectRole(cmd.Context(), permsRole); err != nil {
			return err
		}

		fmt.Printf("Permissions for %s\n\n", permsRole)
		fmt.Printf("%-30s", "")
		for _, flag := range permissions.FlagNames {
			fmt.Printf("%-8s", flag)
		}
		fmt.Println()

		for _, module := range a.editor.Modules() {
			fmt.Println(module)
			for _, docType := range a.editor.DocTypes(module) {
				row := a.editor.Row(docType)
				fmt.Printf("  %-28s", docType)
				for _, set := range []bool{row.Read, row.Write, row.Create, row.Delete, row.Submit} {
					mark := "-"
					if set {
						mark = "x"
					}
					fmt.Printf("%-8s", mark)
				}
				fmt.Println()
			}
		}
		return nil
	},
}

var (
	toggleDocType string
	toggleFlag    string
)

var permsToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip one permission flag for a document type",
	Long: `Flip one permission flag for a document type under a role. The full
five-flag row is written back, so the untouched flags keep their values.

Examples:
  portalctl roles perms toggle --role "Company Employee" --doctype Invoice --flag write`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if permsRole == "" {
			return requiredFlag("role")
		}
		if toggleDocType == "" {
			return requiredFlag("doctype")
		}
		if toggleFlag == "" {
			return requiredFlag("flag")
		}

		a.sessions.Restore(cmd.Context())
		if err := a.editor.SelectRole(cmd.Context(), permsRole); err != nil {
			return err
		}
		if err := a.editor.Toggle(cmd.Context(), toggleDocType, toggleFlag); err != nil {
			return err
		}

		row := a.editor.Row(toggleDocType)
		fmt.Printf("%s / %s: read=%t write=%t create=%t delete=%t submit=%t\n",
			permsRole, toggleDocType, row.Read, row.Write, row.Create, row.Delete, row.Submit)
		return nil
	},
}

func init() {
	rolesDeleteCmd.Flags().BoolVar(&rolesDeleteForce, "force", false, "delete without confirmation")

	permsCmd.PersistentFlags().StringVar(&permsRole, "role", "", "role to inspect or edit")
	permsToggleCmd.Flags().StringVar(&toggleDocType, "doctype", "", "document type to change")
	permsToggleCmd.Flags().StringVar(&toggleFlag, "flag", "", "flag to flip (read, write, create, delete, submit)")

	permsCmd.AddCommand(permsShowCmd)
	permsCmd.AddCommand(permsToggleCmd)

	rolesCmd.AddCommand(rolesListCmd)
	rolesCmd.AddCommand(rolesCreateCmd)
	rolesCmd.AddCommand(rolesDeleteCmd)
	rolesCmd.AddCommand(permsCmd)
	rootCmd.AddCommand(rolesCmd)
}
