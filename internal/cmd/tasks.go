package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/portalctl/internal/tui"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and manage company tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks visible to your roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())
		if err := a.tasks.Load(cmd.Context()); err != nil {
			return err
		}

		list := a.tasks.Tasks()
		if len(list) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, task := range list {
			fmt.Printf("%-16s %-50s %s\n", task.Name, task.Title, task.Status)
		}
		return nil
	},
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())
		title := strings.Join(args, " ")
		if err := a.tasks.Create(cmd.Context(), title); err != nil {
			return err
		}

		fmt.Printf("Created task %q.\n", title)
		return nil
	},
}

var tasksRenameCmd = &cobra.Command{
	Use:   "rename <name> <title>",
	Short: "Change a task's title",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		a.sessions.Restore(cmd.Context())
		title := strings.Join(args[1:], " ")
		if err := a.tasks.Rename(cmd.Context(), args[0], title); err != nil {
			return err
		}

		fmt.Printf("Renamed %s to %q.\n", args[0], title)
		return nil
	},
}

var tasksDeleteForce bool

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		if !tasksDeleteForce && tui.ShouldPrompt() {
			confirmed, err := tui.PromptForConfirmation(fmt.Sprintf("Delete task %s?", args[0]), false)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a.sessions.Restore(cmd.Context())
		if err := a.tasks.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Deleted task %s.\n", args[0])
		return nil
	},
}

func init() {
	tasksDeleteCmd.Flags().BoolVar(&tasksDeleteForce, "force", false, "delete without confirmation")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksCreateCmd)
	tasksCmd.AddCommand(tasksRenameCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
}
