package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/portalctl/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive portal client",
	Long: `Open the full-screen interactive client. The session is restored
from local state on startup; without one, the login view is shown first.

Keys:
  1/2/3   switch between tasks, users, and roles (admin views need the
          Company Admin role)
  r       refresh the current view
  space   toggle the permission flag under the cursor
  q       quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		model := tui.NewModel(a.sessions, a.tasks, a.console, a.editor)
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("ui failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
