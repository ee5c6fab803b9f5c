package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Company Access Portal client",
	Long: `portalctl is the command-line client for the Company Access Portal.
It signs in against the portal backend, manages portal users and roles,
edits per-role document permissions, and tracks company tasks.

Session state is kept in ~/.portalctl, so a login survives across
invocations until you log out or the backend session expires.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context so in-flight
// requests are cancelled on interrupt
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
