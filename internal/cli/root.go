// Package cli wires the leadgrid command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadgrid-dev/leadgrid/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "leadgrid",
	Short: "LeadGrid - CRM lead management client",
	Long: `LeadGrid CLI - Work with your CRM leads from the terminal.

All data lives on the remote LeadGrid API; this client keeps your session
credentials on this machine and ends the session automatically when the
token expires, in every running LeadGrid process at once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("leadgrid version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewLeadsCmd())
	rootCmd.AddCommand(commands.NewShellCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
