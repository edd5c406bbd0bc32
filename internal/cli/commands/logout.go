package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on this machine",
		Long: `Clears the stored token, profile, and saved filters, and signals every
other running LeadGrid process to do the same.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			app.manager.Logout()
			fmt.Println("✓ Logged out")
			return nil
		},
	}
}
