package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			if !app.clock.IsAuthenticated() {
				fmt.Println("Not logged in. Run 'leadgrid login' first.")
				return nil
			}

			if user := app.store.User(); user != nil {
				fmt.Printf("User: %s (%s)\n", user.Name, user.Email)
				fmt.Printf("Role: %s\n", user.Role.Value)
			} else {
				fmt.Println("User: unknown (no stored profile)")
			}

			if app.clock.IsExpired() {
				fmt.Println("Session: expired")
				return nil
			}
			if exp, ok := app.clock.ExpiresAt(); ok {
				fmt.Printf("Session: valid until %s (%s left)\n",
					exp.Local().Format(time.RFC1123),
					time.Until(exp).Round(time.Second))
			}
			return nil
		},
	}
}
