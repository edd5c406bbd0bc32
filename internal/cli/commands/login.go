package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leadgrid-dev/leadgrid/internal/routegate"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the LeadGrid API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set LEADGRID_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set LEADGRID_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("LEADGRID_EMAIL")
	}
	if password == "" {
		password = os.Getenv("LEADGRID_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or LEADGRID_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or LEADGRID_PASSWORD env var)")
		}
	}

	app, err := newAppContext()
	if err != nil {
		return err
	}

	fmt.Printf("Logging in to %s...\n", app.cfg.API.BaseURL)

	resp, err := app.api.Login(email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := app.store.SetToken(resp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}
	if err := app.store.SetUser(&resp.User); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", resp.User.Name, resp.User.Email)
	fmt.Printf("  Role: %s\n", resp.User.Role.Value)
	fmt.Printf("  Home: %s\n", routegate.HomePath(routegate.Role(resp.User.Role.Value)))

	return nil
}
