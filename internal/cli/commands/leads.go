package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLeadsCmd creates the leads command group
func NewLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Work with CRM leads",
	}
	cmd.AddCommand(newLeadsListCmd())
	cmd.AddCommand(newLeadsAssignCmd())
	return cmd
}

func newLeadsListCmd() *cobra.Command {
	var page int
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			leadPage, err := app.api.ListLeads(page, status)
			if err != nil {
				return err
			}

			fmt.Printf("%-24s %-24s %-28s %-10s\n", "ID", "NAME", "EMAIL", "STATUS")
			for _, lead := range leadPage.Leads {
				fmt.Printf("%-24s %-24s %-28s %-10s\n", lead.ID, lead.Name, lead.Email, lead.Status)
			}
			fmt.Printf("\nPage %d, %d total\n", leadPage.Page, leadPage.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to fetch")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")

	return cmd
}

func newLeadsAssignCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "assign [lead-id...]",
		Short: "Assign leads to an owner in bulk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			if err := app.api.BulkAssign(args, owner); err != nil {
				return err
			}
			fmt.Printf("✓ Assigned %d lead(s) to %s\n", len(args), owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner user ID (required)")
	cmd.MarkFlagRequired("owner")

	return cmd
}
