package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewOrganizeCmd creates the organize command
func NewOrganizeCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize the whole vault",
		Long:  "Run the classification pipeline over every inbox and loose note in the vault, moving each to its PARA folder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(debug)
			if err != nil {
				return err
			}
			defer s.cleanup()

			summary, err := s.engine.OrganizeVault(cmd.Context())
			if summary != nil {
				fmt.Printf("Processed: %d\n", summary.Processed)
				fmt.Printf("Moved:     %d\n", summary.Moved)
				fmt.Printf("Preserved: %d\n", summary.Preserved)
				fmt.Printf("Failed:    %d\n", summary.Failed)
			}
			if err != nil {
				return fmt.Errorf("organize aborted: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
