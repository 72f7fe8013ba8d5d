package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var page int
	var pageSize int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recent classification decisions",
		Long:  "List recorded classification decisions from the audit trail, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(false)
			if err != nil {
				return err
			}
			defer s.cleanup()

			if s.recordRepo == nil {
				return fmt.Errorf("DATABASE_URL is required for the audit report")
			}

			records, total, err := s.recordRepo.ListPaginated(cmd.Context(), page, pageSize)
			if err != nil {
				return fmt.Errorf("failed to list decisions: %w", err)
			}

			if len(records) == 0 {
				fmt.Println("No decisions recorded")
				return nil
			}

			fmt.Printf("Decisions (page %d, %d total):\n", page, total)
			for _, record := range records {
				fmt.Printf("  %s  %-9s  %.2f  %-20s  %s\n",
					record.CreatedAt.Format("2006-01-02 15:04"),
					record.Category,
					record.Confidence,
					record.Method,
					record.NotePath,
				)
				if record.FolderName != "" {
					fmt.Printf("    -> %s/%s\n", record.Category.FolderName(), record.FolderName)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Decisions per page")
	return cmd
}
