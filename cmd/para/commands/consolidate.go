package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parakeep/organizer/internal/models"
)

// NewConsolidateCmd creates the consolidate command
func NewConsolidateCmd() *cobra.Command {
	var apply bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge duplicate-suffixed folders",
		Long:  "Plan merges of duplicate-suffixed and near-identical folders inside each PARA category. Dry run by default; --apply moves the notes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(debug)
			if err != nil {
				return err
			}
			defer s.cleanup()

			categories := []models.Category{
				models.CategoryProjects,
				models.CategoryAreas,
				models.CategoryResources,
				models.CategoryArchive,
			}

			planned := 0
			for _, category := range categories {
				folders, err := s.vault.FolderCounts(category)
				if err != nil {
					return fmt.Errorf("failed to scan %s: %w", category.FolderName(), err)
				}

				merges := s.resolver.Plan(folders)
				if len(merges) == 0 {
					continue
				}

				fmt.Printf("%s:\n", category.FolderName())
				for _, merge := range merges {
					planned++
					fmt.Printf("  %s <- %s (%s)\n", merge.Target, strings.Join(merge.Sources, ", "), merge.Reason)
					if apply {
						if err := s.vault.ApplyMerge(category, merge); err != nil {
							return fmt.Errorf("failed to merge into %q: %w", merge.Target, err)
						}
					}
				}
			}

			if planned == 0 {
				fmt.Println("No duplicate folders found")
				return nil
			}
			if apply {
				fmt.Printf("Applied %d merges\n", planned)
			} else {
				fmt.Printf("Planned %d merges (dry run, use --apply to execute)\n", planned)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the planned merges instead of a dry run")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
