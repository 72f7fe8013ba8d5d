package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parakeep/organizer/internal/validation"
)

// NewClassifyCmd creates the classify command
func NewClassifyCmd() *cobra.Command {
	var apply bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "classify <note-path>",
		Short: "Classify a single note",
		Long:  "Classify one vault-relative markdown note into a PARA category. Dry run by default; --apply moves the note.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notePath := args[0]
			if err := validation.ValidateNotePath(notePath); err != nil {
				return err
			}

			s, err := buildStack(debug)
			if err != nil {
				return err
			}
			defer s.cleanup()

			run := s.engine.Classify
			if apply {
				run = s.engine.Organize
			}

			result, err := run(cmd.Context(), notePath)
			if err != nil {
				return fmt.Errorf("classification failed: %w", err)
			}

			d := result.Decision
			fmt.Printf("Note:       %s\n", result.NotePath)
			fmt.Printf("Category:   %s\n", d.Category)
			if d.FolderName != "" {
				fmt.Printf("Folder:     %s\n", d.FolderName)
			}
			fmt.Printf("Confidence: %.2f\n", d.Confidence)
			fmt.Printf("Method:     %s\n", d.Method)
			if d.Reasoning != "" {
				fmt.Printf("Reasoning:  %s\n", d.Reasoning)
			}
			if result.Moved {
				fmt.Printf("Moved to:   %s\n", result.NewPath)
			} else if apply {
				fmt.Println("Not moved (preserved in place or already filed)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Move the note instead of a dry run")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
