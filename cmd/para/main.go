package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parakeep/organizer/cmd/para/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "para",
		Short: "PARA note organizer",
		Long:  "CLI tool for classifying and organizing markdown vault notes into PARA folders",
	}

	rootCmd.AddCommand(commands.NewClassifyCmd())
	rootCmd.AddCommand(commands.NewOrganizeCmd())
	rootCmd.AddCommand(commands.NewConsolidateCmd())
	rootCmd.AddCommand(commands.NewReportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
