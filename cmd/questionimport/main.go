// Package main is the questionimport CLI. It validates question files
// offline, writes import templates, and imports files into the question
// store without going through the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "questionimport",
		Short: "Bulk survey question import",
		Long: `questionimport reads spreadsheets (.xlsx) and delimited text (.csv) holding
survey questions, validates every row, and imports a file only when all of
its rows are valid.

validate and template work offline. import needs DATABASE_URL.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newValidateCmd(),
		newTemplateCmd(),
		newImportCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of questionimport",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "questionimport %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
