package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/questionimport/internal/core"
)

func newTemplateCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			switch format {
			case "xlsx":
				b, err := core.SpreadsheetTemplate()
				if err != nil {
					return fmt.Errorf("build spreadsheet template: %w", err)
				}
				data = b
			case "csv":
				data = []byte("\ufeff" + core.CSVTemplate())
			default:
				return fmt.Errorf("unknown template format %q (want xlsx or csv)", format)
			}

			if out == "" {
				out = "template_questoes." + format
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			cmd.PrintErrf("wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "template format: xlsx or csv")
	cmd.Flags().StringVar(&out, "out", "", "output path (default template_questoes.<format>)")
	return cmd
}
