package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/JonMunkholm/questionimport/internal/core"
)

func newValidateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a question file without importing it",
		Long: `Validate runs a file through the same pipeline as an import and prints
every accepted question and every rejected line. It exits with status 1
when the file would be refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unknown output format %q (want json or yaml)", output)
			}

			up, err := readUpload(args[0])
			if err != nil {
				return err
			}
			kind, err := core.ValidateUpload(cmd.Context(), up, core.AnyEntry, core.DefaultMaxFileSize)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}

			result, err := core.ParseFile(kind, up.Data)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}

			if err := writeResult(cmd.OutOrStdout(), output, result); err != nil {
				return err
			}

			if err := result.Err(); err != nil {
				return err
			}
			cmd.PrintErrf("%s: %d questions ready to import\n", up.Name, len(result.Accepted))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func readUpload(path string) (core.FileUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.FileUpload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return core.FileUpload{Name: filepath.Base(path), Data: data}, nil
}

func writeResult(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
