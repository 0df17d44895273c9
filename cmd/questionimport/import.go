package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/questionimport/internal/config"
	"github.com/JonMunkholm/questionimport/internal/core"
	"github.com/JonMunkholm/questionimport/internal/logging"
	"github.com/JonMunkholm/questionimport/internal/store"
)

func newImportCmd() *cobra.Command {
	var opts core.ImportOptions
	var output string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a question file into the question store",
		Long: `Import validates FILE and stores its questions in one transaction. Nothing
is stored when any row is invalid. Database settings come from the
environment (and .env, when present), as for the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ResearchGroupID != "" {
				if _, err := uuid.Parse(opts.ResearchGroupID); err != nil {
					return fmt.Errorf("--group must be a UUID: %w", err)
				}
			}

			up, err := readUpload(args[0])
			if err != nil {
				return err
			}

			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			closer := logging.Setup(logging.Options{
				Level:      cfg.Logging.Level,
				Format:     cfg.Logging.Format,
				File:       cfg.Logging.File,
				MaxSizeMB:  cfg.Logging.FileMaxSizeMB,
				MaxBackups: cfg.Logging.FileMaxBackups,
			})
			defer closer.Close()

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			questions := store.New(pool)
			if cfg.Database.AutoMigrate {
				if err := questions.Migrate(ctx); err != nil {
					return err
				}
			}

			opts.Entry = core.AnyEntry
			report, err := core.NewService(questions, cfg).ImportFile(ctx, up, opts)
			if err != nil {
				var batch *core.BatchRejectedError
				if errors.As(err, &batch) {
					_ = writeResult(cmd.OutOrStdout(), output, batch)
				}
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}

			return writeResult(cmd.OutOrStdout(), output, report)
		},
	}

	cmd.Flags().StringVar(&opts.DefaultOrigin, "origin", "", "origin for rows without one (default depends on file type)")
	cmd.Flags().StringVar(&opts.ResearchGroupID, "group", "", "research group UUID stamped on every question")
	cmd.Flags().StringVar(&opts.CreatorID, "creator", "", "identity recorded as the creator")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}
