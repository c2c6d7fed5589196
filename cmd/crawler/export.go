package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/NaqibL/mcf/internal/config"
	"github.com/NaqibL/mcf/internal/db"
	"github.com/NaqibL/mcf/internal/export"
	"github.com/NaqibL/mcf/internal/store"
)

func newExportCmd(log zerolog.Logger) *cobra.Command {
	var (
		output     string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored job table to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			st := store.New(pool, log)
			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}

			jobs, err := st.AllJobs(ctx, activeOnly)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteCSV(f, jobs); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}

			log.Info().Int("jobs", len(jobs)).Str("output", output).Msg("export complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV path (required)")
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "export only jobs currently active")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
