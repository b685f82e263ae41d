package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adnsv/xlstream/internal/report"
)

var (
	outputPath  string
	unzippedDir string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the report to an .xlsx file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputPath == "" && unzippedDir == "" {
			return errors.New("nothing to do: set --output or --unzipped")
		}
		ctx := cmd.Context()

		b, closeDB, err := newBuilder(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		wb, err := b.Build(ctx)
		if err != nil {
			return err
		}
		defer wb.Close()

		if unzippedDir != "" {
			if err := wb.SaveDir(unzippedDir); err != nil {
				return err
			}
			slog.Info("unzipped parts written", "dir", unzippedDir)
		}
		if outputPath != "" {
			return wb.Save(outputPath)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output .xlsx file")
	buildCmd.Flags().StringVar(&unzippedDir, "unzipped", "", "Also write the package parts unzipped into this directory")
	rootCmd.AddCommand(buildCmd)
}

// newBuilder loads the report definition and opens its database, if any.
func newBuilder(ctx context.Context) (*report.Builder, func(), error) {
	cfg, err := report.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	var db *sql.DB
	if cfg.Database != nil {
		db, err = report.OpenDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
	}
	closeDB := func() {
		if db != nil {
			db.Close()
		}
	}
	b := &report.Builder{
		Config:  cfg,
		DB:      db,
		TempDir: tempDir,
		Logger:  slog.Default(),
	}
	return b, closeDB, nil
}
