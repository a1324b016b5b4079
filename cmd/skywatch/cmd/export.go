package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarini/skywatch/internal/storage/csvfile"
	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the SQLite event database to CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	storage, err := sqlite.NewEventStorage(db, log)
	if err != nil {
		return err
	}

	records, err := storage.GetAllEvents()
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOutput != "" {
		out, err = os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
	}

	if err := csvfile.WriteAll(out, records); err != nil {
		return err
	}

	if exportOutput != "" {
		log.Info("Export complete",
			logger.String("output", exportOutput),
			logger.Int("events", len(records)),
		)
	}
	return nil
}
