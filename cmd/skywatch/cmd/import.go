package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarini/skywatch/internal/storage/csvfile"
	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

var importCmd = &cobra.Command{
	Use:   "import <events.csv>",
	Short: "Import an event CSV file into the SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	records, err := csvfile.ReadAll(f)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	storage, err := sqlite.NewEventStorage(db, log)
	if err != nil {
		return err
	}

	imported := 0
	for _, record := range records {
		if _, err := storage.StoreRecord(record); err != nil {
			return fmt.Errorf("failed to import row for %s: %w", record.Hex, err)
		}
		imported++
	}

	log.Info("Import complete",
		logger.String("source", args[0]),
		logger.String("database", cfg.Storage.SQLitePath),
		logger.Int("events", imported),
	)
	return nil
}
