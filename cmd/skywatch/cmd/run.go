package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/api"
	"github.com/tmarini/skywatch/internal/geofence"
	"github.com/tmarini/skywatch/internal/monitor"
	"github.com/tmarini/skywatch/internal/notify"
	"github.com/tmarini/skywatch/internal/storage/csvfile"
	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the detection service",
	Long:  `Poll the telemetry source, run the detection engine, persist events and serve the HTTP API until interrupted.`,
	RunE:  runService,
}

func runService(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if len(cfg.ADSB.Tiles) == 0 {
		return fmt.Errorf("no telemetry tiles configured")
	}

	db, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := sqlite.NewEventStorage(db, log)
	if err != nil {
		return err
	}

	fence, err := geofence.Load(cfg.Geofence.PolygonsFile, log)
	if err != nil {
		return err
	}

	var sink *csvfile.Sink
	if cfg.Storage.CSVPath != "" {
		sink = csvfile.NewSink(cfg.Storage.CSVPath, log)
	}

	var notifier notify.Notifier
	if cfg.Telegram.Enabled {
		notifier = notify.NewTelegramNotifier(cfg.Telegram, log)
	}

	client := adsb.NewClient(cfg.ADSB, log)
	service := monitor.NewService(cfg, client, fence, events, sink, notifier, log)

	router := api.NewRouter(events, cfg, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", logger.Error(err))
			cancel()
		}
	}()

	service.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("Shutting down", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	service.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", logger.Error(err))
	}

	return nil
}
