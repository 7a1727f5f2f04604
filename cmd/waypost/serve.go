package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oakhamlabs/waypost/internal/archive"
	"github.com/oakhamlabs/waypost/internal/config"
	"github.com/oakhamlabs/waypost/internal/engine"
	"github.com/oakhamlabs/waypost/internal/events"
	"github.com/oakhamlabs/waypost/internal/reporting"
	"github.com/oakhamlabs/waypost/internal/server"
	"github.com/oakhamlabs/waypost/internal/store"
	"github.com/oakhamlabs/waypost/internal/store/memory"
	"github.com/oakhamlabs/waypost/internal/store/postgres"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the Waypost aggregation server",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Open the operator-state store.
		var st store.Store
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			st = pg
			logger.Info("using postgres operator-state store")
		} else {
			st = memory.New()
			logger.Info("using in-memory operator-state store (WAYPOST_DATABASE_URL not set)")
		}

		// Create event publishers. The SSE hub always runs; NATS is optional.
		hub := server.NewEventHub()
		publisher := events.Fanout{hub}
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = append(publisher, pub)
			logger.Info("NATS events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("NATS events disabled (WAYPOST_NATS_URL not set)")
		}

		// Create the engine against the reporting backend.
		rc := reporting.NewHTTPClient(cfg.ReportURL, cfg.ReportToken)
		eng := engine.New(rc, st, publisher, cfg.FetchTimeout, logger)

		// Start periodic refresh.
		var refresher *engine.Scheduler
		if cfg.RefreshInterval > 0 {
			refresher = engine.NewScheduler(eng, cfg.RefreshInterval, logger)
			refresher.Start()
			logger.Info("auto-refresh started", "interval", cfg.RefreshInterval)
		} else {
			logger.Info("auto-refresh disabled (WAYPOST_REFRESH_INTERVAL is 0)")
		}

		// Start the snapshot archiver if a destination is configured.
		var archiver *archive.Scheduler
		if cfg.ArchiveInterval > 0 && cfg.ArchiveS3Bucket != "" {
			dest, err := archive.NewS3Destination(
				context.Background(),
				cfg.ArchiveS3Bucket,
				cfg.ArchiveS3Key,
				cfg.ArchiveS3Region,
				cfg.ArchiveS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 archive destination", "err", err)
			} else {
				archiver = archive.NewScheduler(eng, []archive.Destination{dest}, cfg.ArchiveInterval, logger)
				archiver.Start()
				logger.Info("snapshot archiver started",
					"interval", cfg.ArchiveInterval,
					"bucket", cfg.ArchiveS3Bucket,
					"key", cfg.ArchiveS3Key,
				)
			}
		}

		// Start the HTTP server.
		srv := server.New(eng, hub, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.Handler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("waypost server started",
			"http_addr", cfg.HTTPAddr,
			"report_url", cfg.ReportURL,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if refresher != nil {
			refresher.Stop()
			logger.Info("auto-refresh stopped")
		}

		if archiver != nil {
			archiver.Stop()
			logger.Info("snapshot archiver stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
