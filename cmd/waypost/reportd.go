package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oakhamlabs/waypost/internal/reporting"
	"github.com/spf13/cobra"
)

var reportdCmd = &cobra.Command{
	Use:     "reportd",
	Short:   "Start a demo reporting backend with a random-walk topology",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		seed, _ := cmd.Flags().GetInt64("seed")

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		provider := reporting.NewDemoProvider(seed)
		httpServer := &http.Server{
			Addr:    addr,
			Handler: reporting.NewHandler(provider, logger),
		}

		go func() {
			logger.Info("demo reporting backend listening", "addr", addr, "seed", seed)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	reportdCmd.Flags().String("addr", ":9090", "listen address")
	reportdCmd.Flags().Int64("seed", 0, "random-walk seed (0 = time-based)")
}
