package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"watchly/internal/core"
	"watchly/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor and HTTP API",
	Long: `Start the monitoring scheduler and the HTTP server.

Endpoints:
  GET  /health               liveness and database reachability
  GET  /metrics              engine counters in Prometheus text format
  GET  /uptime/api/status    scheduler state and last tick report
  POST /uptime/api/trigger   run a tick now (409 if one is running)

With --watch, edits to the config file update the probe timeout, probe
concurrency and notification retry policy without a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("watch", false, "reload monitor settings when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, config, logger, version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	watch, _ := cmd.Flags().GetBool("watch")
	path, _ := cmd.Flags().GetString("config")
	if watch && path != "" {
		go func() {
			err := core.WatchConfig(ctx, path, logger, srv.ApplyConfig)
			if err != nil {
				logger.Error("Config watcher stopped", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	select {
	case err := <-errChan:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errChan
		logger.Info("Shutdown complete")
		return nil
	}
}
