package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"watchly/internal/core"
	"watchly/internal/features/uptime"
	"watchly/internal/features/uptime/services"
	"watchly/internal/server/services/mailer"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single monitoring tick and exit",
	Long: `Probe every website once, record the results, evaluate alerts and
wait for any resulting emails to be delivered or to exhaust their retries.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := core.OpenSQLite(ctx, config.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	mail, err := mailer.New(config.Mailer)
	if err != nil {
		return err
	}

	metrics := core.NewMetrics()
	services.RegisterCounters(metrics)

	feature := uptime.NewFeature(logger, db, mail, config.Monitor, metrics)
	if err := feature.Store().Migrate(ctx); err != nil {
		return err
	}

	report, err := feature.Monitor().Trigger(ctx)
	feature.Monitor().WaitForNotifications()
	if err != nil {
		return fmt.Errorf("tick failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tick %s: %d websites, %d up, %d down\n", report.TickID, report.Websites, report.Up, report.Down)
	fmt.Fprintf(out, "alerts: %d opened, %d resolved, %d skipped\n", report.AlertsCreated, report.AlertsResolved, report.Skipped)
	fmt.Fprintf(out, "notifications: %.0f sent, %.0f failed\n",
		metrics.Value(services.CounterNotificationsSent),
		metrics.Value(services.CounterNotificationsFailed))
	return nil
}
