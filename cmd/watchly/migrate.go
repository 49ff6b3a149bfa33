package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"watchly/internal/core"
	"watchly/internal/features/uptime/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("rollback", false, "roll back the latest applied migration")
}

func runMigrate(cmd *cobra.Command, args []string) error {
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

	store := database.NewStore(db, logger)

	rollback, _ := cmd.Flags().GetBool("rollback")
	if !rollback {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	}

	migration, err := store.Rollback(ctx)
	if err != nil {
		return err
	}
	if migration == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no migrations to roll back")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d (%s)\n", migration.Version, migration.Name)
	return nil
}
