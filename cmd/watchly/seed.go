package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"watchly/internal/core"
	"watchly/internal/features/uptime/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users and websites from a YAML file",
	Long: `Create users and their websites from a seed file. Existing users
(matched by email) and websites (matched by owner and URL) are left alone.

Example seed file:
  users:
    - name: Ops
      email: ops@example.com
      password: ${WATCHLY_ADMIN_PASSWORD}
      websites:
        - name: Marketing site
          url: https://example.com`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("file", "f", "", "path to seed file (required)")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	file, _ := cmd.Flags().GetString("file")
	seed, err := database.LoadSeedFile(file)
	if err != nil {
		return err
	}

	db, err := core.OpenSQLite(ctx, config.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store := database.NewStore(db, logger)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	result, err := store.Seed(ctx, seed)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users and %d websites\n", result.UsersCreated, result.WebsitesCreated)
	return nil
}
