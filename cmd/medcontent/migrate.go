package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/medcontent/internal/config"
	"github.com/jonathan/medcontent/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  "Create the posts, post_versions and style_profiles tables for the configured driver. Existing tables are left as they are.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := contextOrBackground(cmd)
	store, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Schema applied (%s)\n", cfg.Database.Driver)
	return nil
}
