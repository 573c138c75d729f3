package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dtroode/otptasks-server/database"
	"github.com/dtroode/otptasks-server/internal/config"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateSubCmd("up", "Apply all pending migrations", database.Migrate),
		migrateSubCmd("down", "Roll back the latest migration", database.Rollback),
		migrateSubCmd("status", "Print the state of every migration", database.Status),
	)

	return cmd
}

func migrateSubCmd(use, short string, run func(ctx context.Context, dsn string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg.Database.URL)
		},
	}
}
