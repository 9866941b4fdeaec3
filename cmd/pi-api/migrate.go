package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/picalc/pi-calculator/internal/config"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done := setup()
		defer done()

		zap.S().Info("Starting migration")
		defer zap.S().Info("Db migrated")

		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}
		st := store.NewStore(db)
		defer st.Close()

		if err := migrations.MigrateStore(db, cfg); err != nil {
			return fmt.Errorf("running store migrations: %w", err)
		}

		if cfg.Database.Type != config.DatabaseTypePgsql {
			return nil
		}

		ctx := context.Background()
		pgPool, err := newPgxPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pgPool.Close()

		return migrations.MigrateRiver(ctx, pgPool)
	},
}
