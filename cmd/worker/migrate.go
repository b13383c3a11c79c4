package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(cmd.Context(), db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		logger.Info("database is up to date")
		return nil
	}
	logger.Info("migrations applied", zap.Strings("versions", applied))
	return nil
}
