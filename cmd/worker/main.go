package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/config"
	"github.com/corebuild/corebuild-backend/internal/bootstrap"
	"github.com/corebuild/corebuild-backend/internal/logging"
)

// rootCmd is the operator CLI that shares the API's configuration.
var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "CoreBuild maintenance jobs",
	Long: `Run CoreBuild maintenance jobs outside the API process.

Available commands:
  migrate          - Apply pending database migrations
  backup run       - Dump company data and upload it to Google Drive
  backup list      - Show recent backup runs for a company
  quickbooks sync  - Push unsynced invoices to QuickBooks`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd, backupCmd, quickbooksCmd)
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logging.SetBase(logger)
	return cfg, logger, nil
}

// withApp wires the full application for commands that need services.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	app, err := bootstrap.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app.Context(cmd.Context()), app)
}
