package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/bootstrap"
	"github.com/corebuild/corebuild-backend/internal/logging"
)

var quickbooksCmd = &cobra.Command{
	Use:   "quickbooks",
	Short: "QuickBooks Online sync",
}

var quickbooksSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push issued invoices that QuickBooks has not seen yet",
	RunE:  runQuickBooksSync,
}

var quickbooksCompany string

func init() {
	quickbooksSyncCmd.Flags().StringVar(&quickbooksCompany, "company", "", "company id (default: all connected companies)")
	quickbooksCmd.AddCommand(quickbooksSyncCmd)
}

func runQuickBooksSync(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		log := logging.FromContext(ctx)

		if quickbooksCompany != "" {
			n, err := app.Invoices.SyncPending(ctx, quickbooksCompany)
			log.Info("quickbooks sync finished", zap.String("company_id", quickbooksCompany), zap.Int("synced", n))
			return err
		}

		report, err := app.Backups.SyncQuickBooks(ctx)
		if err != nil {
			return err
		}
		log.Info("quickbooks sync finished",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
		)
		if report.Failed > 0 {
			return fmt.Errorf("%d companies failed to sync", report.Failed)
		}
		return nil
	})
}
