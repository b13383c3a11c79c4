package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/bootstrap"
	"github.com/corebuild/corebuild-backend/internal/logging"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Google Drive backups",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Back up the database to the operator company's Drive",
	Long: `Dump the database with pg_dump and upload the archive to the Google Drive
backup folder of the operator company (BACKUP_COMPANY_ID). The dump holds
every tenant, so no other company can receive it.`,
	RunE: runBackup,
}

var backupCalendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "Publish upcoming selection deadlines to connected Google calendars",
	RunE:  runCalendarSync,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent backup runs for a company",
	RunE:  runBackupList,
}

var (
	backupCompany string
	backupLimit   int
)

func init() {
	backupRunCmd.Flags().StringVar(&backupCompany, "company", "", "company id (default: the operator company)")
	backupListCmd.Flags().StringVar(&backupCompany, "company", "", "company id")
	backupListCmd.Flags().IntVar(&backupLimit, "limit", 20, "number of runs to show")
	_ = backupListCmd.MarkFlagRequired("company")

	backupCmd.AddCommand(backupRunCmd, backupCalendarsCmd, backupListCmd)
}

func runBackup(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		if backupCompany != "" {
			run, err := app.Backups.RunCompany(ctx, backupCompany)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Info("backup finished",
				zap.String("run_id", run.ID),
				zap.String("drive_file_id", run.DriveFileID),
				zap.Int64("size_bytes", run.SizeBytes),
			)
			return nil
		}

		report, err := app.Backups.RunAll(ctx)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("backups finished",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
		)
		if report.Failed > 0 {
			return fmt.Errorf("%d backups failed", report.Failed)
		}
		return nil
	})
}

func runCalendarSync(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		report, err := app.Backups.SyncCalendars(ctx)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("calendar sync finished",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
		)
		if report.Failed > 0 {
			return fmt.Errorf("%d calendars failed to sync", report.Failed)
		}
		return nil
	})
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		runs, err := app.Backups.List(ctx, backupCompany, backupLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSTATUS\tSIZE\tDRIVE FILE\tERROR")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.SizeBytes, r.DriveFileID, r.Error)
		}
		return w.Flush()
	})
}
