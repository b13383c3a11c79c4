package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/backup/calendar"
	"github.com/corebuild/corebuild-backend/internal/backup/domain"
	integrationdomain "github.com/corebuild/corebuild-backend/internal/integrations/domain"
	"github.com/corebuild/corebuild-backend/internal/logging"
	selectiondomain "github.com/corebuild/corebuild-backend/internal/selections/domain"
)

type RunStore interface {
	Start(ctx context.Context, companyID string, at time.Time) (*domain.Run, error)
	Finish(ctx context.Context, run *domain.Run) error
	List(ctx context.Context, companyID string, limit uint64) ([]domain.Run, error)
}

// Integrations is the slice of the integration service backups depend on.
type Integrations interface {
	Connected(ctx context.Context, provider string) ([]integrationdomain.Integration, error)
	Client(ctx context.Context, companyID, provider string) (*http.Client, *integrationdomain.Integration, error)
	SetSetting(ctx context.Context, companyID, provider, key, value string) error
	RecordSync(ctx context.Context, companyID, provider string, syncErr error) error
}

type Dumper interface {
	Dump(ctx context.Context, path string) (int64, error)
}

type Drive interface {
	EnsureFolder(ctx context.Context, folderID, name string) (string, error)
	Upload(ctx context.Context, folderID, name string, r io.Reader) (string, error)
}

// DriveFactory opens Drive on behalf of an authorized client.
type DriveFactory func(ctx context.Context, client *http.Client) (Drive, error)

type InvoiceSyncer interface {
	SyncPending(ctx context.Context, companyID string) (int, error)
}

type DeadlineSource interface {
	Deadlines(ctx context.Context, companyID string, limit int) ([]selectiondomain.Deadline, error)
}

type Calendar interface {
	Upsert(ctx context.Context, ev calendar.Event) error
}

type CalendarFactory func(ctx context.Context, client *http.Client) (Calendar, error)

type Options struct {
	FolderName string
	WorkDir    string
	// OperatorCompanyID is the only company allowed to receive the dump.
	// Empty disables backups entirely.
	OperatorCompanyID string
	// RunTimeout bounds a manually triggered run.
	RunTimeout time.Duration
}

const (
	defaultListLimit  = 20
	maxListLimit      = 100
	calendarSyncLimit = 200
)

type BackupService struct {
	runs         RunStore
	integrations Integrations
	dumper       Dumper
	drives       DriveFactory
	invoices     InvoiceSyncer
	deadlines    DeadlineSource
	calendars    CalendarFactory
	opts         Options
	now          func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

func NewBackupService(runs RunStore, integrations Integrations, dumper Dumper, drives DriveFactory, opts Options) *BackupService {
	if opts.FolderName == "" {
		opts.FolderName = "CoreBuild Backups"
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 30 * time.Minute
	}
	return &BackupService{
		runs:         runs,
		integrations: integrations,
		dumper:       dumper,
		drives:       drives,
		opts:         opts,
		now:          time.Now,
		inflight:     map[string]bool{},
	}
}

// SetInvoiceSyncer enables the QuickBooks pass of the nightly job.
func (s *BackupService) SetInvoiceSyncer(invoices InvoiceSyncer) {
	s.invoices = invoices
}

// SetCalendarSync enables publishing selection deadlines to Google Calendar.
func (s *BackupService) SetCalendarSync(deadlines DeadlineSource, calendars CalendarFactory) {
	s.deadlines = deadlines
	s.calendars = calendars
}

func (s *BackupService) List(ctx context.Context, companyID string, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.runs.List(ctx, companyID, uint64(limit))
}

type job struct {
	run    *domain.Run
	client *http.Client
	integ  *integrationdomain.Integration
}

// RunCompany backs up one company and waits for the outcome.
func (s *BackupService) RunCompany(ctx context.Context, companyID string) (*domain.Run, error) {
	j, err := s.prepare(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, j)
}

// Trigger starts a backup in the background and returns the running record.
func (s *BackupService) Trigger(ctx context.Context, companyID string) (*domain.Run, error) {
	bctx := context.WithoutCancel(ctx)
	j, err := s.prepare(bctx, companyID)
	if err != nil {
		return nil, err
	}
	started := *j.run

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rctx, cancel := context.WithTimeout(bctx, s.opts.RunTimeout)
		defer cancel()
		_, _ = s.execute(rctx, j)
	}()
	return &started, nil
}

// Wait blocks until every triggered run has finished.
func (s *BackupService) Wait() {
	s.wg.Wait()
}

func (s *BackupService) acquire(companyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[companyID] {
		return false
	}
	s.inflight[companyID] = true
	return true
}

func (s *BackupService) release(companyID string) {
	s.mu.Lock()
	delete(s.inflight, companyID)
	s.mu.Unlock()
}

func (s *BackupService) prepare(ctx context.Context, companyID string) (*job, error) {
	if s.opts.OperatorCompanyID == "" || companyID != s.opts.OperatorCompanyID {
		return nil, domain.ErrNotOperator
	}
	if !s.acquire(companyID) {
		return nil, domain.ErrAlreadyRunning
	}

	client, integ, err := s.integrations.Client(ctx, companyID, integrationdomain.ProviderGoogle)
	if err != nil {
		s.release(companyID)
		if errors.Is(err, integrationdomain.ErrIntegrationNotFound) || errors.Is(err, integrationdomain.ErrNotConnected) {
			return nil, domain.ErrNoDrive
		}
		return nil, err
	}

	run, err := s.runs.Start(ctx, companyID, s.now().UTC())
	if err != nil {
		s.release(companyID)
		return nil, err
	}
	return &job{run: run, client: client, integ: integ}, nil
}

func (s *BackupService) execute(ctx context.Context, j *job) (*domain.Run, error) {
	defer s.release(j.run.CompanyID)

	log := logging.FromContext(ctx).With(
		zap.String("company_id", j.run.CompanyID),
		zap.String("run_id", j.run.ID),
	)

	size, fileID, err := s.backup(ctx, j)
	if err != nil {
		j.run.Fail(s.now().UTC(), err)
		log.Error("backup failed", zap.Error(err))
	} else {
		j.run.Succeed(s.now().UTC(), size, fileID)
		log.Info("backup uploaded", zap.Int64("size_bytes", size), zap.String("drive_file_id", fileID))
	}

	if ferr := s.runs.Finish(ctx, j.run); ferr != nil {
		log.Error("record backup run", zap.Error(ferr))
	}
	if rerr := s.integrations.RecordSync(ctx, j.run.CompanyID, integrationdomain.ProviderGoogle, err); rerr != nil {
		log.Warn("record google sync", zap.Error(rerr))
	}
	return j.run, err
}

func (s *BackupService) backup(ctx context.Context, j *job) (int64, string, error) {
	companyID := j.run.CompanyID

	d, err := s.drives(ctx, j.client)
	if err != nil {
		return 0, "", err
	}

	current := j.integ.Setting(integrationdomain.SettingBackupFolderID)
	folderID, err := d.EnsureFolder(ctx, current, s.opts.FolderName)
	if err != nil {
		return 0, "", err
	}
	if folderID != current {
		if err := s.integrations.SetSetting(ctx, companyID, integrationdomain.ProviderGoogle,
			integrationdomain.SettingBackupFolderID, folderID); err != nil {
			return 0, "", fmt.Errorf("save backup folder: %w", err)
		}
	}

	tmp, err := os.CreateTemp(s.opts.WorkDir, "corebuild-backup-*.dump")
	if err != nil {
		return 0, "", fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	size, err := s.dumper.Dump(ctx, path)
	if err != nil {
		return 0, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, "", fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	fileID, err := d.Upload(ctx, folderID, domain.FileName(companyID, j.run.StartedAt), f)
	if err != nil {
		return 0, "", err
	}
	return size, fileID, nil
}

// RunAll backs up the operator company. pg_dump captures every tenant, so no
// other company's Drive ever receives it.
func (s *BackupService) RunAll(ctx context.Context) (domain.Report, error) {
	var report domain.Report
	log := logging.FromContext(ctx)

	companyID := s.opts.OperatorCompanyID
	if companyID == "" {
		log.Info("no operator company configured, skipping backups")
		return report, nil
	}

	run, err := s.RunCompany(ctx, companyID)
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning), errors.Is(err, domain.ErrNoDrive):
		report.Skipped++
		log.Warn("backup skipped", zap.String("company_id", companyID), zap.Error(err))
	case err != nil:
		report.Failed++
		if run == nil {
			log.Error("backup not started", zap.String("company_id", companyID), zap.Error(err))
		}
	default:
		report.Succeeded++
	}
	return report, nil
}

// SyncCalendars publishes upcoming selection deadlines to the calendar of
// every company with a connected Google account.
func (s *BackupService) SyncCalendars(ctx context.Context) (domain.Report, error) {
	var report domain.Report
	log := logging.FromContext(ctx)

	if s.deadlines == nil || s.calendars == nil {
		log.Info("calendar sync is not wired, skipping")
		return report, nil
	}

	integs, err := s.integrations.Connected(ctx, integrationdomain.ProviderGoogle)
	if errors.Is(err, integrationdomain.ErrNotConfigured) {
		log.Info("google is not configured, skipping calendar sync")
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("list google integrations: %w", err)
	}

	for _, integ := range integs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		n, err := s.syncCalendar(ctx, integ.CompanyID)
		if err != nil {
			report.Failed++
			log.Error("calendar sync failed",
				zap.String("company_id", integ.CompanyID),
				zap.Int("published", n),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

func (s *BackupService) syncCalendar(ctx context.Context, companyID string) (int, error) {
	deadlines, err := s.deadlines.Deadlines(ctx, companyID, calendarSyncLimit)
	if err != nil {
		return 0, err
	}
	if len(deadlines) == 0 {
		return 0, nil
	}

	client, _, err := s.integrations.Client(ctx, companyID, integrationdomain.ProviderGoogle)
	if err != nil {
		return 0, err
	}
	cal, err := s.calendars(ctx, client)
	if err != nil {
		return 0, err
	}

	var published int
	var errs []error
	for _, d := range deadlines {
		if err := cal.Upsert(ctx, deadlineEvent(d)); err != nil {
			errs = append(errs, fmt.Errorf("selection %s: %w", d.SelectionID, err))
			continue
		}
		published++
	}
	return published, errors.Join(errs...)
}

func deadlineEvent(d selectiondomain.Deadline) calendar.Event {
	return calendar.Event{
		Key:         d.SelectionID,
		Summary:     fmt.Sprintf("%s selection due: %s", d.ProjectName, d.Name),
		Description: fmt.Sprintf("Category: %s\nStatus: %s", d.Category, d.Status),
		Date:        d.DueDate.Time,
	}
}

// SyncQuickBooks pushes unsynced invoices for every company with a connected
// QuickBooks account.
func (s *BackupService) SyncQuickBooks(ctx context.Context) (domain.Report, error) {
	var report domain.Report
	log := logging.FromContext(ctx)

	if s.invoices == nil {
		log.Info("quickbooks sync is not wired, skipping")
		return report, nil
	}

	integs, err := s.integrations.Connected(ctx, integrationdomain.ProviderQuickBooks)
	if errors.Is(err, integrationdomain.ErrNotConfigured) {
		log.Info("quickbooks is not configured, skipping sync")
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("list quickbooks integrations: %w", err)
	}

	for _, integ := range integs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		n, err := s.invoices.SyncPending(ctx, integ.CompanyID)
		if rerr := s.integrations.RecordSync(ctx, integ.CompanyID, integrationdomain.ProviderQuickBooks, err); rerr != nil {
			log.Warn("record quickbooks sync", zap.String("company_id", integ.CompanyID), zap.Error(rerr))
		}
		if err != nil {
			report.Failed++
			log.Error("quickbooks sync failed",
				zap.String("company_id", integ.CompanyID),
				zap.Int("synced", n),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

// RunNightly is the scheduled job: the backup, then QuickBooks, then calendars.
func (s *BackupService) RunNightly(ctx context.Context) error {
	log := logging.FromContext(ctx)
	start := s.now()

	backups, berr := s.RunAll(ctx)
	syncs, serr := s.SyncQuickBooks(ctx)
	calendars, cerr := s.SyncCalendars(ctx)

	log.Info("nightly job finished",
		zap.Int("backups_succeeded", backups.Succeeded),
		zap.Int("backups_failed", backups.Failed),
		zap.Int("backups_skipped", backups.Skipped),
		zap.Int("quickbooks_succeeded", syncs.Succeeded),
		zap.Int("quickbooks_failed", syncs.Failed),
		zap.Int("calendars_succeeded", calendars.Succeeded),
		zap.Int("calendars_failed", calendars.Failed),
		zap.Duration("took", s.now().Sub(start)),
	)
	return errors.Join(berr, serr, cerr)
}
