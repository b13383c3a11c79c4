package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/backup/calendar"
	"github.com/corebuild/corebuild-backend/internal/backup/domain"
	integrationdomain "github.com/corebuild/corebuild-backend/internal/integrations/domain"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	selectiondomain "github.com/corebuild/corebuild-backend/internal/selections/domain"
)

type memRuns struct {
	mu   sync.Mutex
	runs map[string]*domain.Run
	seq  int
}

func (m *memRuns) Start(_ context.Context, companyID string, at time.Time) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r := &domain.Run{ID: string(rune('0' + m.seq)), CompanyID: companyID, Status: domain.StatusRunning, StartedAt: at}
	cp := *r
	m.runs[r.ID] = &cp
	return r, nil
}

func (m *memRuns) Finish(_ context.Context, run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memRuns) List(_ context.Context, companyID string, limit uint64) ([]domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Run
	for _, r := range m.runs {
		if r.CompanyID == companyID && uint64(len(out)) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRuns) byCompany(companyID string) []domain.Run {
	out, _ := m.List(context.Background(), companyID, 100)
	return out
}

type fakeIntegrations struct {
	mu        sync.Mutex
	connected map[string][]integrationdomain.Integration
	notConfig map[string]bool
	settings  map[string]string
	synced    map[string]error
}

func newFakeIntegrations() *fakeIntegrations {
	return &fakeIntegrations{
		connected: map[string][]integrationdomain.Integration{},
		notConfig: map[string]bool{},
		settings:  map[string]string{},
		synced:    map[string]error{},
	}
}

func (f *fakeIntegrations) connect(provider, companyID string, settings map[string]string) {
	f.connected[provider] = append(f.connected[provider], integrationdomain.Integration{
		CompanyID: companyID, Provider: provider, Status: integrationdomain.StatusConnected,
		RefreshToken: "rt", Settings: settings,
	})
}

func (f *fakeIntegrations) Connected(_ context.Context, provider string) ([]integrationdomain.Integration, error) {
	if f.notConfig[provider] {
		return nil, integrationdomain.ErrNotConfigured
	}
	return f.connected[provider], nil
}

func (f *fakeIntegrations) Client(_ context.Context, companyID, provider string) (*http.Client, *integrationdomain.Integration, error) {
	for _, i := range f.connected[provider] {
		if i.CompanyID == companyID {
			i := i
			return http.DefaultClient, &i, nil
		}
	}
	return nil, nil, integrationdomain.ErrNotConnected
}

func (f *fakeIntegrations) SetSetting(_ context.Context, companyID, provider, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[companyID+"/"+provider+"/"+key] = value
	return nil
}

func (f *fakeIntegrations) RecordSync(_ context.Context, companyID, provider string, syncErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced[companyID+"/"+provider] = syncErr
	return nil
}

type fakeDumper struct {
	failFor map[string]bool
	block   chan struct{}
	paths   []string
	mu      sync.Mutex
	current string
}

func (d *fakeDumper) Dump(ctx context.Context, path string) (int64, error) {
	d.mu.Lock()
	d.paths = append(d.paths, path)
	company := d.current
	d.mu.Unlock()

	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if d.failFor[company] {
		return 0, errors.New("pg_dump: connection refused")
	}
	if err := os.WriteFile(path, []byte("PGDMP"), 0o600); err != nil {
		return 0, err
	}
	return 5, nil
}

type fakeDrive struct {
	mu      sync.Mutex
	folders []string
	uploads map[string]string
}

func (d *fakeDrive) EnsureFolder(_ context.Context, folderID, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if folderID != "" {
		return folderID, nil
	}
	d.folders = append(d.folders, name)
	return "folder-new", nil
}

func (d *fakeDrive) Upload(_ context.Context, folderID, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploads[folderID+"/"+name] = string(b)
	return "file-" + name, nil
}

type fakeInvoices struct {
	failFor map[string]bool
	calls   []string
}

func (f *fakeInvoices) SyncPending(_ context.Context, companyID string) (int, error) {
	f.calls = append(f.calls, companyID)
	if f.failFor[companyID] {
		return 1, errors.New("1 of 2 invoices failed to sync")
	}
	return 2, nil
}

type fixture struct {
	svc    *BackupService
	runs   *memRuns
	integ  *fakeIntegrations
	dumper *fakeDumper
	drive  *fakeDrive
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		runs:   &memRuns{runs: map[string]*domain.Run{}},
		integ:  newFakeIntegrations(),
		dumper: &fakeDumper{failFor: map[string]bool{}},
		drive:  &fakeDrive{uploads: map[string]string{}},
	}
	drives := func(context.Context, *http.Client) (Drive, error) { return f.drive, nil }
	f.svc = NewBackupService(f.runs, f.integ, f.dumper, drives, Options{
		FolderName:        "Backups",
		WorkDir:           t.TempDir(),
		OperatorCompanyID: "co-1",
	})
	f.svc.now = func() time.Time { return time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC) }
	return f
}

// trackingIntegrations tells the fake dumper which company it is dumping.
// RunAll is sequential so a single field is enough.
type trackingIntegrations struct {
	*fakeIntegrations
	dumper *fakeDumper
}

func (t trackingIntegrations) Client(ctx context.Context, companyID, provider string) (*http.Client, *integrationdomain.Integration, error) {
	t.dumper.mu.Lock()
	t.dumper.current = companyID
	t.dumper.mu.Unlock()
	return t.fakeIntegrations.Client(ctx, companyID, provider)
}

func TestRunCompany_UploadsAndRecords(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)

	run, err := f.svc.RunCompany(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, run.Status)
	assert.Equal(t, int64(5), run.SizeBytes)

	name := "folder-new/corebuild-backup-co-1-20240301T020000Z.dump"
	assert.Equal(t, "PGDMP", f.drive.uploads[name])
	assert.Equal(t, []string{"Backups"}, f.drive.folders)
	assert.Equal(t, "folder-new", f.integ.settings["co-1/google/backup_folder_id"])
	assert.NoError(t, f.integ.synced["co-1/google"])

	stored := f.runs.byCompany("co-1")
	require.Len(t, stored, 1)
	assert.Equal(t, domain.StatusSucceeded, stored[0].Status)

	require.Len(t, f.dumper.paths, 1)
	_, statErr := os.Stat(f.dumper.paths[0])
	assert.True(t, os.IsNotExist(statErr), "temp dump should be removed")
}

func TestRunCompany_ReusesFolder(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1",
		map[string]string{integrationdomain.SettingBackupFolderID: "folder-old"})

	_, err := f.svc.RunCompany(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Empty(t, f.drive.folders)
	assert.NotContains(t, f.integ.settings, "co-1/google/backup_folder_id")
}

func TestRunCompany_NotConnected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RunCompany(context.Background(), "co-1")
	assert.ErrorIs(t, err, domain.ErrNoDrive)
	assert.Empty(t, f.runs.byCompany("co-1"))
}

func TestRunCompany_RefusesOtherCompanies(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-2", nil)

	_, err := f.svc.RunCompany(context.Background(), "co-2")
	assert.ErrorIs(t, err, domain.ErrNotOperator)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.Trigger(context.Background(), "co-2")
	assert.ErrorIs(t, err, domain.ErrNotOperator)

	assert.Empty(t, f.runs.byCompany("co-2"))
	assert.Empty(t, f.dumper.paths)
}

func TestRunAll_OnlyOperatorCompany(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"co-1", "co-2", "co-3"} {
		f.integ.connect(integrationdomain.ProviderGoogle, id, nil)
	}

	report, err := f.svc.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{Succeeded: 1}, report)
	assert.Len(t, f.runs.byCompany("co-1"), 1)
	assert.Empty(t, f.runs.byCompany("co-2"))
	assert.Empty(t, f.runs.byCompany("co-3"))
	assert.Len(t, f.drive.uploads, 1)
}

func TestRunAll_RecordsFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.integrations = trackingIntegrations{fakeIntegrations: f.integ, dumper: f.dumper}
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)
	f.dumper.failFor["co-1"] = true

	report, err := f.svc.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{Failed: 1}, report)

	failed := f.runs.byCompany("co-1")
	require.Len(t, failed, 1)
	assert.Equal(t, domain.StatusFailed, failed[0].Status)
	assert.Contains(t, failed[0].Error, "connection refused")
	assert.Error(t, f.integ.synced["co-1/google"])
}

func TestRunAll_OperatorWithoutDrive(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-2", nil)

	report, err := f.svc.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{Skipped: 1}, report)
	assert.Empty(t, f.runs.byCompany("co-2"))
}

func TestRunAll_NoOperatorConfigured(t *testing.T) {
	f := newFixture(t)
	f.svc.opts.OperatorCompanyID = ""
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)

	report, err := f.svc.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{}, report)

	_, err = f.svc.RunCompany(context.Background(), "co-1")
	assert.ErrorIs(t, err, domain.ErrNotOperator)
}

func TestTrigger_RunsInBackgroundAndGuardsCompany(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)
	f.dumper.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	run, err := f.svc.Trigger(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, run.Status)
	cancel()

	_, err = f.svc.Trigger(context.Background(), "co-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyRunning)

	close(f.dumper.block)
	f.svc.Wait()

	stored := f.runs.byCompany("co-1")
	require.Len(t, stored, 1)
	assert.Equal(t, domain.StatusSucceeded, stored[0].Status, "request cancellation must not abort the run")

	_, err = f.svc.RunCompany(context.Background(), "co-1")
	assert.NoError(t, err)
}

func TestSyncQuickBooks(t *testing.T) {
	f := newFixture(t)
	inv := &fakeInvoices{failFor: map[string]bool{"co-2": true}}
	f.svc.SetInvoiceSyncer(inv)
	f.integ.connect(integrationdomain.ProviderQuickBooks, "co-1", nil)
	f.integ.connect(integrationdomain.ProviderQuickBooks, "co-2", nil)

	report, err := f.svc.SyncQuickBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{Succeeded: 1, Failed: 1}, report)
	assert.Equal(t, []string{"co-1", "co-2"}, inv.calls)
	assert.NoError(t, f.integ.synced["co-1/quickbooks"])
	assert.Error(t, f.integ.synced["co-2/quickbooks"])
}

func TestSyncQuickBooks_NotWired(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderQuickBooks, "co-1", nil)

	report, err := f.svc.SyncQuickBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{}, report)
}

func TestRunNightly(t *testing.T) {
	f := newFixture(t)
	inv := &fakeInvoices{}
	f.svc.SetInvoiceSyncer(inv)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)
	f.integ.connect(integrationdomain.ProviderQuickBooks, "co-1", nil)

	require.NoError(t, f.svc.RunNightly(context.Background()))
	assert.Len(t, f.runs.byCompany("co-1"), 1)
	assert.Equal(t, []string{"co-1"}, inv.calls)
}

func TestList_ClampsLimit(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)
	for i := 0; i < 3; i++ {
		_, err := f.svc.RunCompany(context.Background(), "co-1")
		require.NoError(t, err)
	}

	runs, err := f.svc.List(context.Background(), "co-1", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = f.svc.List(context.Background(), "co-1", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

type fakeDeadlines struct {
	byCompany map[string][]selectiondomain.Deadline
}

func (f fakeDeadlines) Deadlines(_ context.Context, companyID string, limit int) ([]selectiondomain.Deadline, error) {
	out := f.byCompany[companyID]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCalendar struct {
	mu     sync.Mutex
	events map[string]calendar.Event
	fail   map[string]bool
}

func (c *fakeCalendar) Upsert(_ context.Context, ev calendar.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[ev.Key] {
		return errors.New("calendar: rate limited")
	}
	c.events[ev.Key] = ev
	return nil
}

func TestSyncCalendars(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-2", nil)

	due := platform.NewDate(2024, 3, 15)
	deadlines := fakeDeadlines{byCompany: map[string][]selectiondomain.Deadline{
		"co-1": {{SelectionID: "sel-1", ProjectName: "Oak St", Name: "Tile", Category: "flooring", Status: "pending", DueDate: due}},
		"co-2": {
			{SelectionID: "sel-2", ProjectName: "Elm Ave", Name: "Faucet", Status: "selected", DueDate: due},
			{SelectionID: "sel-3", ProjectName: "Elm Ave", Name: "Vanity", Status: "pending", DueDate: due},
		},
	}}
	cal := &fakeCalendar{events: map[string]calendar.Event{}, fail: map[string]bool{"sel-3": true}}
	f.svc.SetCalendarSync(deadlines, func(context.Context, *http.Client) (Calendar, error) { return cal, nil })

	report, err := f.svc.SyncCalendars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{Succeeded: 1, Failed: 1}, report)

	require.Contains(t, cal.events, "sel-1")
	ev := cal.events["sel-1"]
	assert.Equal(t, "Oak St selection due: Tile", ev.Summary)
	assert.Equal(t, due.Time, ev.Date)
	assert.Contains(t, ev.Description, "flooring")
	assert.Contains(t, cal.events, "sel-2")
	assert.NotContains(t, cal.events, "sel-3")
}

func TestSyncCalendars_NotWired(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)

	report, err := f.svc.SyncCalendars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Report{}, report)
}

func TestRunNightly_PublishesCalendars(t *testing.T) {
	f := newFixture(t)
	f.integ.connect(integrationdomain.ProviderGoogle, "co-1", nil)
	cal := &fakeCalendar{events: map[string]calendar.Event{}}
	deadlines := fakeDeadlines{byCompany: map[string][]selectiondomain.Deadline{
		"co-1": {{SelectionID: "sel-1", Name: "Tile", DueDate: platform.NewDate(2024, 3, 15)}},
	}}
	f.svc.SetCalendarSync(deadlines, func(context.Context, *http.Client) (Calendar, error) { return cal, nil })

	require.NoError(t, f.svc.RunNightly(context.Background()))
	assert.Len(t, f.runs.byCompany("co-1"), 1)
	assert.Len(t, cal.events, 1)
}
