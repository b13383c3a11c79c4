package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/config"
	"github.com/corebuild/corebuild-backend/internal/auth"
	authmw "github.com/corebuild/corebuild-backend/internal/auth/middleware"
	backupcal "github.com/corebuild/corebuild-backend/internal/backup/calendar"
	backupdrive "github.com/corebuild/corebuild-backend/internal/backup/drive"
	"github.com/corebuild/corebuild-backend/internal/backup/pgdump"
	backuprepo "github.com/corebuild/corebuild-backend/internal/backup/repository"
	backupsvc "github.com/corebuild/corebuild-backend/internal/backup/service"
	corepo "github.com/corebuild/corebuild-backend/internal/changeorders/repository"
	cosvc "github.com/corebuild/corebuild-backend/internal/changeorders/service"
	companyrepo "github.com/corebuild/corebuild-backend/internal/companies/repository"
	companysvc "github.com/corebuild/corebuild-backend/internal/companies/service"
	dailylogrepo "github.com/corebuild/corebuild-backend/internal/dailylogs/repository"
	dailylogsvc "github.com/corebuild/corebuild-backend/internal/dailylogs/service"
	dashrepo "github.com/corebuild/corebuild-backend/internal/dashboard/repository"
	dashsvc "github.com/corebuild/corebuild-backend/internal/dashboard/service"
	docrepo "github.com/corebuild/corebuild-backend/internal/documents/repository"
	docsvc "github.com/corebuild/corebuild-backend/internal/documents/service"
	estimaterepo "github.com/corebuild/corebuild-backend/internal/estimates/repository"
	estimatesvc "github.com/corebuild/corebuild-backend/internal/estimates/service"
	"github.com/corebuild/corebuild-backend/internal/integrations/quickbooks"
	integrationrepo "github.com/corebuild/corebuild-backend/internal/integrations/repository"
	integrationsvc "github.com/corebuild/corebuild-backend/internal/integrations/service"
	invoicerepo "github.com/corebuild/corebuild-backend/internal/invoices/repository"
	invoicesvc "github.com/corebuild/corebuild-backend/internal/invoices/service"
	leadrepo "github.com/corebuild/corebuild-backend/internal/leads/repository"
	leadsvc "github.com/corebuild/corebuild-backend/internal/leads/service"
	"github.com/corebuild/corebuild-backend/internal/logging"
	moodboardrepo "github.com/corebuild/corebuild-backend/internal/moodboards/repository"
	moodboardsvc "github.com/corebuild/corebuild-backend/internal/moodboards/service"
	projectrepo "github.com/corebuild/corebuild-backend/internal/projects/repository"
	projectsvc "github.com/corebuild/corebuild-backend/internal/projects/service"
	selectionrepo "github.com/corebuild/corebuild-backend/internal/selections/repository"
	selectionsvc "github.com/corebuild/corebuild-backend/internal/selections/service"
	"github.com/corebuild/corebuild-backend/internal/storage/objectstore"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
	takeoffrepo "github.com/corebuild/corebuild-backend/internal/takeoffs/repository"
	takeoffsvc "github.com/corebuild/corebuild-backend/internal/takeoffs/service"
	"github.com/corebuild/corebuild-backend/internal/users"
)

const dashboardCacheTTL = 60 * time.Second

// App owns the process-wide connections and the wired services shared by the
// API server and the worker CLI.
type App struct {
	Config *config.Config
	Log    *zap.Logger

	DB    *sql.DB
	Pool  *pgxpool.Pool
	Redis redis.UniversalClient

	// Verifier is nil when Firebase is not configured; requests are then
	// identified by X-User-Id.
	Verifier authmw.TokenVerifier

	Users        *users.Repo
	Companies    *companysvc.CompanyService
	Projects     *projectsvc.ProjectService
	Leads        *leadsvc.LeadService
	Estimates    *estimatesvc.EstimateService
	Invoices     *invoicesvc.InvoiceService
	ChangeOrders *cosvc.ChangeOrderService
	DailyLogs    *dailylogsvc.DailyLogService
	Selections   *selectionsvc.SelectionService
	MoodBoards   *moodboardsvc.MoodBoardService
	Takeoffs     *takeoffsvc.TakeoffService
	Documents    *docsvc.DocumentService
	Integrations *integrationsvc.IntegrationService
	Backups      *backupsvc.BackupService
	Dashboard    *dashsvc.DashboardService
}

// NewApp opens Postgres (database/sql and pgx) and Redis and wires every
// feature service. Documents stay nil when no bucket is configured.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		db.Close()
		return nil, err
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	a := &App{Config: cfg, Log: log, DB: db, Pool: pool, Redis: rdb}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	if cfg.Firebase.CredentialsPath != "" {
		verifier, err := auth.NewVerifier(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
		a.Verifier = verifier
	}

	a.Users = users.NewRepo(a.Pool)
	a.Companies = companysvc.NewCompanyService(companyrepo.NewCompanyRepository(a.DB), a.Users)

	projectRepo := projectrepo.NewProjectRepository(a.DB)
	a.Projects = projectsvc.NewProjectService(projectRepo)
	a.Leads = leadsvc.NewLeadService(leadrepo.NewLeadRepository(a.DB))

	a.Invoices = invoicesvc.NewInvoiceService(invoicerepo.NewInvoiceRepository(a.DB), projectRepo, a.Companies)
	a.Estimates = estimatesvc.NewEstimateService(estimaterepo.NewEstimateRepository(a.DB), projectRepo, a.Companies, a.Invoices)
	a.ChangeOrders = cosvc.NewChangeOrderService(corepo.NewChangeOrderRepository(a.DB), projectRepo)
	a.DailyLogs = dailylogsvc.NewDailyLogService(dailylogrepo.NewDailyLogRepository(a.DB), projectRepo)
	a.Selections = selectionsvc.NewSelectionService(selectionrepo.NewSelectionRepository(a.DB), projectRepo)
	a.MoodBoards = moodboardsvc.NewMoodBoardService(moodboardrepo.NewMoodBoardRepository(a.DB), projectRepo)
	a.Takeoffs = takeoffsvc.NewTakeoffService(takeoffrepo.NewTakeoffRepository(a.DB), projectRepo)

	if cfg.Storage.Bucket != "" {
		store, err := objectstore.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		a.Documents = docsvc.NewDocumentService(docrepo.NewDocumentRepository(a.DB), projectRepo, store)
	} else {
		a.Log.Warn("S3_BUCKET is not set, document routes are disabled")
	}

	a.Integrations = integrationsvc.NewIntegrationService(
		integrationrepo.NewIntegrationRepository(a.DB),
		integrationrepo.NewStateStore(a.Redis),
		integrationsvc.NewProviders(cfg),
	)
	qbo := quickbooks.NewClient(quickbooks.BaseURL(cfg.QuickBooks.Environment), cfg.QuickBooks.RequestsPerSecond)
	a.Invoices.SetSyncer(quickbooks.NewSyncer(a.Integrations, qbo))

	drives := func(ctx context.Context, client *http.Client) (backupsvc.Drive, error) {
		return backupdrive.NewUploader(ctx, client)
	}
	a.Backups = backupsvc.NewBackupService(
		backuprepo.NewRunRepository(a.DB),
		a.Integrations,
		pgdump.New(cfg.Backup.PgDump, postgres.DSN(&cfg.Database)),
		drives,
		backupsvc.Options{
			FolderName:        cfg.Google.BackupFolderName,
			WorkDir:           cfg.Backup.WorkDir,
			OperatorCompanyID: cfg.Backup.CompanyID,
		},
	)
	a.Backups.SetInvoiceSyncer(a.Invoices)
	a.Backups.SetCalendarSync(a.Selections, func(ctx context.Context, client *http.Client) (backupsvc.Calendar, error) {
		return backupcal.NewPublisher(ctx, client)
	})

	a.Dashboard = dashsvc.NewDashboardService(
		dashrepo.NewSummaryRepository(a.Pool),
		dashrepo.NewSummaryCache(a.Redis, dashboardCacheTTL),
	)
	return nil
}

// Close waits for background backups, then releases connections.
func (a *App) Close() {
	if a.Backups != nil {
		a.Backups.Wait()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("close redis", zap.Error(err))
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("close database", zap.Error(err))
		}
	}
}

// Context returns ctx carrying the app logger.
func (a *App) Context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, a.Log)
}
