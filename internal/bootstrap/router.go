package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/corebuild/corebuild-backend/internal/api/http"
	"github.com/corebuild/corebuild-backend/internal/api/http/middleware"
	"github.com/corebuild/corebuild-backend/internal/auth"
	authmw "github.com/corebuild/corebuild-backend/internal/auth/middleware"
	backuphttp "github.com/corebuild/corebuild-backend/internal/backup/http"
	cohttp "github.com/corebuild/corebuild-backend/internal/changeorders/http"
	companyhttp "github.com/corebuild/corebuild-backend/internal/companies/http"
	dailyloghttp "github.com/corebuild/corebuild-backend/internal/dailylogs/http"
	dashhttp "github.com/corebuild/corebuild-backend/internal/dashboard/http"
	dochttp "github.com/corebuild/corebuild-backend/internal/documents/http"
	estimatehttp "github.com/corebuild/corebuild-backend/internal/estimates/http"
	integrationhttp "github.com/corebuild/corebuild-backend/internal/integrations/http"
	invoicehttp "github.com/corebuild/corebuild-backend/internal/invoices/http"
	leadhttp "github.com/corebuild/corebuild-backend/internal/leads/http"
	moodboardhttp "github.com/corebuild/corebuild-backend/internal/moodboards/http"
	projecthttp "github.com/corebuild/corebuild-backend/internal/projects/http"
	selectionhttp "github.com/corebuild/corebuild-backend/internal/selections/http"
	takeoffhttp "github.com/corebuild/corebuild-backend/internal/takeoffs/http"
	"github.com/corebuild/corebuild-backend/internal/users"
)

const serviceName = "corebuild-api"

func BuildRouter(a *App) *gin.Engine {
	SetGinMode(a.Config.App.Environment)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", auth.HeaderCompanyID, auth.HeaderUserID, middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := httpapi.NewHealthHandler(serviceName, a.Config.App.Version, a.Pool, httpapi.RedisPinger{Client: a.Redis})
	health.RegisterRoutes(r)

	api := r.Group("/api/v1")
	public := api.Group("")

	user := api.Group("")
	if a.Verifier != nil {
		user.Use(authmw.FirebaseAuthMiddleware(a.Verifier))
	} else {
		user.Use(authmw.HeaderAuthMiddleware())
	}
	user.Use(auth.WithUser(a.Users))

	tenant := user.Group("")
	tenant.Use(auth.RequireCompany(a.Users))

	users.NewHandler(a.Users, auth.UserDBID).Register(user)
	companyhttp.New(a.Companies).Register(user, tenant)
	integrationhttp.New(a.Integrations).Register(public, tenant)

	projecthttp.New(a.Projects).Register(tenant.Group("/projects"))
	leadhttp.New(a.Leads).Register(tenant.Group("/leads"))
	estimatehttp.New(a.Estimates).Register(tenant)
	invoicehttp.New(a.Invoices).Register(tenant)
	cohttp.New(a.ChangeOrders).Register(tenant)
	dailyloghttp.New(a.DailyLogs).Register(tenant)
	selectionhttp.New(a.Selections).Register(tenant)
	moodboardhttp.New(a.MoodBoards).Register(tenant)
	takeoffhttp.New(a.Takeoffs).Register(tenant)
	if a.Documents != nil {
		dochttp.New(a.Documents).Register(tenant)
	}
	if a.Config.Backup.Enabled {
		backuphttp.New(a.Backups).Register(tenant)
	}
	dashhttp.New(a.Dashboard).Register(tenant)

	return r
}
