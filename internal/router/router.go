package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/handler"
	"github.com/noah-isme/society-sync-api/internal/middleware"
	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/internal/service"
	"github.com/noah-isme/society-sync-api/pkg/config"
	"github.com/noah-isme/society-sync-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/society-sync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/society-sync-api/pkg/middleware/requestid"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Tokens  middleware.TokenValidator
	Audit   middleware.AuditRecorder

	FormTemplates *handler.FormTemplateHandler
	FormResponses *handler.FormResponseHandler
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Societies     *handler.SocietyHandler
	Events        *handler.EventHandler
	Admin         *handler.AdminHandler
	Observability *handler.MetricsHandler
}

// New builds the gin engine with every route mounted under the API prefix.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Uploads.MaxBytes > 0 {
		r.MaxMultipartMemory = cfg.Uploads.MaxBytes
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.Observability.Health)
	r.GET("/ready", deps.Observability.Ready)
	r.GET("/metrics", deps.Observability.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if cfg.Uploads.Dir != "" && cfg.Uploads.PublicPath != "" {
		r.Static(cfg.Uploads.PublicPath, cfg.Uploads.Dir)
	}

	api := r.Group(cfg.APIPrefix)
	auth := middleware.JWT(deps.Tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)
	student := middleware.RequireRoles(models.RoleStudent)
	superadmin := middleware.RequireRoles(models.RoleSuperAdmin)
	audit := func(action, resource, param string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource, param)
	}

	templates := api.Group("/formTemplate", auth)
	templates.POST("", admin, audit(models.AuditActionFormTemplateCreate, "form_templates", ""), deps.FormTemplates.Create)
	templates.GET("/form/:formId", deps.FormTemplates.Get)
	templates.GET("/forms", deps.FormTemplates.List)
	templates.GET("/formForSociety/:societyId", deps.FormTemplates.ListBySociety)

	responses := api.Group("/response", auth)
	responses.POST("/submit/:templateId", student, deps.FormResponses.Submit)
	responses.GET("/society/:societyId", admin, deps.FormResponses.BySociety)
	responses.GET("/template/:templateId", admin, deps.FormResponses.ByTemplate)
	exportAudit := audit(models.AuditActionFormExport, "form_templates", "templateId")
	responses.GET("/export-csv/:templateId", admin, exportAudit, deps.FormResponses.ExportCSV)
	responses.GET("/export-excel/:templateId", admin, exportAudit, deps.FormResponses.ExportExcel)
	responses.GET("/export-pdf/:templateId", admin, exportAudit, deps.FormResponses.ExportPDF)

	users := api.Group("/users")
	users.POST("/register", deps.Users.Register)
	users.POST("/login", deps.Auth.Login)
	users.POST("/refresh-token", deps.Auth.Refresh)
	users.POST("/logout", auth, deps.Auth.Logout)
	users.GET("/me/current", auth, deps.Users.Me)
	users.PUT("/me", auth, deps.Users.UpdateAccount)
	users.PUT("/me/avatar", auth, deps.Users.UpdateAvatar)
	users.PUT("/change-password", auth, deps.Auth.ChangePassword)

	societies := api.Group("/societies")
	societies.GET("", deps.Societies.List)
	societies.GET("/currentSociety", auth, admin, deps.Societies.Current)
	societies.GET("/currentSociety/getEvents", auth, admin, deps.Societies.CurrentEvents)
	societies.POST("/addEvent", auth, admin, audit(models.AuditActionEventCreate, "events", ""), deps.Societies.AddEvent)

	events := api.Group("/events")
	events.GET("/upcoming", deps.Events.Upcoming)
	events.GET("/past", deps.Events.Past)
	events.GET("/society/:societyName", deps.Events.BySociety)
	events.DELETE("/old", auth, superadmin, audit(models.AuditActionEventCleanup, "events", ""), deps.Events.Cleanup)

	super := api.Group("/superadmin", auth, superadmin)
	super.GET("/pending-admins", deps.Admin.Pending)
	super.POST("/approve/:userId", audit(models.AuditActionAdminApprove, "users", "userId"), deps.Admin.Approve)
	super.DELETE("/reject/:userId", audit(models.AuditActionAdminReject, "users", "userId"), deps.Admin.Reject)

	return r
}
