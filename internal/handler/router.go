package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/guardforce-api/internal/middleware"
	"github.com/noah-isme/guardforce-api/internal/models"
	"github.com/noah-isme/guardforce-api/internal/service"
	"github.com/noah-isme/guardforce-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/guardforce-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/guardforce-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Auth         *AuthHandler
	Registration *RegistrationHandler
	Location     *LocationHandler
	Beat         *BeatHandler
	Admin        *AdminHandler
	User         *UserHandler
	Metrics      *MetricsHandler
	Files        *FileHandler
}

// RouterConfig carries transport settings.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
}

// RouterDeps are the cross-cutting collaborators used by middleware.
type RouterDeps struct {
	Tokens  middleware.TokenValidator
	Metrics *service.MetricsService
	Audit   middleware.AuditWriter
	Logger  *zap.Logger
}

// NewRouter builds the gin engine with global middleware and role-gated routes.
func NewRouter(cfg RouterConfig, h Handlers, deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(cfg.APIPrefix)

	if h.Files != nil {
		api.GET("/files/:token", h.Files.Serve)
	}

	if h.Auth != nil {
		auth := api.Group("/auth")
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	if h.Auth != nil {
		secured.POST("/auth/logout", h.Auth.Logout)
		secured.GET("/auth/me", h.Auth.Me)
		secured.POST("/auth/change-password", h.Auth.ChangePassword)
	}

	director := middleware.RequireRoles(models.RoleDirector)

	if h.Registration != nil {
		reg := secured.Group("/registration-requests")
		reg.POST("", middleware.RequireRoles(models.RoleManager), h.Registration.Create)
		reg.GET("/pending", director, h.Registration.Pending)
		reg.GET("/stats", middleware.RequireRoles(models.RoleDirector, models.RoleManager), h.Registration.Stats)
		reg.GET("/managers", director, h.Registration.Managers)
		reg.GET("/export", director,
			middleware.Audit(deps.Audit, deps.Logger, models.AuditActionRegistrationExport, "registration_request"),
			h.Registration.Export)
		reg.GET("/:id", middleware.RequireRoles(models.RoleDirector, models.RoleManager), h.Registration.Get)
		reg.POST("/:id/approve", director, h.Registration.Approve)
		reg.POST("/:id/reject", director, h.Registration.Reject)
	}

	if h.Location != nil {
		locations := secured.Group("/locations")
		locations.GET("", h.Location.List)
		locations.GET("/:id", h.Location.Get)
		locations.POST("", middleware.RequireRoles(models.RoleDirector, models.RoleManager), h.Location.Create)
	}

	if h.Beat != nil {
		createBeat := middleware.RequireRoles(models.RoleDirector, models.RoleManager, models.RoleGeneralSupervisor)
		for _, path := range []string{"/beats", "/bits"} {
			beats := secured.Group(path)
			beats.GET("", h.Beat.List)
			beats.GET("/:id", h.Beat.Get)
			beats.POST("", createBeat, h.Beat.Create)
		}
	}

	if h.Admin != nil {
		admins := secured.Group("/admins", director)
		admins.POST("", h.Admin.Register)
		admins.GET("", h.Admin.List)
		admins.GET("/:id", h.Admin.Get)
	}

	backOffice := middleware.RequireRoles(models.RoleDirector, models.RoleAdmin)

	if h.User != nil {
		users := secured.Group("/users", backOffice)
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
	}

	if h.Metrics != nil {
		secured.GET("/system/metrics", backOffice, h.Metrics.System)
	}

	return r
}
