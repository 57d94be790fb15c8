package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/infra/config"
	"github.com/arklim/capability-identity/internal/transport/http/handlers"
	"github.com/arklim/capability-identity/internal/transport/http/middleware"
	"github.com/arklim/capability-identity/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth    *usecase.AuthService
	Users   *usecase.UserService
	Catalog *usecase.CatalogService
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)

	probes := map[string]handlers.ReadinessProbe{}
	if deps.Database != nil {
		probes["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		probes["redis"] = deps.Cache.HealthCheck
	}

	healthHandler := handlers.NewHealthHandler(probes)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, int64(deps.Config.JWT.AccessTokenTTL.Seconds()))
		authHandler.RegisterRoutes(authGroup, buildLoginMiddlewares(deps)...)

		protected := api.Group("")
		protected.Use(authMiddleware)

		userHandler := handlers.NewUserHandler(deps.Services.Users)
		userHandler.RegisterRoutes(api, protected,
			middleware.RequirePermission(domain.PermissionUserRead),
			middleware.RequirePermission(domain.PermissionUserCreate),
		)

		catalogHandler := handlers.NewCatalogHandler(deps.Services.Catalog, deps.Logger)
		catalogHandler.RegisterRoutes(protected,
			middleware.RequirePermission(domain.PermissionCatalogImport),
		)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
