package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/infra/config"
	"github.com/qwezhou/AAA-Code/internal/transport/http/handlers"
	"github.com/qwezhou/AAA-Code/internal/transport/http/middleware"
	"github.com/qwezhou/AAA-Code/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth        *usecase.AuthService
	Problems    *usecase.ProblemService
	Submissions *usecase.SubmissionService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Sessions    port.SessionStore
	Services    ServiceSet
	Cache       CacheChecker
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
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
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	} else {
		r.Use(metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 1)
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.SessionFromCookie(deps.Sessions, deps.Config.Session.CookieName))
	{
		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, handlers.SessionCookieSettings{
			Name:   deps.Config.Session.CookieName,
			Secure: deps.Config.Session.CookieSecure,
		})
		authHandler.RegisterRoutes(authGroup, buildSignInMiddlewares(deps)...)

		requireSession := middleware.RequireSession()

		problemGroup := api.Group("")
		problemGroup.Use(requireSession)

		problemHandler := handlers.NewProblemHandler(deps.Services.Problems)
		problemHandler.RegisterRoutes(problemGroup)

		submissionHandler := handlers.NewSubmissionHandler(deps.Services.Submissions)
		submissionHandler.RegisterRoutes(problemGroup)
	}

	return r
}

func buildSignInMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.SignInMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_cookie_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
