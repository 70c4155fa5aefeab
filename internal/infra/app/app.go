package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/infra/config"
	"github.com/qwezhou/AAA-Code/internal/infra/logger"
	redisinfra "github.com/qwezhou/AAA-Code/internal/infra/redis"
	memoryrepo "github.com/qwezhou/AAA-Code/internal/repository/memory"
	redisrepo "github.com/qwezhou/AAA-Code/internal/repository/redis"
	"github.com/qwezhou/AAA-Code/internal/transport/http/middleware"
	"github.com/qwezhou/AAA-Code/internal/transport/http/routes"
	"github.com/qwezhou/AAA-Code/internal/upstream"
	"github.com/qwezhou/AAA-Code/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var (
		redisClient *redisinfra.Client
		cache       routes.CacheChecker
	)
	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		cache = redisClient
	}

	sessions, err := buildSessionStore(cfg, redisClient, log)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimitWindow := cfg.RateLimit.WindowDuration
		if rateLimitWindow <= 0 {
			rateLimitWindow = time.Minute
		}
		rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "aaa:rate-limit",
			TTL:       rateLimitWindow * 2,
		})
		rateLimiter = middleware.NewRateLimiter(rateLimitStore, log)
	} else {
		log.Info("redis not configured, sign-in rate limiting disabled")
	}

	gateway := upstream.NewClient(cfg.Upstream, log)

	authService := usecase.NewAuthService(gateway, sessions, log)
	problemService := usecase.NewProblemService(gateway, log)
	submissionService := usecase.NewSubmissionService(gateway, problemService, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Sessions:    sessions,
		Cache:       cache,
		Services: routes.ServiceSet{
			Auth:        authService,
			Problems:    problemService,
			Submissions: submissionService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		redis:  redisClient,
	}, nil
}

func buildSessionStore(cfg *config.AppConfig, redisClient *redisinfra.Client, log *zap.Logger) (port.SessionStore, error) {
	if cfg.Session.Backend == "redis" {
		if redisClient == nil {
			return nil, fmt.Errorf("session backend %q requires redis.host to be set", cfg.Session.Backend)
		}
		log.Info("using redis session store",
			zap.String("key_prefix", cfg.Session.KeyPrefix),
			zap.Duration("ttl", cfg.Session.TTL),
		)
		return redisrepo.NewSessionStore(redisClient.Client(), cfg.Session.KeyPrefix, cfg.Session.TTL), nil
	}

	log.Info("using in-memory session store")
	return memoryrepo.NewSessionStore(), nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting judge proxy API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
