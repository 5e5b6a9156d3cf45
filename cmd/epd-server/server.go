package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/epd/epd/internal/config"
	"github.com/epd/epd/internal/domain/handover"
	"github.com/epd/epd/internal/domain/overview"
	"github.com/epd/epd/internal/platform/auth"
	"github.com/epd/epd/internal/platform/cache"
	"github.com/epd/epd/internal/platform/db"
	"github.com/epd/epd/internal/platform/llm"
	"github.com/epd/epd/internal/platform/middleware"
)

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg, os.Stdout)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	kv := newSummaryCache(ctx, cfg, logger)
	if c, ok := kv.(io.Closer); ok {
		defer c.Close()
	}

	e, apiV1 := newEcho(cfg, logger, authMiddleware(cfg))
	e.GET("/health/db", db.HealthHandler(pool))

	if err := registerDomains(apiV1, cfg, pool, kv, logger); err != nil {
		return err
	}

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.IsDev() && cfg.AuthIssuer == "" && cfg.AuthSigningKey == "" {
		return auth.DevAuthMiddleware()
	}
	var signingKey []byte
	if cfg.AuthSigningKey != "" {
		signingKey = []byte(cfg.AuthSigningKey)
	}
	return auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: signingKey,
		Skipper:    auth.AuthSkipper,
	})
}

// newEcho builds the server with the global middleware chain and the public
// health route. Domain routes go on the returned /api/v1 group.
func newEcho(cfg *config.Config, logger zerolog.Logger, authMW echo.MiddlewareFunc) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Tenant-ID", middleware.RequestIDHeader},
	}))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	e.Use(authMW)
	e.Use(db.TenantMiddleware(cfg.DefaultTenant))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rl))
	return e, apiV1
}

func newOverviewService(cfg *config.Config, store overview.Store, logger zerolog.Logger) (*overview.Service, error) {
	lang, err := cfg.Language()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return overview.NewService(store, fallbackPolicy(cfg, store), lang, loc, logger), nil
}

func fallbackPolicy(cfg *config.Config, store overview.Store) overview.FallbackPolicy {
	if !cfg.OverviewFallbackEnabled {
		return overview.NoFallback{}
	}
	return overview.SampleFallback{Store: store, Limit: cfg.OverviewFallbackLimit}
}

// newSummaryCache connects to Redis when REDIS_URL is set. A Redis that is
// down at boot degrades to the in-process cache rather than blocking startup.
func newSummaryCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) cache.KVStore {
	if cfg.RedisURL == "" {
		return cache.NewMemoryKVStore()
	}
	kv, err := cache.NewRedisKVStoreFromURL(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory summary cache")
		return cache.NewMemoryKVStore()
	}
	logger.Info().Msg("connected to redis")
	return kv
}

func registerDomains(api *echo.Group, cfg *config.Config, pool *pgxpool.Pool, kv cache.KVStore, logger zerolog.Logger) error {
	overviewSvc, err := newOverviewService(cfg, overview.NewStorePG(pool, logger), logger)
	if err != nil {
		return err
	}
	overview.NewHandler(overviewSvc).RegisterRoutes(api)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	client := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	handoverSvc := handover.NewService(handover.NewNoteStorePG(pool), overviewSvc.Counter(), client, kv, cfg.SummaryCacheTTL, loc, logger)
	handover.NewHandler(handoverSvc).RegisterRoutes(api)

	return nil
}
