// Package main is the entrypoint for the SecureBridge API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/securebridge/securebridge/internal/audit"
	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/cache"
	"github.com/securebridge/securebridge/internal/config"
	"github.com/securebridge/securebridge/internal/handler"
	"github.com/securebridge/securebridge/internal/metrics"
	"github.com/securebridge/securebridge/internal/middleware"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/repository"
	"github.com/securebridge/securebridge/internal/server"
	"github.com/securebridge/securebridge/internal/service"
	"github.com/securebridge/securebridge/internal/webhook"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize crypto primitives
	tokens, err := auth.NewTokenAuthority(cfg.SecretKey, cfg.JWTAlgorithm, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	if err != nil {
		logger.Error("failed to initialize token authority", "error", err)
		os.Exit(1)
	}
	keyCipher, err := auth.NewKeyCipher(cfg.APIKeyEncryptionKey)
	if err != nil {
		logger.Error("failed to initialize key cipher", "error", err)
		os.Exit(1)
	}

	// Initialize services
	metricsRecorder := metrics.NewInMemory()
	authService := service.NewAuthService(repo, tokens, logger, metricsRecorder)
	keyService := service.NewAPIKeyService(repo, keyCipher, service.APIKeyConfig{
		Prefix:         cfg.APIKeyPrefix,
		DefaultTTLDays: cfg.APIKeyDefaultTTLDays,
		MinTTLDays:     cfg.APIKeyMinTTLDays,
		MaxTTLDays:     cfg.APIKeyMaxTTLDays,
	}, logger, metricsRecorder)
	resolver := service.NewResolver(repo, tokens, keyService, logger, metricsRecorder)

	// Security event pipeline: handlers publish to the Redis stream,
	// the audit worker persists batches and fans out to webhooks.
	eventPublisher := audit.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
	webhookRepo := webhook.NewRepository(repo.Pool())
	webhookService := webhook.NewService(webhookRepo, keyCipher, logger)
	webhookPublisher := webhook.NewPublisher(webhookRepo, logger)
	auditWorker := audit.NewWorker(cacheClient.Client(), repo, logger, audit.NewConsumerID(), metricsRecorder)
	auditWorker.SetNotifier(webhookPublisher)
	deliveryWorker := webhook.NewWorker(webhookRepo, keyCipher, logger, metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	authHandler := handler.NewAuthHandler(logger, authService, eventPublisher)
	keyHandler := handler.NewAPIKeyHandler(logger, keyService, eventPublisher)
	dataHandler := handler.NewDataHandler()
	webhookHandler := handler.NewWebhookHandler(logger, webhookService)
	auditHandler := handler.NewAuditHandler(logger, repo)

	// Setup router
	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		metrics:  metricsHandler,
		auth:     authHandler,
		keys:     keyHandler,
		data:     dataHandler,
		webhooks: webhookHandler,
		audit:    auditHandler,
		resolver: resolver,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Background workers stop after the HTTP server drains
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	go func() {
		if err := auditWorker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("audit worker stopped", "error", err)
		}
	}()
	go func() {
		if err := deliveryWorker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("webhook worker stopped", "error", err)
		}
	}()
	srv.OnShutdown("audit worker", auditWorker.Shutdown)
	srv.OnShutdown("webhook worker", deliveryWorker.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	auth     *handler.AuthHandler
	keys     *handler.APIKeyHandler
	data     *handler.DataHandler
	webhooks *handler.WebhookHandler
	audit    *handler.AuditHandler
	resolver *service.Resolver
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      d.cfg.IsDevelopment(),
		AllowedOrigins:     d.cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: d.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)

	// Root info endpoint
	r.Get("/", d.base.Hello)

	authCfg := middleware.AuthConfig{
		Logger:   d.logger,
		Resolver: d.resolver,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:            d.logger,
		Cache:             d.cache,
		Enabled:           d.cfg.RateLimitEnabled,
		RequestsPerMinute: d.cfg.RateLimitPerMinute,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(rateLimitCfg))

		// Credential acquisition routes take no bearer credential
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", d.auth.Signup)
			r.Post("/login", d.auth.Login)
			r.Post("/refresh", d.auth.Refresh)

			r.With(middleware.Authenticate(authCfg), middleware.RequireUser()).
				Get("/me", d.auth.Me)
		})

		// Key management requires a signed-in user
		r.Route("/keys", func(r chi.Router) {
			r.Use(middleware.Authenticate(authCfg))
			r.Use(middleware.RequireUser())

			r.Get("/", d.keys.List)
			r.Post("/", d.keys.Create)
			r.Delete("/{key_id}", d.keys.Revoke)
			r.Post("/{key_id}/renew", d.keys.Renew)
			r.Delete("/{key_id}/purge", d.keys.Purge)
		})

		// Webhook endpoint registration requires a signed-in user
		r.Route("/webhooks", func(r chi.Router) {
			r.Use(middleware.Authenticate(authCfg))
			r.Use(middleware.RequireUser())

			r.Get("/", d.webhooks.List)
			r.Post("/", d.webhooks.Create)
			r.Patch("/{webhook_id}", d.webhooks.Update)
			r.Delete("/{webhook_id}", d.webhooks.Delete)
			r.Get("/{webhook_id}/deliveries", d.webhooks.ListDeliveries)
		})

		// Audit trail is admin-only
		r.With(middleware.Authenticate(authCfg), middleware.RequireRole(model.RoleAdmin)).
			Get("/audit/events", d.audit.ListEvents)

		// Data route for integrating services
		r.With(middleware.Authenticate(authCfg), middleware.RequirePermission(model.PermReadData)).
			Get("/data", d.data.Get)
	})

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
