package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solterra-club/backoffice/internal/app"
	"github.com/solterra-club/backoffice/internal/dashboard"
	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/rbac"
	"github.com/solterra-club/backoffice/internal/session"
	"github.com/solterra-club/backoffice/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	// Sessions expire with the configured TTL; permission and widget
	// overrides never expire.
	sessionStore := shared.NewRedisStore(redisClient, cfg.StorePrefix, cfg.SessionTTL)
	configStore := shared.NewRedisStore(redisClient, cfg.StorePrefix, 0)

	var directory identity.Directory
	if cfg.PGDSN != "" {
		pool, err := shared.NewPostgresPool(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		directory = identity.NewPGDirectory(pool)
		logger.Info("identity directory backed by postgres")
	} else {
		seeded, _ := identity.SeedDirectory()
		directory = seeded
		logger.Info("identity directory backed by seed catalog")
	}
	credentials := identity.NewStaticCredentials(identity.SeedCredentials())

	engine := session.NewEngine(sessionStore, directory, credentials,
		session.Policy{AdminCanImpersonate: cfg.AllowAdminImpersonation}, logger)

	permStore := rbac.NewStore(configStore, logger)
	if err := permStore.Restore(ctx); err != nil {
		logger.Error("restore permission overrides, using defaults", slog.Any("error", err))
	}
	registry := dashboard.NewRegistry(configStore, logger)
	if err := registry.Restore(ctx); err != nil {
		logger.Error("restore widget overrides, using defaults", slog.Any("error", err))
	}
	admin := rbac.NewAdmin(permStore, registry, configStore, logger)

	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	guard := rbac.Middleware{Store: permStore, Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		Engine:      engine,
		CSRFManager: csrfManager,
		SessionHandler: session.NewHandler(logger, engine, csrfManager,
			cfg.SessionCookie, cfg.IsProduction(), cfg.SessionTTL),
		PermissionsHandler: rbac.NewHandler(logger, permStore, admin, guard),
		DashboardHandler:   dashboard.NewHandler(logger, registry, permStore.AllowedFunc),
		Guard:              guard,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
