package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	exportapp "github.com/multipos/console/internal/application/export"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/infrastructure/apiclient"
	"github.com/multipos/console/internal/infrastructure/auth"
	"github.com/multipos/console/internal/infrastructure/cache"
	"github.com/multipos/console/internal/infrastructure/config"
	infraexport "github.com/multipos/console/internal/infrastructure/export"
	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/infrastructure/metrics"
	"github.com/multipos/console/internal/infrastructure/persistence"
	"github.com/multipos/console/internal/infrastructure/storage"
	"github.com/multipos/console/internal/infrastructure/telemetry"
	"github.com/multipos/console/internal/interfaces/http/handler"
	"github.com/multipos/console/internal/interfaces/http/middleware"
	"github.com/multipos/console/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting POS console",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("api", cfg.API.BaseURL),
		zap.String("version", version),
	)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer shutdown(log, "tracer", tracer.Shutdown)

	reg := metrics.New(metrics.DefaultConfig())

	base, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		UserAgent: cfg.API.UserAgent,
	}, apiclient.WithLogger(log), apiclient.WithObserver(reg))
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	settings, err := cache.NewSettingsCacheFactory(cfg.Redis, cfg.Workspace.SettingsTTL,
		cache.WithLogger(log), cache.WithInMemoryFallback(!cfg.IsProduction())).Create()
	if err != nil {
		return fmt.Errorf("settings cache: %w", err)
	}
	defer settings.Close()

	system := handler.NewSystemHandler(cfg.App.Name, version)
	exportOpts := []exportapp.Option{
		exportapp.WithLogger(log),
		exportapp.WithRecorder(reg),
		exportapp.WithMaxRows(cfg.Export.MaxRows),
	}

	if cfg.Database.Enabled {
		var dbOpts []persistence.Option
		if cfg.Telemetry.Enabled {
			dbOpts = append(dbOpts, persistence.WithTracing(nil))
		}
		db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level, dbOpts...)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		exportOpts = append(exportOpts, exportapp.WithHistory(persistence.NewGormExportRecordRepository(db.DB)))
		system.AddCheck("database", db.Ping)
		log.Info("Export history enabled")
	}

	var files *storage.MemoryStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("export bucket not ready", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		exportOpts = append(exportOpts, exportapp.WithStorage(s3, cfg.Storage.Prefix, cfg.Storage.PresignExpiry))
	} else {
		files = storage.NewMemoryStorage(fmt.Sprintf("http://localhost:%s/api/v1/files", cfg.App.Port))
		exportOpts = append(exportOpts, exportapp.WithStorage(files, cfg.Storage.Prefix, cfg.Storage.PresignExpiry))
	}

	renderers := infraexport.NewSet(cfg.Export, log)
	defer renderers.Close()
	exports := exportapp.NewService(renderers.Renderers, exportOpts...)

	workspaces := workspace.NewRegistry(
		func(token string) workspace.Gateways { return workspace.GatewaysOf(base.WithToken(token)) },
		workspace.WithSettingsCache(settings),
		workspace.WithSliceOptions(slice.WithLogger(log), slice.WithObserver(reg)),
		workspace.WithGauge(reg),
		workspace.WithLogger(log),
		workspace.WithIdleTTL(cfg.Workspace.IdleTTL),
		workspace.WithSweepInterval(cfg.Workspace.SweepInterval),
	)
	defer workspaces.Close()

	var lim *limiter.Limiter
	if cfg.HTTP.RateLimit != "" {
		lim, err = middleware.NewLimiter(cfg.HTTP.RateLimit)
		if err != nil {
			return fmt.Errorf("http.rate_limit: %w", err)
		}
	}

	deps := router.Deps{
		Config:     cfg,
		Logger:     log,
		Tokens:     auth.NewTokenReader(cfg.Auth),
		Workspaces: workspaces,
		Exports:    exports,
		System:     system,
		Metrics:    reg,
		Limiter:    lim,
	}
	if files != nil {
		deps.Files = files
	}
	engine := router.NewEngine(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdown(log, "http server", srv.Shutdown)
	log.Info("Server exited gracefully")
	return nil
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
