package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/config"
	httpapi "github.com/aussiebroadwan/idpolicy/internal/policy/http"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/internal/policy/service"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store/drivers/sqlite"
	"github.com/aussiebroadwan/idpolicy/internal/policy/telemetry"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application is the decision service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	registry   *registry.Store
	db         store.Store
	keyManager *jwtx.KeyManager
	telemetry  *telemetry.Provider

	decisionService     *service.DecisionService
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService
	watcher             *config.Watcher

	server *http.Server
	router *httpapi.Router

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Application with all dependencies initialized. The
// registry file is loaded once here; a missing file is tolerated only when
// it is watched, so that it can be created later.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "idpolicy",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}
	app.registry = registry.NewStore(app.logger)

	if err := app.loadRegistry(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := InitKeys(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.keyManager = keyManager

	tel, err := telemetry.New()
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	app.telemetry = tel

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	app.housekeepingService.Start()

	if app.watcher != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := app.watcher.Run(ctx); err != nil {
				app.logger.Error("registry watcher stopped", "error", err)
			}
		}()
	}

	app.logger.Info("idpolicy starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down idpolicy...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.cancel != nil {
		app.cancel()
	}
	app.wg.Wait()
	app.housekeepingService.Stop()

	if err := app.telemetry.Shutdown(ctx); err != nil {
		app.logger.Error("error shutting down telemetry", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("idpolicy stopped")
	return nil
}

func (app *Application) loadRegistry() error {
	_, err := config.Apply(app.registry, app.cfg.RegistryFile)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist) && app.cfg.WatchRegistry:
		app.logger.Warn("registry file not found, serving no clients until it is created",
			"path", app.cfg.RegistryFile)
		return nil
	default:
		return fmt.Errorf("failed to load registry: %w", err)
	}
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.decisionService = &service.DecisionService{
		Registry:          app.registry,
		Secrets:           cryptox.SecretVerifier{},
		Consents:          app.db.Consents(),
		PendingConsents:   app.db.PendingConsents(),
		Observer:          telemetry.NewMetrics(app.telemetry.Meter(), app.logger, app.registry),
		UpstreamTimeout:   app.cfg.UpstreamTimeout,
		PendingConsentTTL: app.cfg.PendingConsentTTL,
	}

	app.tokenService = &service.TokenService{
		Signer: app.keyManager,
		Issuer: app.cfg.Issuer,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	if app.cfg.WatchRegistry {
		app.watcher = config.NewWatcher(app.cfg.RegistryFile, app.registry, app.logger)
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.registry,
		app.db,
		BuildVersion,
		app.logger,
	)

	router.DecisionService = app.decisionService
	router.TokenService = app.tokenService
	router.MetricsHandler = app.telemetry.Handler()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
