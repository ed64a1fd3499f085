package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/learnhub/internal/mockapi/http"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/cryptox"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
	issuer       = "learnhub-mockapi"
)

// Backend is the wired mock API without a listener. Tests mount Router on an
// httptest server; Application mounts it on a real one.
type Backend struct {
	Store    *store.Memory
	Tokens   *service.TokenService
	Auth     *service.AuthService
	Courses  *service.CourseService
	Payments *service.PaymentService
	Router   *httpapi.Router
}

// NewBackend wires services and routes. Empty secrets are replaced with
// random ones, so tokens do not survive a restart.
func NewBackend(cfg Config, logger *slog.Logger, mailer service.Mailer) *Backend {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
	}
	if cfg.PaymentSecret == "" {
		cfg.PaymentSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = service.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = service.DefaultRefreshTokenTTL
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}

	b := &Backend{Store: store.NewMemory()}

	b.Tokens = &service.TokenService{
		Store:      b.Store,
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}
	b.Auth = &service.AuthService{
		Store:  b.Store,
		Tokens: b.Tokens,
		Hasher: cryptox.PasswordHasher{Pepper: cfg.Pepper},
		Mailer: mailer,
		Issuer: issuer,
	}
	b.Courses = &service.CourseService{Store: b.Store}
	b.Payments = &service.PaymentService{
		Store:    b.Store,
		Secret:   cfg.PaymentSecret,
		KeyID:    cfg.PaymentKeyID,
		Currency: cfg.Currency,
	}

	router := httpapi.NewRouter(BuildVersion, b.Store, logger)
	router.TokenService = b.Tokens
	router.AuthService = b.Auth
	router.CourseService = b.Courses
	router.PaymentService = b.Payments
	router.ApplyRoutes()
	b.Router = router

	return b
}

// Application is the runnable mock API service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	backend             *Backend
	housekeepingService *service.HousekeepingService

	server *http.Server
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "mockapi",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.backend = NewBackend(cfg, app.logger, service.LogMailer{Logger: app.logger})
	if cfg.Seed {
		if err := Seed(context.Background(), app.backend, app.logger); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.backend.Store,
		app.logger,
		cfg.HousekeepingInterval,
		24*time.Hour,
	)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.backend.Router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("mock api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down mock api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	app.logger.Info("mock api stopped")
	return nil
}
