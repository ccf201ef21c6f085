package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/forrrest/auth/internal/auth/http"
	"github.com/forrrest/auth/internal/auth/service"
	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/internal/auth/store/drivers/sqlite"
	"github.com/forrrest/auth/pkg/cryptox"
	"github.com/forrrest/auth/pkg/jwtx"
	"github.com/forrrest/auth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   jwtx.Signer
	keys     *jwtx.KeySet
	verifier *jwtx.Verifier

	authService    *service.AuthService
	profileService *service.ProfileService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, keys, err := InitAuthKeys(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.signer = signer
	app.keys = keys
	app.verifier = jwtx.NewVerifier(keys, cfg.Issuer, []string{cfg.Audience})

	encrypter, decrypter, err := InitTransferKeys(cfg, app.logger)
	if err != nil {
		return nil, err
	}

	app.initServices(encrypter, decrypter)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

func (app *Application) initServices(encrypter *jwtx.Encrypter, decrypter *jwtx.Decrypter) {
	tokenService := &service.TokenService{
		Signer:           app.signer,
		Store:            app.db,
		Issuer:           app.cfg.Issuer,
		Audience:         []string{app.cfg.Audience},
		Policy:           app.cfg.Policy(),
		Encrypter:        encrypter,
		ExternalAudience: app.cfg.ExternalAudience,
		TransferTokenTTL: app.cfg.TransferTokenTTL,
	}

	validationService := &service.ValidationService{
		Verifier:         app.verifier,
		Store:            app.db,
		Decrypter:        decrypter,
		ExternalAudience: app.cfg.ExternalAudience,
	}

	app.profileService = &service.ProfileService{Store: app.db}

	app.authService = &service.AuthService{
		Users:      &service.UserService{Store: app.db},
		Profiles:   app.profileService,
		Tokens:     tokenService,
		Validation: validationService,
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.ProfileService = app.profileService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
