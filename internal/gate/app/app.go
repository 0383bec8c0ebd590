package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/codegate/internal/gate/codec"
	httpapi "github.com/aussiebroadwan/codegate/internal/gate/http"
	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
	"github.com/aussiebroadwan/codegate/internal/gate/service"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/internal/gate/store/drivers/sqlite"
	"github.com/aussiebroadwan/codegate/pkg/cryptox"
	"github.com/aussiebroadwan/codegate/pkg/jwtx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gate service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	codec   *codec.Codec
	channel *protocol.Channel
	signer  jwtx.Signer

	// Services
	authorizeService    *service.AuthorizeService
	tokenService        *service.TokenService
	clientService       *service.ClientService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "codegate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initChannel(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gate service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down gate service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gate service stopped")
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := sqlite.Open(app.cfg.DatabaseFile)
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

// initChannel loads the channel key, builds the codec and registers the code
// issuer and redeemer on the protocol channel.
func (app *Application) initChannel() error {
	keyMaterial, err := cryptox.LoadOrGenerateKey(app.cfg.ChannelKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load channel key: %w", err)
	}

	c, err := codec.New(keyMaterial)
	if err != nil {
		return fmt.Errorf("failed to initialize codec: %w", err)
	}
	app.codec = c

	signer, err := jwtx.GenerateEdDSASigner("codegate-" + BuildVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	app.channel = protocol.NewChannel()
	app.channel.RegisterOutbound(service.NewCodeIssuer(app.codec))
	app.channel.RegisterInbound(service.NewCodeRedeemer(app.codec, app.db, app.cfg.MaxMessageAge))

	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.authorizeService = service.NewAuthorizeService(app.db, app.channel)
	app.tokenService = service.NewTokenService(app.channel, app.signer, app.cfg.Issuer, app.cfg.AccessTokenTTL)
	app.clientService = service.NewClientService(app.db)
	app.housekeepingService = service.NewHousekeepingService(
		app.db, app.logger, app.cfg.HousekeepingInterval, app.cfg.MaxMessageAge)

	if app.cfg.AdminToken == "" {
		app.logger.Warn("no admin token configured, client registry API is disabled")
	}
}

// initHTTP wires the router and the HTTP server.
func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(BuildVersion, app.cfg.AdminToken, app.db, app.logger)
	app.router.AuthorizeService = app.authorizeService
	app.router.TokenService = app.tokenService
	app.router.ClientService = app.clientService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
