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

	httpapi "github.com/glimpse-social/glimpse/internal/api/http"
	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/internal/api/store/drivers/sqlite"
	"github.com/glimpse-social/glimpse/pkg/jwtx"
	"github.com/glimpse-social/glimpse/pkg/mediastore"
	"github.com/glimpse-social/glimpse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	media mediastore.Store
	jwt   *jwtx.HS256

	// Services
	tokenService        *service.TokenService
	accountService      *service.AccountService
	profileService      *service.ProfileService
	postService         *service.PostService
	commentService      *service.CommentService
	adminService        *service.AdminService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "glimpse-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	jwt, err := jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signing: %w", err)
	}
	app.jwt = jwt

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initMediaStore(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("glimpse api starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down glimpse api...")

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

	app.logger.Info("glimpse api stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
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

// initMediaStore connects to the media bucket
func (app *Application) initMediaStore() error {
	media, err := mediastore.NewS3Store(context.Background(), mediastore.S3Config{
		Region:         app.cfg.S3Region,
		Bucket:         app.cfg.S3Bucket,
		AccessKey:      app.cfg.S3AccessKey,
		SecretKey:      app.cfg.S3SecretKey,
		Endpoint:       app.cfg.S3Endpoint,
		ForcePathStyle: app.cfg.S3ForcePathStyle,
		PublicBaseURL:  app.cfg.MediaBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize media store: %w", err)
	}
	app.media = media
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Signer:     app.jwt,
		Verifier:   app.jwt,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.accountService = &service.AccountService{
		Store:  app.db,
		Tokens: app.tokenService,
		Media:  app.media,
	}
	app.profileService = &service.ProfileService{Store: app.db}
	app.postService = &service.PostService{Store: app.db, Media: app.media}
	app.commentService = &service.CommentService{Store: app.db}

	batchSize := app.cfg.MediaDeleteBatch
	if batchSize <= 0 || batchSize > mediastore.MaxDeleteBatch {
		batchSize = mediastore.MaxDeleteBatch
	}
	app.adminService = &service.AdminService{
		Store:           app.db,
		Media:           app.media,
		DeleteBatchSize: batchSize,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.jwt,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.AccountService = app.accountService
	router.ProfileService = app.profileService
	router.PostService = app.postService
	router.CommentService = app.commentService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
