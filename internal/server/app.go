// Package server wires the clubhouse server together: configuration,
// logging, the database, blob storage, domain services, the realtime hub
// and the web server. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/filex"
	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/realtime"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/dmitrijs2005/clubhouse/internal/server/storage"
	"github.com/dmitrijs2005/clubhouse/internal/server/web"
	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	hub       *realtime.Hub
	invites   *services.InviteService
	limiter   *web.IPRateLimiter
	web       *web.Server
}

// OpenDatabase connects to the configured database and applies pending
// migrations.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	db, dialect, err := dbx.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return db, rm, nil
}

// NewBlobStore returns the store selected by c.StorageBackend.
func NewBlobStore(ctx context.Context, c *config.Config) (storage.Store, error) {
	switch c.StorageBackend {
	case config.StorageLocal, "":
		dir, err := filex.EnsureSubdDir(c.UploadDir)
		if err != nil {
			return nil, err
		}
		return storage.NewLocalStore(afero.NewOsFs(), dir)
	case config.StorageS3:
		return storage.NewS3Store(ctx, storage.S3Settings{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser := logging.New(logging.Options{Format: c.LogFormat, File: c.LogFile, Debug: c.Debug})

	db, rm, err := OpenDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := NewBlobStore(ctx, c)
	if err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	hub := realtime.NewHub(logger.With("module", "realtime"))
	chat := services.NewChatService(db, rm, hub, c, logger.With("module", "chat"))

	svc := web.Services{
		Users:    services.NewUserService(db, rm, c),
		Invites:  services.NewInviteService(db, rm),
		Chat:     chat,
		Forum:    services.NewForumService(db, rm),
		Files:    services.NewFileService(db, rm, store, logger.With("module", "files")),
		Calendar: services.NewCalendarService(db, rm),
		Habits:   services.NewHabitService(db, rm),
		Polls:    services.NewPollService(db, rm),
	}

	limiter := web.NewIPRateLimiter(c.LoginRateLimit)
	ws, err := web.NewServer(c, svc, realtime.NewHandler(hub, chat, logger.With("module", "websocket")), limiter, logger)
	if err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("web init error: %w", err)
	}

	return &App{
		config:    c,
		logger:    logger,
		logCloser: logCloser,
		db:        db,
		hub:       hub,
		invites:   svc.Invites,
		limiter:   limiter,
		web:       ws,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or the web server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend, "bootstrap", app.config.AdminBootstrap)

	app.initSignalHandler(cancelFunc)

	created, err := app.invites.EnsureInitial(ctx, app.config.InitialInviteCode)
	if err != nil {
		return fmt.Errorf("initial invite: %w", err)
	}
	if created {
		app.logger.Info(ctx, "Created initial invite code", "code", app.config.InitialInviteCode)
	}

	var runErr error
	var wg conc.WaitGroup

	wg.Go(func() {
		if err := app.web.Run(ctx); err != nil {
			app.logger.Error(ctx, "web server", "error", err)
			runErr = err
			cancelFunc()
		}
	})

	wg.Go(func() {
		app.limiter.Run(ctx)
	})

	wg.Go(func() {
		<-ctx.Done()
		app.hub.Close()
	})

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return runErr
}

func (app *App) close() {
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	_ = app.logCloser.Close()
}
