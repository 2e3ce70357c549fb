// Package server initializes and runs the Enraizado API: it opens the
// database, optionally migrates it, wires services into the HTTP server and
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/enraizado/internal/logging"
	"github.com/dmitrijs2005/enraizado/internal/server/api"
	"github.com/dmitrijs2005/enraizado/internal/server/config"
	"github.com/dmitrijs2005/enraizado/internal/server/metrics"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	services *Services
	server   *api.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.MigrateOnStart {
		logger.Info(ctx, "Running migrations...")
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	svc := NewServices(db, rm, c, NewMailSender(c))

	srv := api.NewServer(api.Options{
		Addr:          c.HTTPAddr,
		SecureCookies: c.IsProduction(),
	}, api.Deps{
		Logger:      logger,
		Metrics:     metrics.New(),
		DB:          db,
		Users:       svc.Users,
		Activations: svc.Activations,
		Sessions:    svc.Sessions,
		Auth:        svc.Auth,
		Guests:      svc.Guests,
	})

	return &App{config: c, logger: logger, db: db, services: svc, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)
	app.initSignalHandler(cancelFunc)

	if first, err := app.services.Activations.IsFirstActivation(ctx); err != nil {
		app.logger.Warn(ctx, "Could not check activations", "error", err.Error())
	} else if first {
		app.logger.Info(ctx, "No account has been activated yet")
	}

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err.Error())
		return err
	}
	app.logger.Info(ctx, "Stopped")
	return nil
}
