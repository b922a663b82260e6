// Package server initializes and runs the sync server: it opens the
// PostgreSQL document store, applies migrations, starts the HTTP API and a
// periodic tombstone purge job, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/billfold/internal/logging"
	"github.com/dmitrijs2005/billfold/internal/server/api"
	"github.com/dmitrijs2005/billfold/internal/server/config"
	"github.com/dmitrijs2005/billfold/internal/server/docstore"
	"github.com/dmitrijs2005/billfold/internal/server/migrations"
	"github.com/dmitrijs2005/billfold/internal/server/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	docs   docstore.Store
	router http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us := users.NewService(users.NewPostgresRepository(db), cfg.SecretKey, cfg.TokenValidityDuration)
	docs := docstore.NewPostgresStore(db)

	h := api.NewHandler(us, docs, logger, cfg.MaxPageSize)
	router := api.NewRouter(h, []byte(cfg.SecretKey))

	return &App{config: cfg, logger: logger, db: db, docs: docs, router: router}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: app.router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "err", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server error", "err", err)
		cancelFunc()
	}
}

// startPurgeJob drops tombstones older than the retention window on a fixed
// interval. Clients that have been offline longer than the window resync
// from scratch rather than replaying deletes.
func (app *App) startPurgeJob(ctx context.Context) {
	ticker := time.NewTicker(app.config.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			olderThan := time.Now().Add(-app.config.TombstoneRetention)
			n, err := app.docs.PurgeTombstones(ctx, olderThan)
			if err != nil {
				app.logger.Error(ctx, "tombstone purge failed", "err", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "tombstones purged", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startPurgeJob(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "err", err)
	}
}
