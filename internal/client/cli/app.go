package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/billfold/internal/client/codec"
	"github.com/dmitrijs2005/billfold/internal/client/config"
	"github.com/dmitrijs2005/billfold/internal/client/netwatch"
	"github.com/dmitrijs2005/billfold/internal/client/remote"
	"github.com/dmitrijs2005/billfold/internal/client/session"
	"github.com/dmitrijs2005/billfold/internal/client/store"
	"github.com/dmitrijs2005/billfold/internal/client/sync"
	"github.com/dmitrijs2005/billfold/internal/dbx"
	"github.com/dmitrijs2005/billfold/internal/logging"
)

// App wires the local store, the remote API client and the sync engine
// behind the interactive command loop.
type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	store   store.Store
	session *session.Session
	auth    remote.Auth
	orch    *sync.Orchestrator
	watcher *netwatch.Watcher
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	st := store.NewSQLite(db)

	sess, err := session.Load(ctx, st)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}

	api := remote.NewClient(cfg.ServerAddr, func(context.Context) (string, error) {
		return sess.Token(), nil
	})

	rec := sync.NewReconciler(st, api, codec.New(log), log, sync.Config{
		PageSize:           cfg.PullPageSize,
		BatchSize:          cfg.PushBatchSize,
		DeferredMaxAge:     cfg.DeferredMaxAge,
		TombstoneRetention: cfg.TombstoneRetention,
	})
	orch := sync.NewOrchestrator(rec,
		func(context.Context) bool { return sess.Authenticated() },
		log, cfg.SyncInterval)

	// A regained connection drains the offline backlog right away.
	watcher := netwatch.New(api, log, cfg.OnlineCheckInterval, func(online bool) {
		if online {
			orch.TriggerAsync()
		}
	})

	return &App{
		config:  cfg,
		log:     log,
		db:      db,
		store:   st,
		session: sess,
		auth:    api,
		orch:    orch,
		watcher: watcher,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the background workers and blocks in the command loop until
// the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.watcher.Run(ctx)
	go a.orch.Run(ctx)

	fmt.Println("Billfold CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) Close() error {
	return a.db.Close()
}

// inTx runs fn against a transactional store. Commands that touch more than
// one row use it so a partial write never becomes visible to sync.
func (a *App) inTx(ctx context.Context, fn func(ctx context.Context, st store.Store) error) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, store.NewSQLite(tx))
	})
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

func (a *App) status() string {
	mode := "offline"
	if a.watcher.Online() {
		mode = "online"
	}
	if !a.isLoggedIn() {
		return fmt.Sprintf("(%s)", mode)
	}
	return fmt.Sprintf("(%s, %s)", mode, a.orch.State())
}
