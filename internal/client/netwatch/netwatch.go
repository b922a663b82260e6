// Package netwatch tracks server reachability by probing the ping endpoint
// at a fixed interval. Transitions are reported to a callback so the sync
// engine can start a cycle as soon as connectivity returns.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/billfold/internal/logging"
)

// Pinger probes the remote server. Satisfied by *remote.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

const probeTimeout = 3 * time.Second

// Watcher polls the server and keeps the last observed connectivity state.
type Watcher struct {
	pinger   Pinger
	log      logging.Logger
	interval time.Duration
	onChange func(online bool)

	mu     sync.RWMutex
	online bool
}

// New builds a watcher. onChange may be nil; when set it is called on every
// offline/online transition, from the watcher goroutine.
func New(pinger Pinger, log logging.Logger, interval time.Duration, onChange func(online bool)) *Watcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Watcher{pinger: pinger, log: log, interval: interval, onChange: onChange}
}

// Online returns the last observed connectivity state.
func (w *Watcher) Online() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// Run probes once immediately, then on every tick, until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := w.pinger.Ping(pctx)
	cancel()

	online := err == nil

	w.mu.Lock()
	changed := online != w.online
	w.online = online
	w.mu.Unlock()

	if !changed {
		return
	}
	if online {
		w.log.Info(ctx, "server reachable again")
	} else {
		w.log.Warn(ctx, "server unreachable, working offline", "err", err)
	}
	if w.onChange != nil {
		w.onChange(online)
	}
}
