package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/logging"
)

// State is the orchestrator lifecycle state, for status display.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Cycler runs one sync cycle. Satisfied by *Reconciler.
type Cycler interface {
	Cycle(ctx context.Context) *SyncResult
}

// Orchestrator serializes sync cycles: at most one runs at a time, and a
// trigger arriving while a cycle is in flight joins that cycle instead of
// queueing another. Cycles start from a periodic ticker, an explicit
// SyncNow, or a connectivity-regained notification.
type Orchestrator struct {
	cycler        Cycler
	authenticated func(ctx context.Context) bool
	log           logging.Logger
	interval      time.Duration

	mu      stdsync.Mutex
	baseCtx context.Context
	state   State
	last    *SyncResult
	waiters []chan *SyncResult
}

func NewOrchestrator(cycler Cycler, authenticated func(ctx context.Context) bool, log logging.Logger, interval time.Duration) *Orchestrator {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Orchestrator{
		cycler:        cycler,
		authenticated: authenticated,
		log:           log,
		interval:      interval,
		baseCtx:       context.Background(),
		state:         StateIdle,
	}
}

// Run drives the periodic trigger until ctx is canceled. Cycles started by
// Run, SyncNow and TriggerAsync all share ctx as their base context.
func (o *Orchestrator) Run(ctx context.Context) {
	o.mu.Lock()
	o.baseCtx = ctx
	o.mu.Unlock()

	t := time.NewTicker(o.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			o.trigger()
		}
	}
}

// SyncNow triggers a cycle and blocks until it finishes. If a cycle is
// already running, it joins that cycle and returns its result.
func (o *Orchestrator) SyncNow(ctx context.Context) *SyncResult {
	ch := o.trigger()
	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		now := time.Now().UTC()
		return &SyncResult{
			Success: false, Message: "sync wait canceled",
			Started: now, Finished: now,
			Counts: map[models.Kind]KindCounts{},
		}
	}
}

// TriggerAsync triggers a cycle without waiting for its result. Used by the
// connectivity watcher when the server becomes reachable again.
func (o *Orchestrator) TriggerAsync() {
	o.trigger()
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Last returns the result of the most recent finished cycle, or nil.
func (o *Orchestrator) Last() *SyncResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *Orchestrator) trigger() <-chan *SyncResult {
	ch := make(chan *SyncResult, 1)
	o.mu.Lock()
	o.waiters = append(o.waiters, ch)
	if o.state == StateRunning {
		o.mu.Unlock()
		return ch
	}
	o.state = StateRunning
	ctx := o.baseCtx
	o.mu.Unlock()

	go o.run(ctx)
	return ch
}

func (o *Orchestrator) run(ctx context.Context) {
	var res *SyncResult
	defer func() {
		if p := recover(); p != nil {
			now := time.Now().UTC()
			res = &SyncResult{
				Success: false, Message: fmt.Sprintf("sync failed: %v", p),
				Started: now, Finished: now,
				Counts: map[models.Kind]KindCounts{},
			}
			o.log.Error(ctx, "sync cycle panicked", "panic", p)
		}
		o.finish(ctx, res)
	}()

	if o.authenticated != nil && !o.authenticated(ctx) {
		now := time.Now().UTC()
		res = &SyncResult{
			Success: false, Message: "not authenticated",
			Started: now, Finished: now,
			Counts: map[models.Kind]KindCounts{},
		}
		return
	}

	res = o.cycler.Cycle(ctx)
}

// finish publishes the result to every trigger that joined the cycle,
// including triggers that arrived while it was running.
func (o *Orchestrator) finish(ctx context.Context, res *SyncResult) {
	o.mu.Lock()
	o.last = res
	if res.Success {
		o.state = StateSucceeded
	} else {
		o.state = StateFailed
	}
	waiters := o.waiters
	o.waiters = nil
	o.mu.Unlock()

	for _, ch := range waiters {
		ch <- res
	}

	if res.Success {
		o.log.Info(ctx, "sync cycle finished", "message", res.Message,
			"duration", res.Finished.Sub(res.Started))
	} else {
		o.log.Warn(ctx, "sync cycle failed", "message", res.Message)
	}

	// Succeeded/Failed are transient: once the outcome has been published
	// the machine rests at Idle, with Last holding the outcome. A trigger
	// may have started a new cycle in the meantime; leave Running alone.
	o.mu.Lock()
	if o.state != StateRunning {
		o.state = StateIdle
	}
	o.mu.Unlock()
}
