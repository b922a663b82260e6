package sync

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCycler blocks each cycle until released, to let tests observe the
// running state and join semantics.
type fakeCycler struct {
	calls   atomic.Int64
	release chan struct{}
	panicMsg string
}

func newFakeCycler() *fakeCycler {
	return &fakeCycler{release: make(chan struct{}, 16)}
}

func (f *fakeCycler) Cycle(ctx context.Context) *SyncResult {
	f.calls.Add(1)
	<-f.release
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	now := time.Now().UTC()
	return &SyncResult{
		Success: true, Message: "sync completed",
		Started: now, Finished: now,
		Counts: map[models.Kind]KindCounts{},
	}
}

func waitForState(t *testing.T, o *Orchestrator, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("orchestrator never reached state %q (now %q)", want, o.State())
}

func TestOrchestrator_ConcurrentTriggersJoinOneCycle(t *testing.T) {
	fc := newFakeCycler()
	o := NewOrchestrator(fc, nil, logging.Nop(), time.Hour)

	results := make([]*SyncResult, 3)
	var wg stdsync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.SyncNow(context.Background())
		}()
	}

	waitForState(t, o, StateRunning)
	// Every trigger joined the in-flight cycle; one release finishes them all.
	fc.release <- struct{}{}
	wg.Wait()

	assert.Equal(t, int64(1), fc.calls.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Same(t, results[0], res)
		assert.True(t, res.Success)
	}
	waitForState(t, o, StateIdle)
	assert.Same(t, results[0], o.Last())
}

func TestOrchestrator_SequentialTriggersRunSeparateCycles(t *testing.T) {
	fc := newFakeCycler()
	fc.release <- struct{}{}
	fc.release <- struct{}{}
	o := NewOrchestrator(fc, nil, logging.Nop(), time.Hour)

	first := o.SyncNow(context.Background())
	second := o.SyncNow(context.Background())

	assert.Equal(t, int64(2), fc.calls.Load())
	assert.NotSame(t, first, second)
	assert.Same(t, second, o.Last())
}

func TestOrchestrator_RequiresAuthentication(t *testing.T) {
	fc := newFakeCycler()
	o := NewOrchestrator(fc, func(context.Context) bool { return false }, logging.Nop(), time.Hour)

	res := o.SyncNow(context.Background())

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, "not authenticated", res.Message)
	assert.Equal(t, int64(0), fc.calls.Load(), "cycle must not start unauthenticated")
	waitForState(t, o, StateIdle)
}

func TestOrchestrator_RecoversFromPanicAndReleasesWaiters(t *testing.T) {
	fc := newFakeCycler()
	fc.panicMsg = "boom"
	fc.release <- struct{}{}
	o := NewOrchestrator(fc, nil, logging.Nop(), time.Hour)

	res := o.SyncNow(context.Background())
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "boom")
	waitForState(t, o, StateIdle)

	// The orchestrator is not wedged: the next trigger runs a fresh cycle.
	fc.panicMsg = ""
	fc.release <- struct{}{}
	res = o.SyncNow(context.Background())
	assert.True(t, res.Success)
}

func TestOrchestrator_SyncNowHonorsCallerCancellation(t *testing.T) {
	fc := newFakeCycler()
	o := NewOrchestrator(fc, nil, logging.Nop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *SyncResult, 1)
	go func() { done <- o.SyncNow(ctx) }()

	waitForState(t, o, StateRunning)
	cancel()

	res := <-done
	require.NotNil(t, res)
	assert.False(t, res.Success)

	// The cycle itself keeps running to completion.
	fc.release <- struct{}{}
	waitForState(t, o, StateIdle)
	require.NotNil(t, o.Last())
	assert.True(t, o.Last().Success)
}

func TestOrchestrator_ReturnsToIdleAfterCycle(t *testing.T) {
	fc := newFakeCycler()
	fc.release <- struct{}{}
	o := NewOrchestrator(fc, nil, logging.Nop(), time.Hour)

	assert.Equal(t, StateIdle, o.State())

	res := o.SyncNow(context.Background())
	require.True(t, res.Success)

	// The outcome lives in Last; the machine rests at idle between cycles.
	waitForState(t, o, StateIdle)
	assert.Same(t, res, o.Last())
}

func TestOrchestrator_PeriodicRun(t *testing.T) {
	fc := newFakeCycler()
	for i := 0; i < 16; i++ {
		fc.release <- struct{}{}
	}
	o := NewOrchestrator(fc, nil, logging.Nop(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go o.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for fc.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	assert.GreaterOrEqual(t, fc.calls.Load(), int64(2))
}

func TestSyncResultSummary(t *testing.T) {
	res := &SyncResult{
		Success: true,
		Message: "sync completed",
		Counts: map[models.Kind]KindCounts{
			models.KindClient: {Pulled: 2, Pushed: 1},
			models.KindBill:   {},
		},
	}
	s := res.Summary()
	assert.Contains(t, s, "sync completed")
	assert.Contains(t, s, string(models.KindClient))
	assert.NotContains(t, s, string(models.KindBill), "quiescent kinds are omitted")
}
