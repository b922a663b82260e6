package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

// KindCounts summarizes one entity kind's share of a sync cycle.
type KindCounts struct {
	Pulled    int // remote changes applied locally
	Pushed    int // local changes confirmed remotely
	Conflicts int // rows resolved by last-write-wins
	Deferred  int // documents parked for a missing parent
	Failed    int // rows skipped this cycle (decode or per-document write failure)
}

func (c KindCounts) empty() bool {
	return c == KindCounts{}
}

// SyncResult is the single outcome callers see. No raw internal error is
// surfaced; Message is a one-line human summary.
type SyncResult struct {
	Success  bool
	Message  string
	Started  time.Time
	Finished time.Time
	Counts   map[models.Kind]KindCounts
}

// Summary renders per-kind counts for display, skipping idle kinds.
func (r *SyncResult) Summary() string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, kind := range models.SyncOrder() {
		c, ok := r.Counts[kind]
		if !ok || c.empty() {
			continue
		}
		fmt.Fprintf(&b, "; %s: %d pulled, %d pushed", kind, c.Pulled, c.Pushed)
		if c.Conflicts > 0 {
			fmt.Fprintf(&b, ", %d conflicts", c.Conflicts)
		}
		if c.Deferred > 0 {
			fmt.Fprintf(&b, ", %d deferred", c.Deferred)
		}
		if c.Failed > 0 {
			fmt.Fprintf(&b, ", %d failed", c.Failed)
		}
	}
	return b.String()
}
