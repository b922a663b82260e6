// Package sync implements the reconciliation engine: the per-kind
// pull/push/resolve pipeline and the orchestrator that schedules it.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/codec"
	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/client/remote"
	"github.com/dmitrijs2005/billfold/internal/client/store"
	"github.com/dmitrijs2005/billfold/internal/common"
	"github.com/dmitrijs2005/billfold/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Config tunes the reconciler. Zero values are replaced by DefaultConfig.
type Config struct {
	PageSize           int           // pull page size
	BatchSize          int           // push batch size
	DeferredMaxAge     time.Duration // age after which a parked document becomes a data-integrity warning
	TombstoneRetention time.Duration // window before physical purge of propagated tombstones
	BackoffBase        time.Duration // first retry delay for transient push failures
	BackoffCap         time.Duration
	MaxWriteRetries    uint64
}

func DefaultConfig() Config {
	return Config{
		PageSize:           200,
		BatchSize:          100,
		DeferredMaxAge:     24 * time.Hour,
		TombstoneRetention: 30 * 24 * time.Hour,
		BackoffBase:        500 * time.Millisecond,
		BackoffCap:         10 * time.Second,
		MaxWriteRetries:    3,
	}
}

// Reconciler runs one sync cycle: for every kind, in dependency order,
// pull remote changes, push local dirty rows, retry parked documents.
type Reconciler struct {
	store  store.Store
	remote remote.Remote
	codec  *codec.Codec
	log    logging.Logger
	cfg    Config
	now    func() time.Time
}

func NewReconciler(st store.Store, rm remote.Remote, cd *codec.Codec, log logging.Logger, cfg Config) *Reconciler {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.DeferredMaxAge <= 0 {
		cfg.DeferredMaxAge = def.DeferredMaxAge
	}
	if cfg.TombstoneRetention <= 0 {
		cfg.TombstoneRetention = def.TombstoneRetention
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = def.BackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = def.BackoffCap
	}
	if cfg.MaxWriteRetries == 0 {
		cfg.MaxWriteRetries = def.MaxWriteRetries
	}
	return &Reconciler{store: st, remote: rm, codec: cd, log: log, cfg: cfg, now: time.Now}
}

// Cycle runs one full sync cycle. A cycle-level failure (typically total
// remote unavailability) aborts the remaining phases but leaves every dirty
// flag and the pre-failure cursors intact for the next attempt.
func (r *Reconciler) Cycle(ctx context.Context) *SyncResult {
	res := &SyncResult{
		Started: r.now().UTC(),
		Counts:  make(map[models.Kind]KindCounts, len(models.SyncOrder())),
	}

	for _, kind := range models.SyncOrder() {
		counts, err := r.syncKind(ctx, kind)
		res.Counts[kind] = counts
		if err != nil {
			r.log.Warn(ctx, "sync cycle aborted", "kind", kind, "err", err)
			res.Success = false
			res.Message = cycleMessage(err)
			res.Finished = r.now().UTC()
			return res
		}
	}

	r.purgeTombstones(ctx)

	res.Success = true
	res.Message = "sync completed"
	res.Finished = r.now().UTC()
	return res
}

func (r *Reconciler) syncKind(ctx context.Context, kind models.Kind) (KindCounts, error) {
	var c KindCounts
	if err := r.pull(ctx, kind, &c); err != nil {
		return c, err
	}
	if err := r.push(ctx, kind, &c); err != nil {
		return c, err
	}
	if err := r.resolveDeferred(ctx, kind, &c); err != nil {
		return c, err
	}
	return c, nil
}

// --- pull phase ---

func (r *Reconciler) pull(ctx context.Context, kind models.Kind, c *KindCounts) error {
	cursor, err := r.store.Cursor(ctx, kind)
	if err != nil {
		return err
	}

	for {
		docs, err := r.remote.FetchChangedSince(ctx, kind, cursor, r.cfg.PageSize)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}

		pageCursor := cursor
		for _, doc := range docs {
			ts, err := r.applyRemote(ctx, kind, doc, c)
			if err != nil {
				// Abort with the pre-page cursor so the whole page is
				// re-pulled; nothing applied so far is lost, the upsert is
				// idempotent.
				return err
			}
			if ts.After(pageCursor) {
				pageCursor = ts
			}
		}

		// The cursor advances only after the page has been applied, so a
		// failure mid-page re-pulls the page instead of skipping documents.
		if !pageCursor.After(cursor) {
			// Nothing on the page carried a usable timestamp; stop rather
			// than refetch the same page forever.
			return nil
		}
		cursor = pageCursor
		if err := r.store.SetCursor(ctx, kind, cursor); err != nil {
			return err
		}

		if len(docs) < r.cfg.PageSize {
			return nil
		}
	}
}

// applyRemote merges one pulled document and returns its updatedAt for
// cursor advancement. A local store failure aborts the kind: the cursor
// must never move past a document that was not durably applied. Only
// undecodable documents (unapplyable by construction) and documents parked
// in the deferred queue may advance the cursor without a row write.
func (r *Reconciler) applyRemote(ctx context.Context, kind models.Kind, doc map[string]any, c *KindCounts) (time.Time, error) {
	rec, err := r.codec.Decode(ctx, kind, doc)
	if err != nil {
		c.Failed++
		r.log.Error(ctx, "skipping undecodable document", "kind", kind, "err", err)
		return docUpdatedAt(doc), nil
	}
	m := rec.Envelope()

	local, err := r.store.GetByRemoteID(ctx, kind, m.RemoteID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		// Materialize a record this device has never seen.
	case err != nil:
		return time.Time{}, fmt.Errorf("local lookup %s %s: %w", kind, m.RemoteID, err)
	default:
		lm := local.Envelope()
		if !lm.IsSynced {
			// Both sides changed: strictly later updatedAt wins, the remote
			// copy wins exact ties (it is the last durably agreed value).
			c.Conflicts++
			if lm.UpdatedAt.After(m.UpdatedAt) {
				r.log.Info(ctx, "conflict: local wins", "kind", kind, "id", m.RemoteID)
				return m.UpdatedAt, nil
			}
			r.log.Info(ctx, "conflict: remote wins, local change discarded",
				"kind", kind, "id", m.RemoteID)
		} else if !m.UpdatedAt.After(lm.UpdatedAt) {
			// Echo of our own push or a stale page; no write needed.
			return m.UpdatedAt, nil
		}
	}

	if err := r.store.Upsert(ctx, rec); err != nil {
		if errors.Is(err, common.ErrUnresolvedDependency) {
			if derr := r.store.Defer(ctx, kind, m.RemoteID, doc, r.now()); derr != nil {
				return time.Time{}, fmt.Errorf("parking %s %s: %w", kind, m.RemoteID, derr)
			}
			c.Deferred++
			r.log.Debug(ctx, "document deferred until parent materializes",
				"kind", kind, "id", m.RemoteID)
			return m.UpdatedAt, nil
		}
		return time.Time{}, fmt.Errorf("applying %s %s: %w", kind, m.RemoteID, err)
	}

	c.Pulled++
	return m.UpdatedAt, nil
}

// --- push phase ---

func (r *Reconciler) push(ctx context.Context, kind models.Kind, c *KindCounts) error {
	dirty, err := r.store.GetDirty(ctx, kind)
	if err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil
	}

	var ready []models.Record
	for _, rec := range dirty {
		ok, err := r.parentsResolved(ctx, rec)
		if err != nil {
			return err
		}
		if !ok {
			// Retains dirty status; retried next cycle once the parent lands.
			c.Deferred++
			continue
		}
		ready = append(ready, rec)
	}

	for start := 0; start < len(ready); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(ready))
		if err := r.pushBatch(ctx, kind, ready[start:end], c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) pushBatch(ctx context.Context, kind models.Kind, batch []models.Record, c *KindCounts) error {
	docs := make([]map[string]any, len(batch))
	for i, rec := range batch {
		docs[i] = r.codec.Encode(rec)
	}

	outcomes, err := r.batchWriteWithRetry(ctx, kind, docs)
	if err != nil {
		return err
	}

	for i, out := range outcomes {
		m := batch[i].Envelope()
		if !out.OK {
			// One failing row never blocks the rest of the batch.
			c.Failed++
			r.log.Warn(ctx, "document rejected by remote store",
				"kind", kind, "id", m.RemoteID, "reason", out.Failed)
			continue
		}

		if m.IsDeleted {
			if err := r.remote.Delete(ctx, kind, m.RemoteID); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					// Already gone remotely; the tombstone has propagated.
				} else {
					return err
				}
			}
		}

		cleared, err := r.store.MarkSynced(ctx, kind, m.RemoteID, m.UpdatedAt)
		if err != nil {
			return err
		}
		if !cleared {
			// Edited between the push read and the confirmation: the newer
			// local version stays dirty and goes out next cycle.
			r.log.Debug(ctx, "row changed mid-cycle, kept dirty", "kind", kind, "id", m.RemoteID)
			continue
		}
		c.Pushed++
	}
	return nil
}

// batchWriteWithRetry retries transient batch failures with capped
// exponential backoff before giving up on the cycle.
func (r *Reconciler) batchWriteWithRetry(ctx context.Context, kind models.Kind, docs []map[string]any) ([]remote.WriteOutcome, error) {
	backoff := retry.WithCappedDuration(r.cfg.BackoffCap, retry.NewExponential(r.cfg.BackoffBase))
	backoff = retry.WithMaxRetries(r.cfg.MaxWriteRetries, backoff)

	var outcomes []remote.WriteOutcome
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		// Safe to replay in full: the write is idempotent per document.
		outcomes, err = r.remote.BatchWrite(ctx, kind, docs)
		if errors.Is(err, common.ErrTransientNetwork) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (r *Reconciler) parentsResolved(ctx context.Context, rec models.Record) (bool, error) {
	for _, ref := range models.Parents(rec.Kind()) {
		if !ref.Required {
			continue
		}
		rid := ref.RemoteID(rec)
		if rid == "" {
			return false, nil
		}
		_, err := r.store.ResolveForeignKey(ctx, ref.Kind, rid)
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// --- resolve-deferred phase ---

func (r *Reconciler) resolveDeferred(ctx context.Context, kind models.Kind, c *KindCounts) error {
	parked, err := r.store.Deferred(ctx, kind)
	if err != nil {
		return err
	}

	for _, d := range parked {
		rec, err := r.codec.Decode(ctx, kind, d.Doc)
		if err != nil {
			// A parked payload that no longer decodes will never succeed.
			c.Failed++
			r.log.Error(ctx, "dropping undecodable parked document",
				"kind", kind, "id", d.RemoteID, "err", err)
			if err := r.store.RemoveDeferred(ctx, kind, d.RemoteID); err != nil {
				return err
			}
			continue
		}

		err = r.store.Upsert(ctx, rec)
		switch {
		case err == nil:
			if err := r.store.RemoveDeferred(ctx, kind, d.RemoteID); err != nil {
				return err
			}
			c.Pulled++
		case errors.Is(err, common.ErrUnresolvedDependency):
			c.Deferred++
			if !d.Warned && r.now().Sub(d.FirstSeen) > r.cfg.DeferredMaxAge {
				r.log.Warn(ctx, "data-integrity: document deferred past max retry age",
					"kind", kind, "id", d.RemoteID,
					"first_seen", d.FirstSeen, "attempts", d.Attempts)
				if err := r.store.MarkDeferredWarned(ctx, kind, d.RemoteID); err != nil {
					return err
				}
			}
		default:
			c.Failed++
			r.log.Error(ctx, "retrying parked document failed", "kind", kind, "id", d.RemoteID, "err", err)
		}
	}
	return nil
}

// --- housekeeping ---

func (r *Reconciler) purgeTombstones(ctx context.Context) {
	cutoff := r.now().Add(-r.cfg.TombstoneRetention)
	for _, kind := range models.SyncOrder() {
		n, err := r.store.PurgeTombstones(ctx, kind, cutoff)
		if err != nil {
			r.log.Warn(ctx, "tombstone purge failed", "kind", kind, "err", err)
			continue
		}
		if n > 0 {
			r.log.Info(ctx, "purged tombstones", "kind", kind, "count", n)
		}
	}
}

func cycleMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrAuthenticationRequired):
		return "authentication required"
	case errors.Is(err, common.ErrTransientNetwork):
		return "sync failed: server unreachable, will retry"
	default:
		return "sync failed"
	}
}

// docUpdatedAt extracts a best-effort updatedAt from a raw document so the
// cursor can move past rows that failed to decode.
func docUpdatedAt(doc map[string]any) time.Time {
	switch v := doc["updatedAt"].(type) {
	case string:
		for _, f := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(f, v); err == nil {
				return t.UTC()
			}
		}
	case float64:
		if v > 1e12 {
			return time.UnixMilli(int64(v)).UTC()
		}
		return time.Unix(int64(v), 0).UTC()
	case time.Time:
		return v.UTC()
	}
	return time.Time{}
}
