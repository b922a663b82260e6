// Package store is the local store adapter: CRUD and sync queries for the
// embedded sqlite database. It uses row-level upserts, never database-wide
// locks, so business reads and writes proceed concurrently with a sync cycle.
package store

import (
	"context"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

// Records describes per-record operations shared by business CRUD and the
// sync engine.
type Records interface {
	// Upsert writes a record keyed by RemoteID: an existing row is updated in
	// place (its surrogate id preserved), otherwise a new row is inserted.
	// Required parent references are resolved to local surrogate keys first;
	// a missing parent yields common.ErrUnresolvedDependency and no write.
	Upsert(ctx context.Context, rec models.Record) error

	// MarkDeleted soft-deletes the row: is_deleted=1, is_synced=0 and a fresh
	// updated_at, so the tombstone is pushed on the next cycle.
	MarkDeleted(ctx context.Context, kind models.Kind, remoteID string, now time.Time) error

	// GetDirty returns rows with is_synced=0, tombstones included.
	GetDirty(ctx context.Context, kind models.Kind) ([]models.Record, error)

	// GetByRemoteID returns the row or common.ErrNotFound.
	GetByRemoteID(ctx context.Context, kind models.Kind, remoteID string) (models.Record, error)

	// ResolveForeignKey maps a RemoteID to the local surrogate key, tombstones
	// included (a deleted parent still resolves until it is purged).
	ResolveForeignKey(ctx context.Context, kind models.Kind, remoteID string) (int64, error)

	// ListActive is the business query: all rows except tombstones.
	ListActive(ctx context.Context, kind models.Kind) ([]models.Record, error)

	// MarkSynced sets is_synced=1 only if updated_at still equals readUpdatedAt,
	// and reports whether the flag was cleared. A row mutated between the push
	// read and the write confirmation stays dirty.
	MarkSynced(ctx context.Context, kind models.Kind, remoteID string, readUpdatedAt time.Time) (bool, error)

	// PurgeTombstones physically removes synced tombstones older than the
	// retention cutoff and returns the number of purged rows.
	PurgeTombstones(ctx context.Context, kind models.Kind, olderThan time.Time) (int64, error)
}

// SyncState persists per-kind pull cursors across restarts.
type SyncState interface {
	Cursor(ctx context.Context, kind models.Kind) (time.Time, error)
	SetCursor(ctx context.Context, kind models.Kind, cursor time.Time) error
}

// DeferredDoc is a pulled document parked until its parent materializes.
type DeferredDoc struct {
	Kind      models.Kind
	RemoteID  string
	Doc       map[string]any
	FirstSeen time.Time
	Attempts  int
	Warned    bool
}

// DeferredQueue holds documents rejected with ErrUnresolvedDependency.
type DeferredQueue interface {
	Defer(ctx context.Context, kind models.Kind, remoteID string, doc map[string]any, now time.Time) error
	Deferred(ctx context.Context, kind models.Kind) ([]DeferredDoc, error)
	RemoveDeferred(ctx context.Context, kind models.Kind, remoteID string) error
	// MarkDeferredWarned records that the max-retry-age warning for this
	// document has been surfaced, so it is logged once.
	MarkDeferredWarned(ctx context.Context, kind models.Kind, remoteID string) error
}

// Store is the full local store adapter consumed by the sync engine.
type Store interface {
	Records
	SyncState
	DeferredQueue
}
