// Package docstore is the server-side document store: schemaless JSON
// documents addressed by (user, kind, id), with the changed-since and
// idempotent-write semantics the sync protocol needs.
package docstore

import (
	"context"
	"fmt"
	"time"
)

// Store persists sync documents per user and kind.
type Store interface {
	// Upsert writes a document keyed by its "id" field. Writing the same
	// document twice is a no-op, which makes client retries safe.
	Upsert(ctx context.Context, userID, kind string, doc map[string]any) error

	// ChangedSince returns up to limit documents with updatedAt strictly
	// after since, ordered by updatedAt ascending. Tombstones are included
	// so deletions propagate.
	ChangedSince(ctx context.Context, userID, kind string, since time.Time, limit int) ([]map[string]any, error)

	// Delete marks the document deleted and bumps its updatedAt, so other
	// devices pull the tombstone. Returns common.ErrNotFound when absent.
	Delete(ctx context.Context, userID, kind, id string, now time.Time) error

	// PurgeTombstones physically removes deleted documents older than the
	// cutoff, across all users and kinds.
	PurgeTombstones(ctx context.Context, olderThan time.Time) (int64, error)
}

// docID extracts the required "id" field.
func docID(doc map[string]any) (string, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		return "", fmt.Errorf("document has no id")
	}
	return id, nil
}

// docUpdatedAt extracts the document's updatedAt; absent or unparseable
// values fall back to now, so a sloppy client cannot wedge the store.
func docUpdatedAt(doc map[string]any, now time.Time) time.Time {
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
	return now.UTC()
}

func docDeleted(doc map[string]any) bool {
	b, _ := doc["isDeleted"].(bool)
	return b
}
