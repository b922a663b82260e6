package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

func (s *SQLite) Defer(ctx context.Context, kind models.Kind, remoteID string, doc map[string]any, now time.Time) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("defer %s/%s: %w", kind, remoteID, err)
	}
	// Re-parking the same document keeps first_seen so max-retry-age is
	// measured from the first failure, not the latest retry.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_deferred (kind, remote_id, payload, first_seen, attempts)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(kind, remote_id) DO UPDATE SET
			payload = excluded.payload,
			attempts = attempts + 1
	`, string(kind), remoteID, string(payload), fmtTime(now))
	if err != nil {
		return fmt.Errorf("defer %s/%s: %w", kind, remoteID, err)
	}
	return nil
}

func (s *SQLite) Deferred(ctx context.Context, kind models.Kind) ([]DeferredDoc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remote_id, payload, first_seen, attempts, warned
		FROM sync_deferred WHERE kind = ? ORDER BY first_seen
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list deferred[%s]: %w", kind, err)
	}
	defer rows.Close()

	var result []DeferredDoc
	for rows.Next() {
		d := DeferredDoc{Kind: kind}
		var payload, firstSeen string
		var warned int
		if err := rows.Scan(&d.RemoteID, &payload, &firstSeen, &d.Attempts, &warned); err != nil {
			return nil, fmt.Errorf("scan deferred[%s]: %w", kind, err)
		}
		if err := json.Unmarshal([]byte(payload), &d.Doc); err != nil {
			return nil, fmt.Errorf("decode deferred[%s/%s]: %w", kind, d.RemoteID, err)
		}
		t, err := parseDBTime(firstSeen)
		if err != nil {
			return nil, err
		}
		d.FirstSeen = t
		d.Warned = warned == 1
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *SQLite) RemoveDeferred(ctx context.Context, kind models.Kind, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_deferred WHERE kind = ? AND remote_id = ?`, string(kind), remoteID)
	if err != nil {
		return fmt.Errorf("remove deferred %s/%s: %w", kind, remoteID, err)
	}
	return nil
}

func (s *SQLite) MarkDeferredWarned(ctx context.Context, kind models.Kind, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_deferred SET warned = 1 WHERE kind = ? AND remote_id = ?`, string(kind), remoteID)
	if err != nil {
		return fmt.Errorf("mark deferred warned %s/%s: %w", kind, remoteID, err)
	}
	return nil
}
