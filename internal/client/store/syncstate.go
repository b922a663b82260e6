package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

// Pull cursors live in the sync_state key-value table, one row per kind,
// so they survive restarts independently of the data rows.

func cursorKey(kind models.Kind) string {
	return "cursor:" + string(kind)
}

func (s *SQLite) Cursor(ctx context.Context, kind models.Kind) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_state WHERE key = ?`, cursorKey(kind),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		// Never pulled: the zero cursor makes the first pull fetch everything.
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read cursor[%s]: %w", kind, err)
	}
	t, err := parseDBTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("read cursor[%s]: %w", kind, err)
	}
	return t, nil
}

func (s *SQLite) SetCursor(ctx context.Context, kind models.Kind, cursor time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, cursorKey(kind), fmtTime(cursor))
	if err != nil {
		return fmt.Errorf("set cursor[%s]: %w", kind, err)
	}
	return nil
}

// Setting returns an arbitrary engine setting, or "" when absent. The session
// store keeps the auth token here.
func (s *SQLite) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLite) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting[%s]: %w", key, err)
	}
	return nil
}
