package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/common"
	"github.com/dmitrijs2005/billfold/internal/dbx"
)

// metaCols precede the business columns in every table.
var metaCols = []string{"id", "remote_id", "created_at", "updated_at", "is_synced", "is_deleted"}

// SQLite implements Store over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLite struct {
	db dbx.DBTX
}

func NewSQLite(db dbx.DBTX) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Upsert(ctx context.Context, rec models.Record) error {
	ts, err := specFor(rec.Kind())
	if err != nil {
		return err
	}
	if err := s.resolveParents(ctx, rec); err != nil {
		return err
	}

	m := rec.Envelope()
	if m.RemoteID == "" {
		return fmt.Errorf("upsert %s: empty remote id", rec.Kind())
	}

	cols := append([]string{"remote_id", "created_at", "updated_at", "is_synced", "is_deleted"}, ts.cols...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	// created_at is written once and never overwritten on conflict.
	updates := []string{
		"updated_at = excluded.updated_at",
		"is_synced = excluded.is_synced",
		"is_deleted = excluded.is_deleted",
	}
	for _, c := range ts.cols {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)
		 ON CONFLICT(remote_id) DO UPDATE SET %s`,
		ts.table, strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "),
	)

	args := []any{m.RemoteID, fmtTime(m.CreatedAt), fmtTime(m.UpdatedAt),
		boolToInt(m.IsSynced), boolToInt(m.IsDeleted)}
	args = append(args, ts.args(rec)...)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", ts.table, err)
	}

	// Surface the surrogate key so callers can resolve children immediately.
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE remote_id = ?`, ts.table), m.RemoteID,
	).Scan(&m.LocalID)
	if err != nil {
		return fmt.Errorf("upsert %s: read surrogate key: %w", ts.table, err)
	}
	return nil
}

func (s *SQLite) resolveParents(ctx context.Context, rec models.Record) error {
	for _, ref := range models.Parents(rec.Kind()) {
		rid := ref.RemoteID(rec)
		if rid == "" {
			if ref.Required {
				return fmt.Errorf("%w: %s requires a %s reference",
					common.ErrUnresolvedDependency, rec.Kind(), ref.Kind)
			}
			continue
		}
		localID, err := s.ResolveForeignKey(ctx, ref.Kind, rid)
		if errors.Is(err, common.ErrNotFound) {
			if ref.Required {
				return fmt.Errorf("%w: %s %s references unknown %s %s",
					common.ErrUnresolvedDependency, rec.Kind(), rec.Envelope().RemoteID, ref.Kind, rid)
			}
			continue
		}
		if err != nil {
			return err
		}
		ref.SetLocalID(rec, localID)
	}
	return nil
}

func (s *SQLite) MarkDeleted(ctx context.Context, kind models.Kind, remoteID string, now time.Time) error {
	ts, err := specFor(kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET is_deleted = 1, is_synced = 0, updated_at = ? WHERE remote_id = ?`, ts.table),
		fmtTime(now), remoteID,
	)
	if err != nil {
		return fmt.Errorf("mark deleted %s: %w", ts.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *SQLite) GetDirty(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	return s.selectRecords(ctx, kind, `is_synced = 0`)
}

func (s *SQLite) ListActive(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	return s.selectRecords(ctx, kind, `is_deleted = 0`)
}

func (s *SQLite) GetByRemoteID(ctx context.Context, kind models.Kind, remoteID string) (models.Record, error) {
	recs, err := s.selectRecords(ctx, kind, `remote_id = ?`, remoteID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.ErrNotFound
	}
	return recs[0], nil
}

func (s *SQLite) ResolveForeignKey(ctx context.Context, kind models.Kind, remoteID string) (int64, error) {
	ts, err := specFor(kind)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE remote_id = ?`, ts.table), remoteID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve %s %s: %w", ts.table, remoteID, err)
	}
	return id, nil
}

func (s *SQLite) MarkSynced(ctx context.Context, kind models.Kind, remoteID string, readUpdatedAt time.Time) (bool, error) {
	ts, err := specFor(kind)
	if err != nil {
		return false, err
	}
	// The guard on updated_at keeps a mid-cycle local edit dirty: the flag is
	// cleared only for the exact version that was confirmed remotely.
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET is_synced = 1 WHERE remote_id = ? AND updated_at = ?`, ts.table),
		remoteID, fmtTime(readUpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("mark synced %s: %w", ts.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLite) PurgeTombstones(ctx context.Context, kind models.Kind, olderThan time.Time) (int64, error) {
	ts, err := specFor(kind)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE is_deleted = 1 AND is_synced = 1 AND updated_at < ?`, ts.table),
		fmtTime(olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("purge tombstones %s: %w", ts.table, err)
	}
	return res.RowsAffected()
}

func (s *SQLite) selectRecords(ctx context.Context, kind models.Kind, where string, args ...any) ([]models.Record, error) {
	ts, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s ORDER BY id`,
		strings.Join(metaCols, ", "), strings.Join(ts.cols, ", "), ts.table, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", ts.table, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		rec, bizDest := ts.dest()
		m := rec.Envelope()
		var isSynced, isDeleted int
		dest := append([]any{
			&m.LocalID, &m.RemoteID, timeDest(&m.CreatedAt), timeDest(&m.UpdatedAt),
			&isSynced, &isDeleted,
		}, bizDest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", ts.table, err)
		}
		m.IsSynced = isSynced == 1
		m.IsDeleted = isDeleted == 1
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
