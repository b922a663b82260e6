package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/billfold/internal/common"
)

// PostgresStore keeps documents in a JSONB column, with updatedAt and the
// deletion flag mirrored into indexed columns for the changed-since query.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, userID, kind string, doc map[string]any) error {
	id, err := docID(doc)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (user_id, kind, id, doc, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, kind, id) DO UPDATE SET
			doc        = excluded.doc,
			updated_at = excluded.updated_at,
			is_deleted = excluded.is_deleted
	`
	_, err = s.db.ExecContext(ctx, query,
		userID, kind, id, raw, docUpdatedAt(doc, time.Now()), docDeleted(doc))
	if err != nil {
		return fmt.Errorf("upsert document[%s/%s]: %w", kind, id, err)
	}
	return nil
}

func (s *PostgresStore) ChangedSince(ctx context.Context, userID, kind string, since time.Time, limit int) ([]map[string]any, error) {
	query := `
		SELECT doc
		FROM documents
		WHERE user_id = $1 AND kind = $2 AND updated_at > $3
		ORDER BY updated_at ASC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, userID, kind, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("changed since[%s]: %w", kind, err)
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, userID, kind, id string, now time.Time) error {
	patch, err := json.Marshal(map[string]any{
		"isDeleted": true,
		"updatedAt": now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET is_deleted = TRUE,
		    updated_at = $4,
		    doc        = doc || $5::jsonb
		WHERE user_id = $1 AND kind = $2 AND id = $3
	`
	res, err := s.db.ExecContext(ctx, query, userID, kind, id, now.UTC(), patch)
	if err != nil {
		return fmt.Errorf("delete document[%s/%s]: %w", kind, id, err)
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

func (s *PostgresStore) PurgeTombstones(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE is_deleted AND updated_at < $1`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge tombstones: %w", err)
	}
	return res.RowsAffected()
}
