package remote

import (
	"context"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

// WriteOutcome reports the per-document result of a batch write. Failed is
// non-empty when the document was rejected; the rest of the batch is
// unaffected.
type WriteOutcome struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Failed string `json:"error,omitempty"`
}

// Remote is the remote store adapter: one document collection per kind,
// document id = RemoteID.
type Remote interface {
	// Ping probes server reachability (also used by the connectivity watcher).
	Ping(ctx context.Context) error

	// FetchChangedSince returns documents with updatedAt strictly greater than
	// cursor, ascending by updatedAt, tombstones included, at most limit.
	FetchChangedSince(ctx context.Context, kind models.Kind, cursor time.Time, limit int) ([]map[string]any, error)

	// BatchWrite upserts documents by id. Idempotent per document: replaying
	// the same batch is safe. One outcome per input document, same order.
	BatchWrite(ctx context.Context, kind models.Kind, docs []map[string]any) ([]WriteOutcome, error)

	// Delete flags the remote document as deleted (the document itself is
	// retained for the tombstone retention window).
	Delete(ctx context.Context, kind models.Kind, remoteID string) error
}

// Auth is the account surface of the sync service.
type Auth interface {
	Register(ctx context.Context, login, password string) (token string, err error)
	Login(ctx context.Context, login, password string) (token string, err error)
}

// --- wire DTOs (mirror internal/server/api, independently defined) ---

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type changesResponse struct {
	Documents []map[string]any `json:"documents"`
}

type batchRequest struct {
	Documents []map[string]any `json:"documents"`
}

type batchResponse struct {
	Outcomes []WriteOutcome `json:"outcomes"`
}

type errorResponse struct {
	Error string `json:"error"`
}
