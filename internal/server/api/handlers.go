package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/billfold/internal/common"
	"github.com/dmitrijs2005/billfold/internal/logging"
	"github.com/dmitrijs2005/billfold/internal/server/docstore"
	"github.com/dmitrijs2005/billfold/internal/server/users"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// syncedKinds is the closed set of collections the sync protocol serves.
var syncedKinds = map[string]struct{}{
	"clients":        {},
	"products":       {},
	"bills":          {},
	"bill_items":     {},
	"ledger_entries": {},
}

const defaultPageSize = 200

type Handler struct {
	users       *users.Service
	docs        docstore.Store
	log         logging.Logger
	validate    *validator.Validate
	maxPageSize int
}

func NewHandler(us *users.Service, docs docstore.Store, log logging.Logger, maxPageSize int) *Handler {
	if maxPageSize <= 0 {
		maxPageSize = 500
	}
	return &Handler{
		users:       us,
		docs:        docs,
		log:         log,
		validate:    validator.New(),
		maxPageSize: maxPageSize,
	}
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.users.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrLoginAlreadyExists):
			writeError(w, http.StatusConflict, "login already exists")
		case errors.Is(err, common.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "invalid credentials")
		default:
			h.log.Error(r.Context(), "register failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.users.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid login or password")
			return
		}
		h.log.Error(r.Context(), "login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Changes serves one changed-since page: documents with updatedAt strictly
// after ?since, ascending, tombstones included.
func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		var err error
		since, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
	}

	limit := defaultPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}
	limit = min(limit, h.maxPageSize)

	docs, err := h.docs.ChangedSince(r.Context(), getUserID(r), kind, since, limit)
	if err != nil {
		h.log.Error(r.Context(), "changed-since query failed", "kind", kind, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, changesResponse{Documents: docs})
}

// Batch upserts documents by id. One outcome per document, same order; a
// rejected document never fails the batch.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := getUserID(r)
	outcomes := make([]writeOutcome, len(req.Documents))
	for i, doc := range req.Documents {
		id, _ := doc["id"].(string)
		if err := h.docs.Upsert(r.Context(), userID, kind, doc); err != nil {
			h.log.Warn(r.Context(), "document rejected", "kind", kind, "id", id, "err", err)
			outcomes[i] = writeOutcome{ID: id, OK: false, Error: err.Error()}
			continue
		}
		outcomes[i] = writeOutcome{ID: id, OK: true}
	}

	writeJSON(w, http.StatusOK, batchResponse{Outcomes: outcomes})
}

// Delete tombstones a document. Deleting an already-absent document is a
// 404; the client treats that as the tombstone having propagated.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	err := h.docs.Delete(r.Context(), getUserID(r), kind, id, time.Now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.log.Error(r.Context(), "delete failed", "kind", kind, "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return req, false
	}
	return req, true
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (string, bool) {
	kind := mux.Vars(r)["kind"]
	if _, ok := syncedKinds[kind]; !ok {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return "", false
	}
	return kind, true
}
