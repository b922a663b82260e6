package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/billfold/internal/common"
)

// Memory is an in-memory Store used in tests and local development.
type Memory struct {
	mu   sync.Mutex
	docs map[string]map[string]entry // user -> key -> entry
}

type entry struct {
	doc       map[string]any
	updatedAt time.Time
	deleted   bool
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]entry)}
}

func key(kind, id string) string { return kind + "/" + id }

func (m *Memory) Upsert(_ context.Context, userID, kind string, doc map[string]any) error {
	id, err := docID(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[userID] == nil {
		m.docs[userID] = make(map[string]entry)
	}
	cp := make(map[string]any, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	m.docs[userID][key(kind, id)] = entry{
		doc:       cp,
		updatedAt: docUpdatedAt(doc, time.Now()),
		deleted:   docDeleted(doc),
	}
	return nil
}

func (m *Memory) ChangedSince(_ context.Context, userID, kind string, since time.Time, limit int) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type stamped struct {
		doc map[string]any
		at  time.Time
	}
	var out []stamped
	for k, e := range m.docs[userID] {
		if len(k) > len(kind) && k[:len(kind)+1] == kind+"/" && e.updatedAt.After(since) {
			out = append(out, stamped{doc: e.doc, at: e.updatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	if len(out) > limit {
		out = out[:limit]
	}
	docs := make([]map[string]any, len(out))
	for i, s := range out {
		docs[i] = s.doc
	}
	return docs, nil
}

func (m *Memory) Delete(_ context.Context, userID, kind, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.docs[userID][key(kind, id)]
	if !ok {
		return common.ErrNotFound
	}
	e.doc["isDeleted"] = true
	e.doc["updatedAt"] = now.UTC().Format(time.RFC3339Nano)
	e.deleted = true
	e.updatedAt = now.UTC()
	m.docs[userID][key(kind, id)] = e
	return nil
}

func (m *Memory) PurgeTombstones(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, byKey := range m.docs {
		for k, e := range byKey {
			if e.deleted && e.updatedAt.Before(olderThan) {
				delete(byKey, k)
				n++
			}
		}
	}
	return n, nil
}
