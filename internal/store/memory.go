// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight backend used for ephemeral lobbies, primarily in
// development/testing, or when durability is not required.
//
// Characteristics:
//   - Versioned documents keyed by id in a map.
//   - Optimistic concurrency: fn runs on a private copy outside the lock;
//     the commit re-checks the version under the lock and retries on a race.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/partyroom/codenames/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu   sync.RWMutex   // guards docs map
	docs map[string]Doc // keyed by document id
	hub  *hub
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{docs: make(map[string]Doc), hub: newHub()}
}

// Get looks up the latest committed snapshot of a document.
func (m *memory) Get(ctx context.Context, id string) (*Doc, error) {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out, err := cloneDoc(doc)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies fn under optimistic concurrency, creating a fresh waiting
// document if id does not exist yet.
func (m *memory) Update(ctx context.Context, id string, fn UpdateFn) (*Doc, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.mu.RLock()
		cur, ok := m.docs[id]
		m.mu.RUnlock()
		if !ok {
			cur = Doc{ID: id, Version: 0, State: game.NewState()}
		}

		base := cur.Version
		work, err := cloneDoc(cur)
		if err != nil {
			return nil, err
		}
		if err := fn(&work); err != nil {
			return nil, err
		}

		m.mu.Lock()
		latest, exists := m.docs[id]
		if exists && latest.Version != base {
			m.mu.Unlock()
			continue // lost the race, re-read and retry
		}
		work.Version = base + 1
		work.UpdatedAt = time.Now().UTC()
		m.docs[id] = work
		m.mu.Unlock()

		out, err := cloneDoc(work)
		if err != nil {
			return nil, err
		}
		m.hub.publish(out)
		return &out, nil
	}
	return nil, fmt.Errorf("update %q: %w", id, ErrTooManyRetries)
}

// Watch subscribes to document snapshots, delivering the current one first.
func (m *memory) Watch(id string, onChange func(Doc), onError func(error)) func() {
	cancel := m.hub.subscribe(id, onChange)
	if doc, err := m.Get(context.Background(), id); err == nil {
		onChange(*doc)
	}
	return cancel
}

// IDs lists all stored document ids.
func (m *memory) IDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.docs))
	for id := range m.docs {
		out = append(out, id)
	}
	return out, nil
}
