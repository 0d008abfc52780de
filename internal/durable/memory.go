package durable

import (
	"context"
	"sort"
	"sync"

	"github.com/traversion/causengine/internal/models"
)

// MemoryStore is the default Store: an in-process, non-persistent
// implementation used when no external store is configured, and in tests
// that want a hermetic durable.Store without a live FalkorDB instance
// (see DESIGN.md).
type MemoryStore struct {
	mu     sync.Mutex
	events []models.Event
	edges  []models.Edge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Persist(ctx context.Context, node *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, node.Event)
	return nil
}

func (m *MemoryStore) PersistEdge(ctx context.Context, edge *models.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, *edge)
	return nil
}

func (m *MemoryStore) Replay(ctx context.Context, sinceMs int64) (<-chan models.Event, error) {
	m.mu.Lock()
	matched := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		if e.Timestamp >= sinceMs {
			matched = append(matched, e)
		}
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp < matched[j].Timestamp })

	out := make(chan models.Event)
	go func() {
		defer close(out)
		for _, e := range matched {
			select {
			case <-ctx.Done():
				return
			case out <- e:
			}
		}
	}()
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
