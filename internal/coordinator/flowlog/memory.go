package flowlog

import (
	"context"
	"sync"
)

// MemoryRepository keeps entries in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Save(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *entry
	e.Errors = append([]string(nil), entry.Errors...)
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemoryRepository) List(_ context.Context, flowID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.FlowID == flowID {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ Repository = (*MemoryRepository)(nil)
