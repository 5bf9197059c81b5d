package store

import (
	"context"
	"sort"
	"sync"
)

// Memory keeps entries in process. Used for dry runs and tests.
type Memory struct {
	entries map[string]Entry
	writes  int
	mu      sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
	}
}

func (m *Memory) Get(id string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, exists := m.entries[id]
	return entry, exists
}

func (m *Memory) Set(ctx context.Context, entry Entry) error {
	if err := checkID(entry.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Data = append([]byte(nil), entry.Data...)
	m.entries[entry.ID] = entry
	m.writes++
	return nil
}

func (m *Memory) Digest(ctx context.Context, id string) (string, bool, error) {
	entry, ok := m.Get(id)
	return entry.Digest, ok, nil
}

// Writes counts Set calls since creation
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, 0, len(m.entries))
	for _, v := range m.entries {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
