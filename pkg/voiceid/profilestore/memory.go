package profilestore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store implementation.
// It is safe for concurrent use and intended primarily for testing.
// Records are kept encoded so that callers never share slices with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates a new in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, p Profile) error {
	data, err := encodeProfile(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[p.Name] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, name string) (Profile, error) {
	if err := ValidateName(name); err != nil {
		return Profile{}, err
	}
	m.mu.RLock()
	data, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		return Profile{}, ErrNotFound
	}
	return decodeProfile(name, data)
}

func (m *Memory) List(_ context.Context) (*Listing, error) {
	m.mu.RLock()
	snapshot := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		snapshot[k] = v
	}
	m.mu.RUnlock()

	l := &Listing{}
	for name, data := range snapshot {
		p, err := decodeProfile(name, data)
		if err != nil {
			l.Skipped = append(l.Skipped, SkippedRecord{Key: name, Err: err})
			continue
		}
		l.Profiles = append(l.Profiles, p)
	}
	l.sort()
	return l, nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.data, name)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Compile-time interface check.
var _ Store = (*Memory)(nil)
