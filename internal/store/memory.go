package store

import (
	"fmt"
	"sync"

	"timecapsule/internal/capsule"
)

// MemoryStore is an in-memory implementation of capsule.Store, useful for
// tests. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[capsule.ID]*capsule.Envelope
	located map[string]*capsule.Envelope
	idgen   capsule.IDGenerator
}

var _ capsule.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(idgen capsule.IDGenerator) *MemoryStore {
	return &MemoryStore{
		records: make(map[capsule.ID]*capsule.Envelope),
		located: make(map[string]*capsule.Envelope),
		idgen:   idgen,
	}
}

func (m *MemoryStore) Save(env *capsule.Envelope) (capsule.ID, error) {
	id, err := capsule.ParseID(m.idgen.New())
	if err != nil {
		return "", fmt.Errorf("minting identifier: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[id]; exists {
		return "", fmt.Errorf("record already exists for identifier %s", id)
	}
	m.records[id] = cloneEnvelope(env)
	return id, nil
}

func (m *MemoryStore) SaveTo(env *capsule.Envelope, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.located[location] = cloneEnvelope(env)
	return nil
}

func (m *MemoryStore) Load(id capsule.ID) (*capsule.Envelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	env, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, capsule.ErrNotFound)
	}
	return cloneEnvelope(env), nil
}

func (m *MemoryStore) LoadFrom(location string) (*capsule.Envelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	env, ok := m.located[location]
	if !ok {
		return nil, fmt.Errorf("%s: %w", location, capsule.ErrNotFound)
	}
	return cloneEnvelope(env), nil
}

func (m *MemoryStore) List() (map[capsule.ID]*capsule.Envelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[capsule.ID]*capsule.Envelope, len(m.records))
	for id, env := range m.records {
		out[id] = cloneEnvelope(env)
	}
	return out, nil
}

// cloneEnvelope copies an envelope so callers cannot mutate stored state.
func cloneEnvelope(env *capsule.Envelope) *capsule.Envelope {
	c := *env
	return &c
}
