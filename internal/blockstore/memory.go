package blockstore

import (
	"context"
	"sync"
)

// MemoryStore is the in-process fallback used when the gateway cannot
// reach an IPFS node at startup: connect failure falls back to an
// in-memory store with a warning, after which IsPersistent reports
// false.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks map[string][]byte
	pins   map[string]string
}

// NewMemoryStore constructs an empty in-memory block store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blocks: make(map[string][]byte),
		pins:   make(map[string]string),
	}
}

func (m *MemoryStore) PutBlock(_ context.Context, data []byte) (string, error) {
	cid := CIDForBytes(data)
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.blocks[cid] = cp
	m.mu.Unlock()
	return cid, nil
}

func (m *MemoryStore) GetBlock(_ context.Context, cid string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.blocks[cid]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) PutIPLD(ctx context.Context, v interface{}) (string, error) {
	data, err := MarshalIPLD(v)
	if err != nil {
		return "", err
	}
	return m.PutBlock(ctx, data)
}

func (m *MemoryStore) Pin(_ context.Context, cid string, name string) error {
	m.mu.RLock()
	_, ok := m.blocks[cid]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	m.mu.Lock()
	m.pins[cid] = name
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) IsPersistent() bool { return false }
