package database

import (
	"context"
	"sync"

	"go-pos-ledger/internal/models"
)

// MemoryStore keeps the state in process. It is used for demos and tests.
type MemoryStore struct {
	mu sync.RWMutex
	st *models.State
}

// NewMemoryStore starts from seed, or from an empty state when seed is nil.
func NewMemoryStore(seed *models.State) *MemoryStore {
	if seed == nil {
		seed = models.NewState()
	}
	return &MemoryStore{st: seed.Clone()}
}

func (m *MemoryStore) Load(_ context.Context) (*models.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, st *models.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st.Clone()
	return nil
}
