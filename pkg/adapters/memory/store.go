package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.GraphState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.GraphState),
	}
}

// Save persists a deep copy of the document.
func (s *Store) Save(ctx context.Context, docID string, state *domain.GraphState) error {
	cp := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[docID] = cp
	return nil
}

// Load retrieves a copy of the document, so callers can't mutate the stored one.
func (s *Store) Load(ctx context.Context, docID string) (*domain.GraphState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[docID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	ret := state.Clone()
	return &ret, nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, docID)
	return nil
}

// List returns all document IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
