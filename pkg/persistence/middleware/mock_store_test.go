package middleware_test

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware. It keeps the
// pointers it is given so tests can inspect exactly what was saved.
type MockStore struct {
	data map[string]*domain.GraphState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.GraphState),
	}
}

func (s *MockStore) Save(ctx context.Context, docID string, state *domain.GraphState) error {
	s.data[docID] = state
	return nil
}

func (s *MockStore) Load(ctx context.Context, docID string) (*domain.GraphState, error) {
	state, ok := s.data[docID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return state, nil
}

func (s *MockStore) Delete(ctx context.Context, docID string) error {
	delete(s.data, docID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SnapshotStore = (*MockStore)(nil)
