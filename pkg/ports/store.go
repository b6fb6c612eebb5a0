package ports

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// SnapshotStore defines the interface for persisting documents.
// A document is the root GraphState, with the subgraphs of its composite nodes nested inside.
type SnapshotStore interface {
	// Save persists the state for a given document ID.
	Save(ctx context.Context, docID string, state *domain.GraphState) error

	// Load retrieves the state for a given document ID.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, docID string) (*domain.GraphState, error)

	// Delete removes the document. Deleting an absent document is not an error.
	Delete(ctx context.Context, docID string) error

	// List returns the IDs of all stored documents.
	List(ctx context.Context) ([]string, error)
}
