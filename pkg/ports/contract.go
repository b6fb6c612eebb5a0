package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractDocument builds a small document exercising every entity type,
// nested subgraphs and a data tree with mixed values.
func contractDocument() domain.GraphState {
	inner := domain.NewGraphState()
	inner.Nodes = []domain.Node{{
		ID:          "inner",
		Title:       "Inner",
		Type:        "noop",
		Width:       200,
		Height:      100,
		FixedInputs: []domain.Port{{ID: "inner-in", NodeID: "inner", Direction: domain.DirectionInput, MaxConnections: 1, Connections: []string{}}},
	}}

	s := domain.NewGraphState()
	s.Nodes = []domain.Node{
		{
			ID:           "a",
			Title:        "Source",
			Type:         "http",
			Position:     domain.Position{X: 10, Y: 20},
			Width:        200,
			Height:       100,
			FixedOutputs: []domain.Port{{ID: "a-out", NodeID: "a", Direction: domain.DirectionOutput, Name: "out", MaxConnections: domain.Unlimited, Connections: []string{"c1"}}},
			Data:         map[string]any{"url": "{{endpoint}}", "retries": 3.0, "tags": []any{"x", "y"}},
			GroupID:      "g1",
		},
		{
			ID:          "b",
			Title:       "Composite",
			Type:        domain.NodeTypeComposite,
			Position:    domain.Position{X: 300, Y: 20},
			Width:       200,
			Height:      100,
			FixedInputs: []domain.Port{{ID: "b-in", NodeID: "b", Direction: domain.DirectionInput, Name: "in", MaxConnections: 1, Connections: []string{"c1"}, InnerPortID: "inner-in"}},
			Subgraph:    &inner,
		},
	}
	s.Connections = []domain.Connection{{ID: "c1", SourcePortID: "a-out", TargetPortID: "b-in", SourceNodeID: "a", TargetNodeID: "b"}}
	s.StickyNotes = []domain.StickyNote{{ID: "n1", Content: "remember", Width: 200, Height: 150, Style: domain.DefaultNoteStyle}}
	s.NodeGroups = []domain.NodeGroup{{ID: "g1", Title: "Group", Width: 240, Height: 180, ChildNodes: []string{"a"}, Style: domain.DefaultGroupStyle}}
	s.ViewState = domain.ViewState{Zoom: 1.5, Offset: domain.Position{X: -10, Y: 5}}
	s.Metadata = map[string]string{domain.KeyFormatVersion: domain.FormatVersion}
	return s
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := contractDocument()

		err := store.Save(ctx, docID, &state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state, *loaded, "Load must return a state deep-equal to the saved one")
	})

	t.Run("Saved State Is Not Aliased", func(t *testing.T) {
		state := contractDocument()
		require.NoError(t, store.Save(ctx, docID, &state))
		state.Nodes[0].Title = "mutated after save"

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, "Source", loaded.Nodes[0].Title)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		state := domain.NewGraphState()
		require.NoError(t, store.Save(ctx, docID, &state))

		err := store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, docID), "Deleting an absent document is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		empty := domain.NewGraphState()
		_ = store.Save(ctx, id1, &empty)
		_ = store.Save(ctx, id2, &empty)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		docs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, docs, id1)
		assert.Contains(t, docs, id2)
	})
}
