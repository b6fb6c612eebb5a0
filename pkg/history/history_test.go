package history_test

import (
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/history"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Items []string
}

func copyDoc(d doc) doc {
	return doc{Items: append([]string(nil), d.Items...)}
}

func newEngine(t *testing.T, opts ...history.Option) *history.Engine[doc] {
	t.Helper()
	e, err := history.New(copyDoc, opts...)
	require.NoError(t, err)
	return e
}

func TestNew_RejectsInvalidSize(t *testing.T) {
	_, err := history.New(copyDoc, history.WithMaxSize(0))
	assert.ErrorIs(t, err, history.ErrInvalidMaxSize)
}

func TestUndoRedo_RestoreExactStates(t *testing.T) {
	e := newEngine(t)
	before := doc{Items: []string{"a"}}
	after := doc{Items: []string{"a", "b"}}
	e.Push(before)
	e.Push(after)

	got, ok := e.Undo(nil)
	require.True(t, ok)
	if diff := cmp.Diff(before, got); diff != "" {
		t.Errorf("undo mismatch (-want +got):\n%s", diff)
	}
	got, ok = e.Redo(nil)
	require.True(t, ok)
	if diff := cmp.Diff(after, got); diff != "" {
		t.Errorf("redo mismatch (-want +got):\n%s", diff)
	}

	_, ok = e.Redo(nil)
	assert.False(t, ok, "redo at the newest entry is a no-op")
	e.Undo(nil)
	_, ok = e.Undo(nil)
	assert.False(t, ok, "the first entry cannot be undone past")
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	e := newEngine(t)
	s := doc{Items: []string{"a"}}
	e.Push(s)
	s.Items[0] = "mutated"
	e.Push(doc{Items: []string{"b"}})

	got, _ := e.Undo(nil)
	assert.Equal(t, []string{"a"}, got.Items)
	got.Items[0] = "mutated again"
	cur, _ := e.Current()
	assert.Equal(t, []string{"a"}, cur.Items)
}

// Scenario: pushing after two undos makes the undone-past state unreachable.
func TestPush_DiscardsRedoTail(t *testing.T) {
	e := newEngine(t)
	e.Push(doc{Items: []string{"1"}})
	e.Push(doc{Items: []string{"2"}})
	e.Push(doc{Items: []string{"3"}})

	e.Undo(nil)
	e.Undo(nil)
	assert.True(t, e.CanRedo())

	e.Push(doc{Items: []string{"4"}})
	assert.False(t, e.CanRedo())
	assert.Equal(t, 2, e.Len())

	_, ok := e.Redo(nil)
	assert.False(t, ok)
	got, _ := e.Undo(nil)
	assert.Equal(t, []string{"1"}, got.Items)
	got, _ = e.Redo(nil)
	assert.Equal(t, []string{"4"}, got.Items)
}

func TestPush_EvictsOldest(t *testing.T) {
	e := newEngine(t, history.WithMaxSize(2))
	for _, s := range []string{"1", "2", "3"} {
		e.Push(doc{Items: []string{s}})
	}
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, 1, e.Cursor())
	got, _ := e.Undo(nil)
	assert.Equal(t, []string{"2"}, got.Items)
	assert.False(t, e.CanUndo())
}

func TestUndo_SuppressesPushesDuringApply(t *testing.T) {
	e := newEngine(t)
	e.Push(doc{Items: []string{"1"}})
	e.Push(doc{Items: []string{"2"}})

	var applied doc
	_, ok := e.Undo(func(d doc) {
		assert.True(t, e.Guard().Restoring)
		applied = d
		assert.False(t, e.Push(d), "re-application must not record")
	})
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, applied.Items)
	assert.False(t, e.Guard().Restoring)
	assert.Equal(t, 2, e.Len())
	assert.True(t, e.CanRedo())
}

func TestTransactions(t *testing.T) {
	e := newEngine(t)
	e.Push(doc{Items: []string{"start"}})

	e.BeginTransaction()
	e.BeginTransaction()
	assert.False(t, e.Push(doc{Items: []string{"step"}}))
	inner := doc{Items: []string{"inner"}}
	e.EndTransaction(&inner)
	assert.Equal(t, 1, e.Len(), "nested end does not commit")
	assert.Equal(t, 1, e.Guard().Depth)

	final := doc{Items: []string{"final"}}
	e.EndTransaction(&final)
	assert.Equal(t, 2, e.Len())
	got, _ := e.Current()
	assert.Equal(t, []string{"final"}, got.Items)

	assert.False(t, e.EndTransaction(nil), "unbalanced end is ignored")
	assert.Zero(t, e.Guard().Depth)
	assert.True(t, e.Push(doc{}))

	e.BeginTransaction()
	e.EndTransaction(nil)
	assert.Equal(t, 3, e.Len(), "a transaction without a final snapshot records nothing")
}

func TestReset(t *testing.T) {
	e := newEngine(t)
	e.Push(doc{Items: []string{"1"}})
	e.Push(doc{Items: []string{"2"}})
	e.BeginTransaction()

	e.Reset(doc{Items: []string{"initial"}})
	assert.Equal(t, 1, e.Len())
	assert.Zero(t, e.Cursor())
	assert.False(t, e.CanUndo())
	assert.False(t, e.Guard().Suppressed())

	assert.True(t, e.Push(doc{Items: []string{"first edit"}}))
	got, _ := e.Undo(nil)
	assert.Equal(t, []string{"initial"}, got.Items)
}

type countingRecorder struct {
	pushes, undos, redos, size int
}

func (r *countingRecorder) HistoryPushed()    { r.pushes++ }
func (r *countingRecorder) HistoryUndone()    { r.undos++ }
func (r *countingRecorder) HistoryRedone()    { r.redos++ }
func (r *countingRecorder) HistorySize(n int) { r.size = n }

func TestRecorder(t *testing.T) {
	r := &countingRecorder{}
	e := newEngine(t, history.WithRecorder(r))
	e.Push(doc{})
	e.Push(doc{})
	e.Undo(nil)
	e.Redo(nil)
	e.Redo(nil)
	assert.Equal(t, countingRecorder{pushes: 2, undos: 1, redos: 1, size: 2}, *r)
}

func TestGraphStateSnapshots(t *testing.T) {
	e, err := history.New(domain.CloneGraphState)
	require.NoError(t, err)

	s := domain.NewGraphState()
	s.Nodes = append(s.Nodes, domain.Node{ID: "n", Data: map[string]any{"k": []any{"v"}}})
	e.Push(s)
	s.Nodes[0].Data["k"].([]any)[0] = "changed"
	e.Push(domain.NewGraphState())

	got, ok := e.Undo(nil)
	require.True(t, ok)
	assert.Equal(t, "v", got.Nodes[0].Data["k"].([]any)[0])
}
