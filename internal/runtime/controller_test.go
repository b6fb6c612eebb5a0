package runtime

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefinitions = []domain.Definition{
	{ID: "source", Title: "Source", DefaultOutputs: []domain.PortTemplate{{Name: "out"}}},
	{ID: "sink", Title: "Sink", DefaultInputs: []domain.PortTemplate{{Name: "in"}}},
	{
		ID:             "relay",
		Title:          "Relay",
		DefaultInputs:  []domain.PortTemplate{{Name: "in"}},
		DefaultOutputs: []domain.PortTemplate{{Name: "out"}},
	},
}

func newController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	cat, err := memory.NewCatalog(testDefinitions...)
	require.NoError(t, err)
	opts = append([]Option{WithIDGenerator(ids.NewSequence("id-")), WithCatalog(cat)}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func mustNode(t *testing.T, c *Controller, defID string, x, y float64) domain.Node {
	t.Helper()
	n, err := c.CreateNode(defID, domain.Position{X: x, Y: y})
	require.NoError(t, err)
	return n
}

func mustConnect(t *testing.T, c *Controller, src, dst string) domain.Connection {
	t.Helper()
	conn, err := c.Graph().CreateConnection(src, dst)
	require.NoError(t, err)
	return conn
}

func TestNew_InvalidHistorySize(t *testing.T) {
	_, err := New(WithHistorySize(0))
	assert.Error(t, err)
}

func TestCreateNode_Catalog(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	_, err = c.CreateNode("source", domain.Position{})
	assert.ErrorIs(t, err, ErrNoCatalog)

	c = newController(t)
	_, err = c.CreateNode("unknown", domain.Position{})
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	assert.Zero(t, c.Graph().Len())
}

func TestHistory_OnePushPerBatch(t *testing.T) {
	c := newController(t)
	assert.Equal(t, 1, c.History().Len())
	assert.False(t, c.CanUndo())

	a := mustNode(t, c, "source", 0, 0)
	b := mustNode(t, c, "sink", 300, 0)
	assert.Equal(t, 3, c.History().Len())

	g, err := c.Groups().CreateGroup([]string{a.ID, b.ID}, "pair")
	require.NoError(t, err)
	assert.Equal(t, 4, c.History().Len())

	require.NoError(t, c.Groups().MoveGroup(g.ID, domain.Position{X: 10, Y: 10}))
	assert.Equal(t, 5, c.History().Len(), "moving a group and its members is one step")

	_, err = c.Graph().CreateConnection(a.ID, b.ID)
	require.Error(t, err)
	assert.Equal(t, 5, c.History().Len(), "rejections are not recorded")

	c.SetView(domain.ViewState{Zoom: 2})
	assert.Equal(t, 5, c.History().Len(), "camera moves are not recorded")
}

func TestUndo_RestoresSnapshotButView(t *testing.T) {
	c := newController(t)
	a := mustNode(t, c, "source", 0, 0)
	want := c.State()

	b := mustNode(t, c, "sink", 300, 0)
	mustConnect(t, c, a.FixedOutputs[0].ID, b.FixedInputs[0].ID)
	moved := domain.ViewState{Zoom: 1.5, Offset: domain.Position{X: -40, Y: 25}}
	c.SetView(moved)

	_, ok := c.Undo()
	require.True(t, ok)
	_, ok = c.Undo()
	require.True(t, ok)

	got := c.State()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(domain.GraphState{}, "ViewState"), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("undo did not restore the snapshot (-want +got):\n%s", diff)
	}
	assert.Equal(t, moved, got.ViewState)
}

func TestUndoRedo_KeepView(t *testing.T) {
	c := newController(t)
	n := mustNode(t, c, "source", 0, 0)
	view := domain.ViewState{Zoom: 0.5, Offset: domain.Position{X: 3, Y: 4}}
	c.SetView(view)

	diff, ok := c.Undo()
	require.True(t, ok)
	require.NotNil(t, diff)
	assert.Equal(t, []string{n.ID}, diff.Nodes.Removed)
	assert.Zero(t, c.Graph().Len())
	assert.Equal(t, view, c.View())
	assert.True(t, c.CanRedo())

	diff, ok = c.Redo()
	require.True(t, ok)
	assert.Equal(t, []string{n.ID}, diff.Nodes.Added)
	_, ok = c.Graph().Node(n.ID)
	assert.True(t, ok)

	_, ok = c.Redo()
	assert.False(t, ok)
}

// Scenario: converting a group with one inbound external connection yields a
// composite with one boundary input port; one undo restores everything.
func TestConvertGroupToComposite(t *testing.T) {
	c := newController(t)
	x := mustNode(t, c, "source", 0, 0)
	g := mustNode(t, c, "source", 300, 0)
	h := mustNode(t, c, "sink", 300, 200)
	p1 := g.FixedOutputs[0].ID
	p2 := h.FixedInputs[0].ID
	original := mustConnect(t, c, x.FixedOutputs[0].ID, p2)

	f, err := c.Groups().CreateGroup([]string{g.ID, h.ID}, "F")
	require.NoError(t, err)
	before := c.State()
	steps := c.History().Len()

	composite, err := c.ConvertGroupToComposite(f.ID)
	require.NoError(t, err)
	assert.Equal(t, steps+1, c.History().Len(), "conversion is a single step")

	assert.Equal(t, domain.NodeTypeComposite, composite.Type)
	assert.Equal(t, "F", composite.Title)
	assert.Equal(t, f.Position, composite.Position)
	require.Len(t, composite.FixedInputs, 1)
	assert.Empty(t, composite.FixedOutputs)
	boundary := composite.FixedInputs[0]
	assert.Equal(t, p2, boundary.InnerPortID)
	assert.Equal(t, 1, boundary.MaxConnections)
	require.Len(t, boundary.Connections, 1)

	_, ok := c.Graph().Node(g.ID)
	assert.False(t, ok)
	_, ok = c.Graph().Node(h.ID)
	assert.False(t, ok)
	assert.Zero(t, c.Groups().Len())

	conns := c.Graph().Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, x.FixedOutputs[0].ID, conns[0].SourcePortID)
	assert.Equal(t, boundary.ID, conns[0].TargetPortID)
	assert.Equal(t, composite.ID, conns[0].TargetNodeID)

	require.NotNil(t, composite.Subgraph)
	sub := composite.Subgraph
	require.Len(t, sub.Nodes, 2)
	assert.Empty(t, sub.Connections)
	inner, ok := sub.Node(g.ID)
	require.True(t, ok)
	assert.Equal(t, domain.Position{X: CompositeInset, Y: CompositeInset}, inner.Position)
	assert.Empty(t, inner.GroupID)
	assert.Equal(t, p1, inner.FixedOutputs[0].ID)
	inner, ok = sub.Node(h.ID)
	require.True(t, ok)
	assert.Equal(t, domain.Position{X: CompositeInset, Y: 200 + CompositeInset}, inner.Position)
	assert.Empty(t, inner.FixedInputs[0].Connections, "external connections do not enter the subgraph")
	assert.NoError(t, c.Validate())

	_, ok = c.Undo()
	require.True(t, ok)
	if diff := cmp.Diff(before, c.State()); diff != "" {
		t.Errorf("undo did not restore the grouped graph (-want +got):\n%s", diff)
	}
	restored, ok := c.Graph().Connection(original.ID)
	require.True(t, ok)
	assert.Equal(t, original, restored)
	assert.NoError(t, c.Validate())
}

func TestConvertGroupToComposite_CollapsesBoundaryPorts(t *testing.T) {
	c := newController(t)
	a := mustNode(t, c, "relay", 0, 0)
	b := mustNode(t, c, "relay", 300, 0)
	out1 := mustNode(t, c, "sink", 600, 0)
	out2 := mustNode(t, c, "sink", 600, 200)
	in := mustNode(t, c, "source", -300, 0)

	internal := mustConnect(t, c, a.FixedOutputs[0].ID, b.FixedInputs[0].ID)
	mustConnect(t, c, in.FixedOutputs[0].ID, a.FixedInputs[0].ID)
	mustConnect(t, c, b.FixedOutputs[0].ID, out1.FixedInputs[0].ID)
	mustConnect(t, c, b.FixedOutputs[0].ID, out2.FixedInputs[0].ID)

	grp, err := c.Groups().CreateGroup([]string{a.ID, b.ID}, "pipeline")
	require.NoError(t, err)

	composite, err := c.ConvertGroupToComposite(grp.ID)
	require.NoError(t, err)
	require.Len(t, composite.FixedInputs, 1)
	require.Len(t, composite.FixedOutputs, 1, "two connections from one inner port share a boundary port")
	assert.Equal(t, b.FixedOutputs[0].ID, composite.FixedOutputs[0].InnerPortID)
	assert.Len(t, composite.FixedOutputs[0].Connections, 2)
	assert.Len(t, c.Graph().Connections(), 3)

	require.Len(t, composite.Subgraph.Connections, 1)
	assert.Equal(t, internal.ID, composite.Subgraph.Connections[0].ID)
	inner, _ := composite.Subgraph.Node(a.ID)
	assert.Equal(t, []string{internal.ID}, inner.FixedOutputs[0].Connections)
	assert.Empty(t, inner.FixedInputs[0].Connections)
	assert.NoError(t, c.Validate())
}

func TestConvertGroupToComposite_EmptyAndMissing(t *testing.T) {
	c := newController(t)
	n := mustNode(t, c, "source", 0, 0)
	grp, err := c.Groups().CreateGroup([]string{n.ID}, "lonely")
	require.NoError(t, err)
	c.Graph().DeleteNode(n.ID)
	steps := c.History().Len()

	composite, err := c.ConvertGroupToComposite(grp.ID)
	require.NoError(t, err)
	assert.Zero(t, composite)
	assert.Equal(t, 1, c.Groups().Len())
	assert.Equal(t, steps, c.History().Len())

	var failures []*domain.RejectError
	c.AddFailureListener(domain.FailureListenerFunc(func(e *domain.RejectError) { failures = append(failures, e) }))
	_, err = c.ConvertGroupToComposite("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.Len(t, failures, 1)
	assert.Equal(t, "convertGroupToComposite", failures[0].Op)
}

func TestNavigation_WritesBack(t *testing.T) {
	c := newController(t)
	outer := mustNode(t, c, "relay", 0, 0)

	require.NoError(t, c.NavigateTo(outer.ID))
	assert.Equal(t, []string{outer.ID}, c.Path())
	assert.Equal(t, outer.ID, c.ActiveID())
	assert.Zero(t, c.Graph().Len())
	assert.False(t, c.CanUndo(), "entering a graph starts a fresh history")

	inner := mustNode(t, c, "sink", 50, 50)

	require.NoError(t, c.NavigateUpTo(domain.RootID))
	assert.Empty(t, c.Path())
	root, ok := c.Graph().Node(outer.ID)
	require.True(t, ok)
	require.NotNil(t, root.Subgraph, "the node became composite")
	require.Len(t, root.Subgraph.Nodes, 1)
	assert.Equal(t, inner.ID, root.Subgraph.Nodes[0].ID)

	// Nested navigation resolves nodes anywhere in the tree.
	require.NoError(t, c.NavigateTo(inner.ID))
	assert.Equal(t, []string{outer.ID, inner.ID}, c.Path())
	mustNode(t, c, "source", 0, 0)

	require.NoError(t, c.NavigateUpTo(outer.ID))
	assert.Equal(t, []string{outer.ID}, c.Path())
	n, ok := c.Graph().Node(inner.ID)
	require.True(t, ok)
	require.NotNil(t, n.Subgraph)
	assert.Len(t, n.Subgraph.Nodes, 1)

	doc := c.Document()
	top, ok := doc.Node(outer.ID)
	require.True(t, ok)
	assert.Len(t, top.Subgraph.Nodes, 1)
	assert.NoError(t, c.Validate())
}

func TestNavigation_UnknownTargets(t *testing.T) {
	c := newController(t)
	n := mustNode(t, c, "source", 0, 0)

	err := c.NavigateTo("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, c.Path())

	err = c.NavigateUpTo(n.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "only nodes on the current path are ancestors")
	_, ok := c.Graph().Node(n.ID)
	assert.True(t, ok)
}

func TestLoadDocument(t *testing.T) {
	c := newController(t)
	mustNode(t, c, "source", 0, 0)

	doc := domain.NewGraphState()
	doc.Nodes = []domain.Node{{ID: "loaded", Title: "Loaded", Width: 200, Height: 100}}
	doc.ViewState = domain.ViewState{Zoom: 3}
	doc.Metadata = map[string]string{"name": "demo"}

	c.LoadDocument(doc)
	assert.Equal(t, 1, c.Graph().Len())
	assert.Equal(t, doc.ViewState, c.View())
	assert.False(t, c.CanUndo())

	doc.Nodes[0].Title = "mutated"
	got := c.Document()
	assert.Equal(t, "Loaded", got.Nodes[0].Title)
	assert.Equal(t, "demo", got.Metadata["name"])
}

func TestCopyPaste(t *testing.T) {
	c := newController(t)
	a := mustNode(t, c, "source", 100, 100)
	b := mustNode(t, c, "sink", 400, 150)
	mustConnect(t, c, a.FixedOutputs[0].ID, b.FixedInputs[0].ID)
	note := c.Notes().CreateNote("hello", domain.Position{X: 100, Y: 300})

	assert.Equal(t, 3, c.Copy(Selection{Nodes: []string{a.ID, b.ID}, Notes: []string{note.ID}}))
	steps := c.History().Len()

	pasted := c.Paste(domain.Position{X: 1000, Y: 1000})
	assert.Equal(t, steps+1, c.History().Len(), "a paste is one step")
	require.Len(t, pasted.Nodes, 2)
	require.Len(t, pasted.Notes, 1)
	assert.NotContains(t, pasted.Nodes, a.ID)
	assert.Equal(t, 4, c.Graph().Len())
	assert.Len(t, c.Graph().Connections(), 2)

	for _, id := range pasted.Nodes {
		assert.Len(t, c.Graph().ConnectionsOf(id), 1)
	}
	assert.NoError(t, c.Validate())

	_, ok := c.Undo()
	require.True(t, ok)
	assert.Equal(t, 2, c.Graph().Len())
	assert.Equal(t, 1, c.Notes().Len())

	c.Clipboard().Clear()
	assert.True(t, c.Paste(domain.Position{}).IsEmpty())
}

func TestDeleteSelection(t *testing.T) {
	c := newController(t)
	a := mustNode(t, c, "source", 0, 0)
	b := mustNode(t, c, "sink", 300, 0)
	loose := mustNode(t, c, "sink", 0, 300)
	mustConnect(t, c, a.FixedOutputs[0].ID, loose.FixedInputs[0].ID)
	grp, err := c.Groups().CreateGroup([]string{a.ID, b.ID}, "pair")
	require.NoError(t, err)
	note := c.Notes().CreateNote("bye", domain.Position{})
	steps := c.History().Len()

	removed := c.DeleteSelection(Selection{Groups: []string{grp.ID}, Notes: []string{note.ID, "missing"}})
	assert.Equal(t, 4, removed)
	assert.Equal(t, steps+1, c.History().Len())
	assert.Equal(t, 1, c.Graph().Len())
	assert.Empty(t, c.Graph().Connections())
	assert.Zero(t, c.Notes().Len())
	assert.NoError(t, c.Validate())
}

func TestMetrics(t *testing.T) {
	m := observability.NewMetrics()
	c := newController(t, WithMetrics(m))
	a := mustNode(t, c, "source", 0, 0)
	_, err := c.Graph().CreateConnection(a.FixedOutputs[0].ID, a.FixedOutputs[0].ID)
	require.Error(t, err)
	c.Undo()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `flowcanvas_rejections_total{op="createConnection",reason="self_connection"} 1`)
	assert.Contains(t, string(body), `flowcanvas_history_operations_total{op="undo"} 1`)
	assert.Contains(t, string(body), `flowcanvas_graph_entities{kind="nodes"} 0`)
}
