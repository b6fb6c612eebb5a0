package group_test

import (
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/group"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var boxDef = domain.Definition{
	ID:             "box",
	DefaultWidth:   100,
	DefaultHeight:  50,
	DefaultInputs:  []domain.PortTemplate{{Name: "in"}},
	DefaultOutputs: []domain.PortTemplate{{Name: "out"}},
}

type fixture struct {
	graph  *graph.Store
	groups *group.Store
}

func newFixture() fixture {
	gen := ids.NewSequence("id-")
	g := graph.New(graph.WithIDGenerator(gen))
	return fixture{graph: g, groups: group.New(g, group.WithIDGenerator(gen))}
}

func (f fixture) node(t *testing.T, x, y float64) domain.Node {
	t.Helper()
	n, err := f.graph.CreateNode(boxDef, domain.Position{X: x, Y: y})
	require.NoError(t, err)
	return n
}

func (f fixture) state() domain.GraphState {
	nodes, conns := f.graph.Snapshot()
	return domain.GraphState{Nodes: nodes, Connections: conns, NodeGroups: f.groups.Snapshot()}
}

func TestCreateGroup_Frame(t *testing.T) {
	f := newFixture()
	d := f.node(t, 100, 100)
	e := f.node(t, 400, 300)

	g, err := f.groups.CreateGroup([]string{e.ID, d.ID, "ghost"}, "Pair")
	require.NoError(t, err)

	// Content spans (100,100)-(500,350).
	assert.Equal(t, domain.Position{X: 80, Y: 40}, g.Position)
	assert.Equal(t, 440.0, g.Width)
	assert.Equal(t, 250.0+40+40, g.Height)
	assert.Equal(t, []string{d.ID, e.ID}, g.ChildNodes)
	assert.Equal(t, "Pair", g.Title)

	nd, _ := f.graph.Node(d.ID)
	assert.Equal(t, g.ID, nd.GroupID)
	assert.NoError(t, graph.ValidateState(f.state()))
}

func TestCreateGroup_MinimumSize(t *testing.T) {
	f := newFixture()
	n := f.node(t, 0, 0)
	g, err := f.groups.CreateGroup([]string{n.ID}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupMinWidth, g.Width)
	assert.Equal(t, 50.0+2*domain.GroupPadding+domain.GroupHeaderHeight, g.Height)

	_, err = f.groups.CreateGroup([]string{"ghost"}, "")
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	_, err = f.groups.CreateGroup(nil, "")
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
}

// Scenario: moving a group moves its members by the same delta, in one batch.
func TestMoveGroup(t *testing.T) {
	f := newFixture()
	d := f.node(t, 100, 100)
	e := f.node(t, 400, 300)
	outsider := f.node(t, 900, 900)
	g, err := f.groups.CreateGroup([]string{d.ID, e.ID}, "")
	require.NoError(t, err)

	batches := 0
	f.graph.Dispatcher().OnIdle(func() { batches++ })

	require.NoError(t, f.groups.MoveGroup(g.ID, domain.Position{X: 10, Y: 20}))
	assert.Equal(t, 1, batches)

	moved, _ := f.groups.Group(g.ID)
	assert.Equal(t, g.Position.Add(domain.Position{X: 10, Y: 20}), moved.Position)
	nd, _ := f.graph.Node(d.ID)
	ne, _ := f.graph.Node(e.ID)
	no, _ := f.graph.Node(outsider.ID)
	assert.Equal(t, domain.Position{X: 110, Y: 120}, nd.Position)
	assert.Equal(t, domain.Position{X: 410, Y: 320}, ne.Position)
	assert.Equal(t, domain.Position{X: 900, Y: 900}, no.Position)

	assert.ErrorIs(t, f.groups.MoveGroup("ghost", domain.Position{}), domain.ErrNotFound)
}

func TestMembership_SingleGroup(t *testing.T) {
	f := newFixture()
	a := f.node(t, 0, 0)
	b := f.node(t, 200, 0)

	g1, err := f.groups.CreateGroup([]string{a.ID, b.ID}, "one")
	require.NoError(t, err)
	g2, err := f.groups.CreateGroup([]string{b.ID}, "two")
	require.NoError(t, err)

	first, _ := f.groups.Group(g1.ID)
	assert.Equal(t, []string{a.ID}, first.ChildNodes, "b is evicted from its previous group")
	of, ok := f.groups.GroupOf(b.ID)
	require.True(t, ok)
	assert.Equal(t, g2.ID, of.ID)

	require.NoError(t, f.groups.AddNodeToGroup(g2.ID, a.ID))
	first, _ = f.groups.Group(g1.ID)
	assert.Empty(t, first.ChildNodes)
	assert.NoError(t, graph.ValidateState(f.state()))

	assert.True(t, f.groups.RemoveNodeFromGroup(a.ID))
	assert.False(t, f.groups.RemoveNodeFromGroup(a.ID))
	second, _ := f.groups.Group(g2.ID)
	assert.Equal(t, []string{b.ID}, second.ChildNodes)
	assert.ErrorIs(t, f.groups.AddNodeToGroup(g2.ID, "ghost"), domain.ErrNotFound)
	assert.NoError(t, graph.ValidateState(f.state()))
}

func TestResizeGroup_Clamps(t *testing.T) {
	f := newFixture()
	g, err := f.groups.CreateGroup([]string{f.node(t, 0, 0).ID}, "")
	require.NoError(t, err)

	require.NoError(t, f.groups.ResizeGroup(g.ID, 10, 500))
	got, _ := f.groups.Group(g.ID)
	assert.Equal(t, domain.GroupMinWidth, got.Width)
	assert.Equal(t, 500.0, got.Height)
}

func TestDeleteGroup(t *testing.T) {
	t.Run("ungroup keeps nodes", func(t *testing.T) {
		f := newFixture()
		a := f.node(t, 0, 0)
		g, err := f.groups.CreateGroup([]string{a.ID}, "")
		require.NoError(t, err)

		assert.True(t, f.groups.DeleteGroup(g.ID, false))
		n, ok := f.graph.Node(a.ID)
		require.True(t, ok)
		assert.Empty(t, n.GroupID)
		assert.Zero(t, f.groups.Len())
		assert.False(t, f.groups.DeleteGroup(g.ID, false))
	})

	t.Run("cascade deletes nodes and their connections", func(t *testing.T) {
		f := newFixture()
		a := f.node(t, 0, 0)
		b := f.node(t, 200, 0)
		outside := f.node(t, 500, 0)
		_, err := f.graph.CreateConnection(a.FixedOutputs[0].ID, b.FixedInputs[0].ID)
		require.NoError(t, err)
		_, err = f.graph.CreateConnection(b.FixedOutputs[0].ID, outside.FixedInputs[0].ID)
		require.NoError(t, err)
		g, err := f.groups.CreateGroup([]string{a.ID, b.ID}, "")
		require.NoError(t, err)

		assert.True(t, f.groups.DeleteGroup(g.ID, true))
		assert.Equal(t, 1, f.graph.Len())
		assert.Empty(t, f.graph.Connections())
		assert.NoError(t, graph.ValidateState(f.state()))
	})
}

func TestNodeDeletion_DropsMembership(t *testing.T) {
	f := newFixture()
	a := f.node(t, 0, 0)
	b := f.node(t, 200, 0)
	g, err := f.groups.CreateGroup([]string{a.ID, b.ID}, "")
	require.NoError(t, err)

	require.True(t, f.graph.DeleteNode(a.ID))
	got, _ := f.groups.Group(g.ID)
	assert.Equal(t, []string{b.ID}, got.ChildNodes)

	require.True(t, f.graph.DeleteNode(b.ID))
	got, ok := f.groups.Group(g.ID)
	require.True(t, ok, "empty groups are kept")
	assert.Empty(t, got.ChildNodes)
	assert.NoError(t, graph.ValidateState(f.state()))

	f.groups.Close()
	c := f.node(t, 0, 0)
	require.NoError(t, f.groups.AddNodeToGroup(g.ID, c.ID))
	f.graph.DeleteNode(c.ID)
	got, _ = f.groups.Group(g.ID)
	assert.Equal(t, []string{c.ID}, got.ChildNodes, "a closed store no longer follows the graph")
}

func TestRenameStyleLoad(t *testing.T) {
	f := newFixture()
	g, err := f.groups.CreateGroup([]string{f.node(t, 0, 0).ID}, "old")
	require.NoError(t, err)

	var kinds []domain.ChangeKind
	f.groups.AddGroupListener(domain.GroupListenerFunc(func(e domain.GroupEvent) { kinds = append(kinds, e.Kind) }))

	require.NoError(t, f.groups.RenameGroup(g.ID, "new"))
	require.NoError(t, f.groups.UpdateStyle(g.ID, domain.GroupStyle{Color: "#fff", Collapsed: true}))
	got, _ := f.groups.Group(g.ID)
	assert.Equal(t, "new", got.Title)
	assert.True(t, got.Style.Collapsed)

	snap := f.groups.Snapshot()
	f.groups.Clear()
	assert.Zero(t, f.groups.Len())
	f.groups.Load(snap)
	assert.Equal(t, snap, f.groups.Groups())
	assert.Equal(t, []domain.ChangeKind{domain.ChangeUpdated, domain.ChangeUpdated, domain.ChangeReset, domain.ChangeReset}, kinds)
}
