// Package clipboard duplicates nodes and sticky notes while preserving their
// relative layout.
//
// The clipboard holds value copies only, never live references: copying takes
// deep clones and every paste produces a new set of clones with freshly
// allocated identifiers.
package clipboard

import (
	"math"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ids"
)

// CascadeStep is the diagonal shift applied to each paste. The n-th
// consecutive paste at the same target point is shifted n steps.
const CascadeStep = 20.0

// Item is a copied entity and its offset from the copy's reference point.
type Item[T any] struct {
	Value  T
	Offset domain.Position
}

// Paste is the result of preparing a paste: entities ready to be inserted.
type Paste struct {
	Nodes       []domain.Node
	Notes       []domain.StickyNote
	Connections []domain.Connection

	// NodeIDs maps copied node ids to the ids of their pasted clones.
	NodeIDs map[string]string
}

// IsEmpty reports whether the paste carries nothing.
func (p Paste) IsEmpty() bool {
	return len(p.Nodes) == 0 && len(p.Notes) == 0
}

// Clipboard stores copied items. It is not safe for concurrent use.
type Clipboard struct {
	ids ids.Generator

	nodes       []Item[domain.Node]
	notes       []Item[domain.StickyNote]
	connections []domain.Connection

	lastTarget *domain.Position
	cascade    int
}

// New creates an empty clipboard that mints identifiers with gen.
func New(gen ids.Generator) *Clipboard {
	if gen == nil {
		gen = ids.UUID{}
	}
	return &Clipboard{ids: gen}
}

// Copy replaces the clipboard content. With more than one item, each item
// records its offset from the minimum x and y over all item positions; a lone
// item records none. Connections are kept only when both endpoints are among
// the copied nodes.
func (c *Clipboard) Copy(nodes []domain.Node, notes []domain.StickyNote, connections []domain.Connection) {
	c.Clear()

	var ref domain.Position
	if len(nodes)+len(notes) > 1 {
		ref = domain.Position{X: math.Inf(1), Y: math.Inf(1)}
		for _, n := range nodes {
			ref.X, ref.Y = math.Min(ref.X, n.Position.X), math.Min(ref.Y, n.Position.Y)
		}
		for _, n := range notes {
			ref.X, ref.Y = math.Min(ref.X, n.Position.X), math.Min(ref.Y, n.Position.Y)
		}
	}
	single := len(nodes)+len(notes) == 1

	copied := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		item := Item[domain.Node]{Value: n.Clone()}
		if !single {
			item.Offset = n.Position.Sub(ref)
		}
		c.nodes = append(c.nodes, item)
		copied[n.ID] = true
	}
	for _, n := range notes {
		item := Item[domain.StickyNote]{Value: n.Clone()}
		if !single {
			item.Offset = n.Position.Sub(ref)
		}
		c.notes = append(c.notes, item)
	}
	for _, conn := range connections {
		if copied[conn.SourceNodeID] && copied[conn.TargetNodeID] {
			c.connections = append(c.connections, conn.Clone())
		}
	}
}

// PreparePaste builds clones of the clipboard content positioned at target.
// Each item lands at target plus its offset plus a cascade shift of one step
// on the first paste, growing by one step with every consecutive paste at the
// same target. Every call mints new ids; the relative layout of the items is
// the same on every call.
func (c *Clipboard) PreparePaste(target domain.Position) Paste {
	if !c.CanPaste() {
		return Paste{}
	}
	if c.lastTarget != nil && *c.lastTarget == target {
		c.cascade++
	} else {
		c.cascade = 1
		c.lastTarget = &target
	}
	shift := domain.Position{X: CascadeStep * float64(c.cascade), Y: CascadeStep * float64(c.cascade)}
	base := target.Add(shift)

	out := Paste{NodeIDs: make(map[string]string, len(c.nodes))}
	portIDs := make(map[string]string)
	for _, item := range c.nodes {
		n, mapping := item.Value.Reidentify(c.ids.NewID(), c.ids.NewID)
		n.Position = base.Add(item.Offset)
		reidentifySubgraph(&n, c.ids.NewID)
		out.NodeIDs[item.Value.ID] = n.ID
		for old, fresh := range mapping {
			portIDs[old] = fresh
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, item := range c.notes {
		n := item.Value.Clone()
		n.ID = c.ids.NewID()
		n.Position = base.Add(item.Offset)
		out.Notes = append(out.Notes, n)
	}
	for _, conn := range c.connections {
		cp := conn.Clone()
		cp.ID = c.ids.NewID()
		cp.SourcePortID = portIDs[conn.SourcePortID]
		cp.TargetPortID = portIDs[conn.TargetPortID]
		cp.SourceNodeID = out.NodeIDs[conn.SourceNodeID]
		cp.TargetNodeID = out.NodeIDs[conn.TargetNodeID]
		out.Connections = append(out.Connections, cp)
	}
	return out
}

// CanPaste reports whether the clipboard holds anything.
func (c *Clipboard) CanPaste() bool {
	return len(c.nodes) > 0 || len(c.notes) > 0
}

// Len returns the number of copied nodes and notes.
func (c *Clipboard) Len() int {
	return len(c.nodes) + len(c.notes)
}

// Clear empties the clipboard and resets the cascade.
func (c *Clipboard) Clear() {
	c.nodes = nil
	c.notes = nil
	c.connections = nil
	c.lastTarget = nil
	c.cascade = 0
}

var portKinds = []domain.PortKind{
	domain.PortFixedInput,
	domain.PortFixedOutput,
	domain.PortDynamicInput,
	domain.PortDynamicOutput,
}

// reidentifySubgraph gives the subgraph of a composite node fresh ids and
// points the node's boundary ports at the renamed inner ports. Pasted
// composite nodes thus never share nested ids with their source.
func reidentifySubgraph(n *domain.Node, newID func() string) {
	if n.Subgraph == nil {
		return
	}
	sub, inner := reidentifyGraph(*n.Subgraph, newID)
	n.Subgraph = &sub
	for _, kind := range portKinds {
		list := n.PortList(kind)
		for i := range *list {
			if id := (*list)[i].InnerPortID; id != "" {
				(*list)[i].InnerPortID = inner[id]
			}
		}
	}
}

// reidentifyGraph gives fresh ids to every entity of a graph, recursively,
// rewriting the references between them. It returns the new graph and the
// old-to-new mapping of its port ids.
func reidentifyGraph(s domain.GraphState, newID func() string) (domain.GraphState, map[string]string) {
	out := s.Clone()
	nodeIDs := make(map[string]string, len(out.Nodes))
	portIDs := make(map[string]string)
	connIDs := make(map[string]string, len(out.Connections))
	groupIDs := make(map[string]string, len(out.NodeGroups))

	for _, c := range out.Connections {
		connIDs[c.ID] = newID()
	}
	for _, g := range out.NodeGroups {
		groupIDs[g.ID] = newID()
	}
	for i, n := range out.Nodes {
		fresh, mapping := n.Reidentify(newID(), newID)
		nodeIDs[n.ID] = fresh.ID
		for old, id := range mapping {
			portIDs[old] = id
		}
		fresh.GroupID = groupIDs[n.GroupID]
		for _, kind := range portKinds {
			orig := n.PortList(kind)
			list := fresh.PortList(kind)
			for j := range *list {
				conns := (*orig)[j].Connections
				if conns == nil {
					continue
				}
				(*list)[j].Connections = make([]string, len(conns))
				for k, id := range conns {
					(*list)[j].Connections[k] = connIDs[id]
				}
			}
		}
		reidentifySubgraph(&fresh, newID)
		out.Nodes[i] = fresh
	}
	for i := range out.Connections {
		c := &out.Connections[i]
		c.ID = connIDs[c.ID]
		c.SourcePortID = portIDs[c.SourcePortID]
		c.TargetPortID = portIDs[c.TargetPortID]
		c.SourceNodeID = nodeIDs[c.SourceNodeID]
		c.TargetNodeID = nodeIDs[c.TargetNodeID]
	}
	for i := range out.NodeGroups {
		g := &out.NodeGroups[i]
		g.ID = groupIDs[g.ID]
		children := make([]string, 0, len(g.ChildNodes))
		for _, id := range g.ChildNodes {
			children = append(children, nodeIDs[id])
		}
		g.ChildNodes = nil
		for _, id := range children {
			g.AddChild(id)
		}
	}
	for i := range out.StickyNotes {
		out.StickyNotes[i].ID = newID()
	}
	out.Sort()
	return out, portIDs
}
