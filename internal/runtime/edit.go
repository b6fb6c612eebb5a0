package runtime

import (
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Selection names entities of the active graph.
type Selection struct {
	Nodes  []string `json:"nodes,omitempty"`
	Notes  []string `json:"notes,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.Nodes) == 0 && len(s.Notes) == 0 && len(s.Groups) == 0
}

// CreateNode instantiates the catalog definition definitionID at pos.
func (c *Controller) CreateNode(definitionID string, pos domain.Position) (domain.Node, error) {
	if c.catalog == nil {
		return domain.Node{}, ErrNoCatalog
	}
	def, err := c.catalog.Definition(definitionID)
	if err != nil {
		return domain.Node{}, fmt.Errorf("failed to resolve definition %q: %w", definitionID, err)
	}
	return c.graph.CreateNode(def, pos)
}

// DeleteSelection removes the selected entities in one step. Selected groups
// are removed together with their members. It returns how many entities were
// removed, not counting cascaded connections.
func (c *Controller) DeleteSelection(sel Selection) int {
	c.dispatcher.Begin()
	defer c.dispatcher.End()

	removed := 0
	for _, id := range sel.Groups {
		before := c.graph.Len()
		if c.groups.DeleteGroup(id, true) {
			removed += 1 + before - c.graph.Len()
		}
	}
	removed += c.graph.DeleteNodes(sel.Nodes)
	removed += c.notes.DeleteNotes(sel.Notes)
	return removed
}

// Copy puts the selected nodes and notes on the clipboard, along with the
// connections between the selected nodes. Members of selected groups are
// copied as nodes. It returns the number of items copied.
func (c *Controller) Copy(sel Selection) int {
	picked := make(map[string]bool)
	var nodes []domain.Node
	pick := func(id string) {
		if picked[id] {
			return
		}
		if n, ok := c.graph.Node(id); ok {
			picked[id] = true
			nodes = append(nodes, n)
		}
	}
	for _, id := range sel.Groups {
		if g, ok := c.groups.Group(id); ok {
			for _, member := range g.ChildNodes {
				pick(member)
			}
		}
	}
	for _, id := range sel.Nodes {
		pick(id)
	}

	var notes []domain.StickyNote
	for _, id := range sel.Notes {
		if n, ok := c.notes.Note(id); ok {
			notes = append(notes, n)
		}
	}

	var conns []domain.Connection
	for _, conn := range c.graph.Connections() {
		if picked[conn.SourceNodeID] && picked[conn.TargetNodeID] {
			conns = append(conns, conn)
		}
	}

	c.clipboard.Copy(nodes, notes, conns)
	return len(nodes) + len(notes)
}

// Paste inserts the clipboard content at target as one step and returns the
// ids of the inserted entities. An empty clipboard pastes nothing.
func (c *Controller) Paste(target domain.Position) Selection {
	if !c.clipboard.CanPaste() {
		return Selection{}
	}
	p := c.clipboard.PreparePaste(target)

	c.dispatcher.Begin()
	defer c.dispatcher.End()

	var out Selection
	for _, n := range p.Nodes {
		added, err := c.graph.AddNode(n)
		if err != nil {
			c.logger.Warn("skipped pasted node", "node", n.ID, "err", err)
			continue
		}
		out.Nodes = append(out.Nodes, added.ID)
	}
	for _, n := range p.Notes {
		added, err := c.notes.AddNote(n)
		if err != nil {
			c.logger.Warn("skipped pasted note", "note", n.ID, "err", err)
			continue
		}
		out.Notes = append(out.Notes, added.ID)
	}
	for _, conn := range p.Connections {
		if _, err := c.graph.CreateConnectionWithData(conn.SourcePortID, conn.TargetPortID, conn.Data); err != nil {
			c.logger.Warn("skipped pasted connection", "connection", conn.ID, "err", err)
		}
	}
	return out
}
