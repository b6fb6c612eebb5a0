package runtime

import (
	"slices"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Path returns the chain of composite node ids leading from the root to the
// active graph. It is empty while the root is active.
func (c *Controller) Path() []string {
	return slices.Clone(c.path)
}

// ActiveID returns the id of the composite node whose subgraph is active, or
// domain.RootID.
func (c *Controller) ActiveID() string {
	if len(c.path) == 0 {
		return domain.RootID
	}
	return c.path[len(c.path)-1]
}

// writeBack stores the live state into the slot that owns the active graph.
func (c *Controller) writeBack() {
	active := c.State()
	if len(c.path) == 0 {
		active.Metadata = c.root.Metadata
		c.root = active
		return
	}
	owner, ok := c.root.FindNode(c.ActiveID())
	if !ok {
		// The owning node is always in the tree while its subgraph is active.
		c.logger.Error("active graph has no owner", "node", c.ActiveID())
		return
	}
	owner.Subgraph = &active
}

// enter makes the graph at path active and starts a fresh history for it.
func (c *Controller) enter(path []string) {
	c.path = path
	s := c.root
	if len(path) > 0 {
		owner, _ := c.root.FindNode(path[len(path)-1])
		s = *owner.Subgraph
	}
	c.load(s)
	c.history.Reset(c.State())
	c.logger.Debug("graph activated", "graph", c.ActiveID(), "depth", len(path))
}

// NavigateTo makes the subgraph of nodeID active. The node may be anywhere in
// the document. A node without a subgraph gets an empty one and becomes
// composite.
func (c *Controller) NavigateTo(nodeID string) error {
	c.writeBack()
	path, ok := c.root.PathTo(nodeID)
	if !ok {
		return c.reject("navigateTo", domain.ReasonNotFound, nodeID)
	}
	node, _ := c.root.FindNode(nodeID)
	if node.Subgraph == nil {
		empty := domain.NewGraphState()
		node.Subgraph = &empty
	}
	c.enter(path)
	return nil
}

// NavigateUpTo makes an ancestor of the active graph active. The target is
// either a node on the current path or domain.RootID.
func (c *Controller) NavigateUpTo(nodeID string) error {
	if nodeID == domain.RootID {
		c.writeBack()
		c.enter(nil)
		return nil
	}
	i := slices.Index(c.path, nodeID)
	if i < 0 {
		return c.reject("navigateUpTo", domain.ReasonNotFound, nodeID)
	}
	c.writeBack()
	c.enter(slices.Clone(c.path[:i+1]))
	return nil
}

// Document returns a copy of the whole document with the active graph written
// back into its slot.
func (c *Controller) Document() domain.GraphState {
	c.writeBack()
	return c.root.Clone()
}

// LoadDocument replaces the document and activates its root graph.
func (c *Controller) LoadDocument(doc domain.GraphState) {
	c.root = doc.Clone()
	c.enter(nil)
}
