package runtime

import (
	"github.com/aretw0/flowcanvas/pkg/domain"
)

// CompositeInset is the margin between the subgraph origin and the bounding
// box of the nodes extracted into it.
const CompositeInset = 40.0

// ConvertGroupToComposite replaces a group and its members with one composite
// node whose subgraph holds clones of the members and of the connections
// between them. Every member port that had a connection crossing the group
// boundary is exposed as a boundary port on the composite node, and the
// crossing connections are recreated against those ports. The whole change
// is recorded as a single history step.
//
// A group without members is left untouched and the zero Node is returned.
func (c *Controller) ConvertGroupToComposite(groupID string) (domain.Node, error) {
	g, ok := c.groups.Group(groupID)
	if !ok {
		return domain.Node{}, c.reject("convertGroupToComposite", domain.ReasonNotFound, groupID)
	}

	members := make(map[string]bool, len(g.ChildNodes))
	var nodes []domain.Node
	for _, id := range g.ChildNodes {
		if n, ok := c.graph.Node(id); ok {
			members[id] = true
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		return domain.Node{}, nil
	}

	var internal, external []domain.Connection
	for _, conn := range c.graph.Connections() {
		src, dst := members[conn.SourceNodeID], members[conn.TargetNodeID]
		switch {
		case src && dst:
			internal = append(internal, conn)
		case src || dst:
			external = append(external, conn)
		}
	}

	composite := domain.Node{
		ID:             c.ids.NewID(),
		Title:          g.Title,
		Type:           domain.NodeTypeComposite,
		Position:       g.Position,
		Width:          domain.DefaultNodeWidth,
		Height:         domain.DefaultNodeHeight,
		FixedInputs:    []domain.Port{},
		FixedOutputs:   []domain.Port{},
		DynamicInputs:  []domain.Port{},
		DynamicOutputs: []domain.Port{},
	}
	sub := extractSubgraph(nodes, internal)
	composite.Subgraph = &sub

	// inner port id -> boundary port id
	boundary := make(map[string]string)
	for _, conn := range external {
		inner := conn.SourcePortID
		if members[conn.TargetNodeID] {
			inner = conn.TargetPortID
		}
		if _, done := boundary[inner]; done {
			continue
		}
		p, _ := c.graph.Port(inner)
		kind := domain.PortFixedOutput
		if p.Direction == domain.DirectionInput {
			kind = domain.PortFixedInput
		}
		bp := domain.Port{
			ID:             c.ids.NewID(),
			NodeID:         composite.ID,
			Direction:      p.Direction,
			Name:           p.Name,
			MaxConnections: p.MaxConnections,
			Connections:    []string{},
			InnerPortID:    inner,
		}
		list := composite.PortList(kind)
		*list = append(*list, bp)
		boundary[inner] = bp.ID
	}

	c.history.BeginTransaction()
	c.dispatcher.Begin()

	// Releasing the members before deleting them keeps the group store from
	// touching nodes that are already gone.
	c.groups.DeleteGroup(groupID, false)
	c.graph.DeleteNodes(g.ChildNodes)

	created, err := c.graph.AddNode(composite)
	if err == nil {
		for _, conn := range external {
			src, dst := conn.SourcePortID, conn.TargetPortID
			if members[conn.SourceNodeID] {
				src = boundary[src]
			} else {
				dst = boundary[dst]
			}
			if _, err := c.graph.CreateConnectionWithData(src, dst, conn.Data); err != nil {
				c.logger.Warn("dropped boundary connection", "connection", conn.ID, "composite", composite.ID, "err", err)
			}
		}
	} else {
		c.logger.Error("failed to insert composite node", "group", groupID, "err", err)
	}

	c.dispatcher.End()
	final := c.State()
	c.history.EndTransaction(&final)
	c.writeBack()

	if err != nil {
		return domain.Node{}, err
	}
	c.logger.Info("group converted to composite",
		"group", groupID,
		"composite", created.ID,
		"nodes", len(nodes),
		"boundary_ports", len(boundary),
	)
	created, _ = c.graph.Node(created.ID)
	return created, nil
}

// extractSubgraph clones nodes and the connections between them into a new
// graph whose origin sits CompositeInset above and left of their bounding box.
func extractSubgraph(nodes []domain.Node, internal []domain.Connection) domain.GraphState {
	sub := domain.NewGraphState()
	box, _ := domain.Bounds(nodes)
	origin := box.Min.Sub(domain.Position{X: CompositeInset, Y: CompositeInset})

	kept := make(map[string]bool, len(internal))
	for _, conn := range internal {
		kept[conn.ID] = true
		sub.Connections = append(sub.Connections, conn.Clone())
	}
	for _, n := range nodes {
		clone := n.Clone()
		clone.Position = n.Position.Sub(origin)
		clone.GroupID = ""
		for _, kind := range []domain.PortKind{
			domain.PortFixedInput,
			domain.PortFixedOutput,
			domain.PortDynamicInput,
			domain.PortDynamicOutput,
		} {
			list := clone.PortList(kind)
			for i := range *list {
				p := &(*list)[i]
				conns := p.Connections[:0]
				for _, id := range p.Connections {
					if kept[id] {
						conns = append(conns, id)
					}
				}
				p.Connections = conns
			}
		}
		sub.Nodes = append(sub.Nodes, clone)
	}
	sub.Sort()
	return sub
}
