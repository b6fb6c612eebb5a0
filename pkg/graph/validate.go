package graph

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// ErrInvalidGraph is wrapped by every violation reported by ValidateState.
var ErrInvalidGraph = errors.New("invalid graph")

// Validate checks the structural invariants of the nodes and connections
// currently held by the store.
func (s *Store) Validate() error {
	nodes, conns := s.Snapshot()
	return ValidateState(domain.GraphState{Nodes: nodes, Connections: conns})
}

// ValidateState checks every structural invariant of a graph and of the
// subgraphs of its composite nodes. All violations are reported, joined.
func ValidateState(state domain.GraphState) error {
	return errors.Join(validateLevel(state, "")...)
}

func violation(scope, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if scope != "" {
		msg = scope + ": " + msg
	}
	return fmt.Errorf("%w: %s", ErrInvalidGraph, msg)
}

func validateLevel(state domain.GraphState, scope string) []error {
	var errs []error

	nodes := make(map[string]*domain.Node, len(state.Nodes))
	ports := make(map[string]*domain.Port)
	owner := make(map[string]string)
	for i := range state.Nodes {
		n := &state.Nodes[i]
		if _, dup := nodes[n.ID]; dup {
			errs = append(errs, violation(scope, "duplicate node id %q", n.ID))
		}
		nodes[n.ID] = n
		for _, kind := range portKinds {
			list := n.PortList(kind)
			for j := range *list {
				p := &(*list)[j]
				if prev, dup := owner[p.ID]; dup {
					errs = append(errs, violation(scope, "port %q shared by nodes %q and %q", p.ID, prev, n.ID))
				}
				owner[p.ID] = n.ID
				ports[p.ID] = p
				if p.NodeID != n.ID {
					errs = append(errs, violation(scope, "port %q of node %q claims node %q", p.ID, n.ID, p.NodeID))
				}
				if p.Direction != kind.Direction() {
					errs = append(errs, violation(scope, "port %q has direction %q in a %s list", p.ID, p.Direction, kind))
				}
			}
		}
	}

	conns := make(map[string]*domain.Connection, len(state.Connections))
	pairs := make(map[[2]string]string)
	for i := range state.Connections {
		c := &state.Connections[i]
		conns[c.ID] = c
		src, okSrc := ports[c.SourcePortID]
		tgt, okTgt := ports[c.TargetPortID]
		if !okSrc || !okTgt {
			errs = append(errs, violation(scope, "connection %q references a missing port", c.ID))
			continue
		}
		if owner[c.SourcePortID] != c.SourceNodeID || owner[c.TargetPortID] != c.TargetNodeID {
			errs = append(errs, violation(scope, "connection %q node ids do not match its ports", c.ID))
		}
		if c.SourceNodeID == c.TargetNodeID {
			errs = append(errs, violation(scope, "connection %q is a self-connection", c.ID))
		}
		if src.Direction != domain.DirectionOutput || tgt.Direction != domain.DirectionInput {
			errs = append(errs, violation(scope, "connection %q does not go from an output to an input", c.ID))
		}
		if !src.HasConnection(c.ID) || !tgt.HasConnection(c.ID) {
			errs = append(errs, violation(scope, "connection %q is not registered on both ports", c.ID))
		}
		pair := [2]string{c.SourcePortID, c.TargetPortID}
		if other, dup := pairs[pair]; dup {
			errs = append(errs, violation(scope, "connections %q and %q join the same ports", other, c.ID))
		}
		pairs[pair] = c.ID
	}

	for id, p := range ports {
		if p.MaxConnections != domain.Unlimited && len(p.Connections) > p.MaxConnections {
			errs = append(errs, violation(scope, "port %q holds %d connections, limit %d", id, len(p.Connections), p.MaxConnections))
		}
		seen := make(map[string]bool, len(p.Connections))
		for _, connID := range p.Connections {
			if seen[connID] {
				errs = append(errs, violation(scope, "port %q lists connection %q twice", id, connID))
			}
			seen[connID] = true
			c, ok := conns[connID]
			if !ok || (c.SourcePortID != id && c.TargetPortID != id) {
				errs = append(errs, violation(scope, "port %q lists foreign connection %q", id, connID))
			}
		}
	}

	member := make(map[string]string)
	for _, g := range state.NodeGroups {
		for _, nodeID := range g.ChildNodes {
			n, ok := nodes[nodeID]
			if !ok {
				errs = append(errs, violation(scope, "group %q lists missing node %q", g.ID, nodeID))
				continue
			}
			if n.GroupID != g.ID {
				errs = append(errs, violation(scope, "node %q in group %q carries group %q", nodeID, g.ID, n.GroupID))
			}
			if prev, dup := member[nodeID]; dup {
				errs = append(errs, violation(scope, "node %q belongs to groups %q and %q", nodeID, prev, g.ID))
			}
			member[nodeID] = g.ID
		}
	}
	for id, n := range nodes {
		if n.GroupID != "" && member[id] != n.GroupID {
			errs = append(errs, violation(scope, "node %q claims group %q which does not list it", id, n.GroupID))
		}
	}

	for _, n := range state.Nodes {
		if n.Subgraph != nil {
			errs = append(errs, validateLevel(*n.Subgraph, scope+"/"+n.ID)...)
		}
	}
	return errs
}
