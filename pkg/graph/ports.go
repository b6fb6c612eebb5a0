package graph

import "github.com/aretw0/flowcanvas/pkg/domain"

// PortUpdate lists the port fields to change. Nil fields are left untouched.
type PortUpdate struct {
	Name           *string
	MaxConnections *int
	Hidden         *bool
	VariableName   *string
	OutputValue    any
}

func (s *Store) newPort(nodeID string, kind domain.PortKind, t domain.PortTemplate) domain.Port {
	dir := kind.Direction()
	limit := t.MaxConnections
	if limit == 0 {
		limit = domain.DefaultMaxConnections(dir)
	}
	return domain.Port{
		ID:             s.ids.NewID(),
		NodeID:         nodeID,
		Direction:      dir,
		Name:           t.Name,
		MaxConnections: limit,
		Connections:    []string{},
		IsDynamic:      kind.Dynamic(),
	}
}

// AddPort appends a port of the given kind to a node.
func (s *Store) AddPort(nodeID string, kind domain.PortKind, t domain.PortTemplate) (domain.Port, error) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.Port{}, s.reject("addPort", domain.ReasonNotFound, nodeID)
	}
	p := s.newPort(nodeID, kind, t)
	return s.appendPort(n, kind, p), nil
}

// AddDynamicInputPort appends a dynamic input port bound to a template variable.
func (s *Store) AddDynamicInputPort(nodeID, name, variableName string) (domain.Port, error) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.Port{}, s.reject("addDynamicInputPort", domain.ReasonNotFound, nodeID)
	}
	p := s.newPort(nodeID, domain.PortDynamicInput, domain.PortTemplate{Name: name})
	p.VariableName = variableName
	return s.appendPort(n, domain.PortDynamicInput, p), nil
}

// AddDynamicOutputPort appends a dynamic output port.
func (s *Store) AddDynamicOutputPort(nodeID, name string) (domain.Port, error) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.Port{}, s.reject("addDynamicOutputPort", domain.ReasonNotFound, nodeID)
	}
	p := s.newPort(nodeID, domain.PortDynamicOutput, domain.PortTemplate{Name: name})
	return s.appendPort(n, domain.PortDynamicOutput, p), nil
}

func (s *Store) appendPort(n *domain.Node, kind domain.PortKind, p domain.Port) domain.Port {
	list := n.PortList(kind)
	*list = append(*list, p)
	s.portOwner[p.ID] = n.ID
	s.emitNode(domain.ChangePortAdded, n, p.ID)
	return p.Clone()
}

// UpdatePort changes the mutable fields of a port. Lowering MaxConnections
// below the number of connections already attached is rejected.
func (s *Store) UpdatePort(portID string, u PortUpdate) (domain.Port, error) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, p, ok := s.lookupPort(portID)
	if !ok {
		return domain.Port{}, s.reject("updatePort", domain.ReasonNotFound, portID)
	}
	if u.MaxConnections != nil {
		limit := *u.MaxConnections
		if limit != domain.Unlimited && (limit < 1 || limit < len(p.Connections)) {
			return domain.Port{}, s.reject("updatePort", domain.ReasonCardinality, portID)
		}
		p.MaxConnections = limit
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Hidden != nil {
		p.Hidden = *u.Hidden
	}
	if u.VariableName != nil {
		p.VariableName = *u.VariableName
	}
	if u.OutputValue != nil {
		p.OutputValue = domain.CloneValue(u.OutputValue)
	}
	s.emitNode(domain.ChangePortUpdated, n, portID)
	return p.Clone(), nil
}

// RemovePort deletes a port after deleting every connection attached to it.
// It reports false when the port does not exist.
func (s *Store) RemovePort(portID string) bool {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, _, ok := s.lookupPort(portID)
	if !ok {
		return false
	}
	s.removePort(n, portID)
	return true
}

func (s *Store) removePort(n *domain.Node, portID string) {
	p, _, ok := n.FindPort(portID)
	if !ok {
		return
	}
	for _, connID := range append([]string(nil), p.Connections...) {
		s.deleteConnection(connID)
	}
	n.RemovePort(portID)
	delete(s.portOwner, portID)
	s.emitNode(domain.ChangePortRemoved, n, portID)
}

// Port returns a copy of the port with the given id.
func (s *Store) Port(portID string) (domain.Port, bool) {
	_, p, ok := s.lookupPort(portID)
	if !ok {
		return domain.Port{}, false
	}
	return p.Clone(), true
}

func (s *Store) lookupPort(portID string) (*domain.Node, *domain.Port, bool) {
	nodeID, ok := s.portOwner[portID]
	if !ok {
		return nil, nil, false
	}
	n := s.nodes[nodeID]
	p, _, ok := n.FindPort(portID)
	if !ok {
		return nil, nil, false
	}
	return n, p, true
}
