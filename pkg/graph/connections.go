package graph

import (
	"slices"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// CreateConnection links an output port to an input port.
func (s *Store) CreateConnection(sourcePortID, targetPortID string) (domain.Connection, error) {
	return s.CreateConnectionWithData(sourcePortID, targetPortID, nil)
}

// CreateConnectionWithData links an output port to an input port and attaches
// a copy of data to the connection.
//
// Validation stops at the first failing check, in this order: both ports
// exist, they belong to different nodes, the source is an output and the
// target an input, the target has room, the source has room, the pair is not
// already connected. When the same pair is already connected, the existing
// connection does not count against either port's capacity, so the request is
// reported as a duplicate.
func (s *Store) CreateConnectionWithData(sourcePortID, targetPortID string, data map[string]any) (domain.Connection, error) {
	const op = "createConnection"

	s.dispatcher.Begin()
	defer s.dispatcher.End()

	srcNode, src, okSrc := s.lookupPort(sourcePortID)
	tgtNode, tgt, okTgt := s.lookupPort(targetPortID)
	if !okSrc || !okTgt {
		var missing []string
		if !okSrc {
			missing = append(missing, sourcePortID)
		}
		if !okTgt {
			missing = append(missing, targetPortID)
		}
		return domain.Connection{}, s.reject(op, domain.ReasonNotFound, missing...)
	}
	if srcNode.ID == tgtNode.ID {
		return domain.Connection{}, s.reject(op, domain.ReasonSelfConnection, sourcePortID, targetPortID)
	}
	if src.Direction != domain.DirectionOutput || tgt.Direction != domain.DirectionInput {
		return domain.Connection{}, s.reject(op, domain.ReasonInvalidDirection, sourcePortID, targetPortID)
	}

	existing, duplicate := s.findPair(src, targetPortID)
	discount := 0
	if duplicate {
		discount = 1
	}
	if full(tgt, discount) {
		return domain.Connection{}, s.reject(op, domain.ReasonTargetSaturated, targetPortID)
	}
	if full(src, discount) {
		return domain.Connection{}, s.reject(op, domain.ReasonSourceSaturated, sourcePortID)
	}
	if duplicate {
		return domain.Connection{}, s.reject(op, domain.ReasonDuplicate, existing, sourcePortID, targetPortID)
	}

	c := &domain.Connection{
		ID:           s.ids.NewID(),
		SourcePortID: sourcePortID,
		TargetPortID: targetPortID,
		SourceNodeID: srcNode.ID,
		TargetNodeID: tgtNode.ID,
		Data:         domain.CloneData(data),
	}
	if _, exists := s.connections[c.ID]; exists {
		return domain.Connection{}, s.reject(op, domain.ReasonConflict, c.ID)
	}
	s.connections[c.ID] = c
	src.Connections = append(src.Connections, c.ID)
	tgt.Connections = append(tgt.Connections, c.ID)

	s.emitConnection(domain.ChangeCreated, c)
	return c.Clone(), nil
}

func full(p *domain.Port, discount int) bool {
	return p.MaxConnections != domain.Unlimited && len(p.Connections)-discount >= p.MaxConnections
}

// findPair returns the id of the connection from src to targetPortID, if any.
func (s *Store) findPair(src *domain.Port, targetPortID string) (string, bool) {
	for _, id := range src.Connections {
		if c, ok := s.connections[id]; ok && c.TargetPortID == targetPortID {
			return id, true
		}
	}
	return "", false
}

// DeleteConnection removes a connection and unregisters it from both ports.
// It reports false when the connection does not exist.
func (s *Store) DeleteConnection(connID string) bool {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	return s.deleteConnection(connID)
}

// DeleteConnections removes several connections in one batch and returns how
// many existed.
func (s *Store) DeleteConnections(connIDs []string) int {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	deleted := 0
	for _, id := range connIDs {
		if s.deleteConnection(id) {
			deleted++
		}
	}
	return deleted
}

func (s *Store) deleteConnection(connID string) bool {
	c, ok := s.connections[connID]
	if !ok {
		return false
	}
	for _, portID := range []string{c.SourcePortID, c.TargetPortID} {
		if _, p, ok := s.lookupPort(portID); ok {
			p.Connections = slices.DeleteFunc(p.Connections, func(id string) bool { return id == connID })
		}
	}
	delete(s.connections, connID)
	s.emitConnection(domain.ChangeDeleted, c)
	return true
}

// Connection returns a copy of the connection with the given id.
func (s *Store) Connection(connID string) (domain.Connection, bool) {
	c, ok := s.connections[connID]
	if !ok {
		return domain.Connection{}, false
	}
	return c.Clone(), true
}

// Connections returns copies of every connection, ordered by id.
func (s *Store) Connections() []domain.Connection {
	out := make([]domain.Connection, 0, len(s.connections))
	for _, c := range s.sortedConnections() {
		out = append(out, c.Clone())
	}
	return out
}

// ConnectionsOf returns copies of the connections touching a node, ordered by id.
func (s *Store) ConnectionsOf(nodeID string) []domain.Connection {
	var out []domain.Connection
	for _, c := range s.sortedConnections() {
		if c.Touches(nodeID) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (s *Store) sortedConnections() []*domain.Connection {
	out := make([]*domain.Connection, 0, len(s.connections))
	for _, id := range sortedKeys(s.connections) {
		out = append(out, s.connections[id])
	}
	return out
}
