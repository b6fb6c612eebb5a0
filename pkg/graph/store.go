// Package graph implements the store that owns nodes, ports and connections and
// keeps their cross references consistent under incremental edits.
//
// Entities live in id-keyed maps; relationships are expressed only through ids
// (port.Connections on one side, Connection.SourcePortID/TargetPortID on the
// other). Every query returns a copy, so callers can never reach live state.
//
// Rejected edits return a *domain.RejectError and are also reported to the
// failure listeners. Edits on entities that no longer exist (deletes) are
// silent no-ops.
package graph

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/aretw0/flowcanvas/pkg/notify"
)

// Store owns the nodes, ports and connections of one graph.
// It is not safe for concurrent use.
type Store struct {
	nodes       map[string]*domain.Node
	connections map[string]*domain.Connection
	portOwner   map[string]string

	dispatcher *notify.Dispatcher
	ids        ids.Generator
	logger     *slog.Logger

	nodeListeners    notify.Listeners[domain.NodeEvent]
	connListeners    notify.Listeners[domain.ConnectionEvent]
	failureListeners notify.Listeners[*domain.RejectError]
}

// Option configures a Store.
type Option func(*Store)

// WithDispatcher shares a notification dispatcher with other stores so that
// operations spanning several stores are delivered as one batch.
func WithDispatcher(d *notify.Dispatcher) Option {
	return func(s *Store) {
		s.dispatcher = d
	}
}

// WithIDGenerator sets the identifier allocator.
func WithIDGenerator(g ids.Generator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithLogger sets the logger used for rejected operations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nodes:       make(map[string]*domain.Node),
		connections: make(map[string]*domain.Connection),
		portOwner:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = notify.NewDispatcher()
	}
	if s.ids == nil {
		s.ids = ids.UUID{}
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

// Dispatcher returns the dispatcher the store delivers notifications on.
func (s *Store) Dispatcher() *notify.Dispatcher {
	return s.dispatcher
}

// AddNodeListener subscribes l to node changes.
func (s *Store) AddNodeListener(l domain.NodeListener) func() {
	return s.nodeListeners.Add(l.NodeChanged)
}

// AddConnectionListener subscribes l to connection changes.
func (s *Store) AddConnectionListener(l domain.ConnectionListener) func() {
	return s.connListeners.Add(l.ConnectionChanged)
}

// AddFailureListener subscribes l to rejected operations.
func (s *Store) AddFailureListener(l domain.FailureListener) func() {
	return s.failureListeners.Add(l.OperationFailed)
}

func (s *Store) reject(op string, reason domain.Reason, entities ...string) error {
	err := domain.Reject(op, reason, entities...)
	s.logger.Debug("graph operation rejected", "op", op, "reason", reason, "entities", strings.Join(entities, ","))
	s.failureListeners.Emit(s.dispatcher, err)
	return err
}

func (s *Store) emitNode(kind domain.ChangeKind, n *domain.Node, portID string) {
	s.nodeListeners.Emit(s.dispatcher, domain.NodeEvent{
		Kind:   kind,
		NodeID: n.ID,
		PortID: portID,
		Node:   n.Clone(),
	})
}

func (s *Store) emitConnection(kind domain.ChangeKind, c *domain.Connection) {
	s.connListeners.Emit(s.dispatcher, domain.ConnectionEvent{Kind: kind, Connection: c.Clone()})
}

// CreateNode instantiates a definition at the given position.
// The definition's data defaults are copied and any template reference they
// contain immediately produces a dynamic input port.
func (s *Store) CreateNode(def domain.Definition, pos domain.Position) (domain.Node, error) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	id := s.ids.NewID()
	if _, exists := s.nodes[id]; exists {
		return domain.Node{}, s.reject("createNode", domain.ReasonConflict, id)
	}

	w, h := def.Size()
	n := &domain.Node{
		ID:             id,
		Title:          def.Title,
		Type:           def.ID,
		Position:       pos,
		Width:          w,
		Height:         h,
		FixedInputs:    make([]domain.Port, 0, len(def.DefaultInputs)),
		FixedOutputs:   make([]domain.Port, 0, len(def.DefaultOutputs)),
		DynamicInputs:  []domain.Port{},
		DynamicOutputs: []domain.Port{},
		Data:           domain.CloneData(def.DefaultDataValues),
	}
	for _, t := range def.DefaultInputs {
		n.FixedInputs = append(n.FixedInputs, s.newPort(id, domain.PortFixedInput, t))
	}
	for _, t := range def.DefaultOutputs {
		n.FixedOutputs = append(n.FixedOutputs, s.newPort(id, domain.PortFixedOutput, t))
	}

	s.insertNode(n)
	s.emitNode(domain.ChangeCreated, n, "")

	_, added := domain.DiffReferences(nil, n.Data)
	s.syncDynamicPorts(n, nil, added)

	return n.Clone(), nil
}

// AddNode inserts a pre-built node, as produced by a paste or a composite
// extraction. Port connection lists are cleared and group membership is
// dropped: connections and groups are owned by their own operations.
func (s *Store) AddNode(node domain.Node) (domain.Node, error) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	if node.ID == "" {
		node.ID = s.ids.NewID()
	}
	if _, exists := s.nodes[node.ID]; exists {
		return domain.Node{}, s.reject("addNode", domain.ReasonConflict, node.ID)
	}

	n := node.Clone()
	n.GroupID = ""
	seen := make(map[string]bool)
	for _, p := range n.Ports() {
		_, taken := s.portOwner[p.ID]
		if p.ID == "" || taken || seen[p.ID] {
			return domain.Node{}, s.reject("addNode", domain.ReasonConflict, n.ID, p.ID)
		}
		seen[p.ID] = true
	}
	for _, kind := range portKinds {
		list := n.PortList(kind)
		for i := range *list {
			p := &(*list)[i]
			p.NodeID = n.ID
			p.Direction = kind.Direction()
			p.IsDynamic = kind.Dynamic()
			p.Connections = nil
		}
	}

	s.insertNode(&n)
	s.emitNode(domain.ChangeCreated, &n, "")
	return n.Clone(), nil
}

var portKinds = []domain.PortKind{
	domain.PortFixedInput,
	domain.PortFixedOutput,
	domain.PortDynamicInput,
	domain.PortDynamicOutput,
}

func (s *Store) insertNode(n *domain.Node) {
	s.nodes[n.ID] = n
	for _, p := range n.Ports() {
		s.portOwner[p.ID] = n.ID
	}
}

// UpdateNodeData replaces the data tree of a node and synchronizes its dynamic
// input ports with the template references that appeared or disappeared
// between oldData and newData. A nil oldData stands for the node's current data.
func (s *Store) UpdateNodeData(nodeID string, newData, oldData map[string]any) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return s.reject("updateNodeData", domain.ReasonNotFound, nodeID)
	}
	if oldData == nil {
		oldData = n.Data
	}
	removed, added := domain.DiffReferences(oldData, newData)

	n.Data = domain.CloneData(newData)
	s.emitNode(domain.ChangeUpdated, n, "")
	s.syncDynamicPorts(n, removed, added)
	return nil
}

// syncDynamicPorts removes the dynamic input port bound to each removed
// reference and creates one for each added reference that has no port yet.
// Removal is keyed on the variable name alone: a port the user renamed or
// hid still goes when its reference disappears.
func (s *Store) syncDynamicPorts(n *domain.Node, removed, added []string) {
	for _, ref := range removed {
		for _, p := range n.DynamicInputs {
			if p.VariableName == ref {
				s.removePort(n, p.ID)
				break
			}
		}
	}
	for _, ref := range added {
		if _, _, exists := n.PortByVariable(ref); exists {
			continue
		}
		p := s.newPort(n.ID, domain.PortDynamicInput, domain.PortTemplate{Name: ref})
		p.VariableName = ref
		n.DynamicInputs = append(n.DynamicInputs, p)
		s.portOwner[p.ID] = n.ID
		s.emitNode(domain.ChangePortAdded, n, p.ID)
	}
}

// RenameNode sets the title of a node.
func (s *Store) RenameNode(nodeID, title string) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return s.reject("renameNode", domain.ReasonNotFound, nodeID)
	}
	n.Title = title
	s.emitNode(domain.ChangeUpdated, n, "")
	return nil
}

// MoveNode places a node at an absolute position.
func (s *Store) MoveNode(nodeID string, pos domain.Position) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return s.reject("moveNode", domain.ReasonNotFound, nodeID)
	}
	n.Position = pos
	s.emitNode(domain.ChangeMoved, n, "")
	return nil
}

// MoveNodes translates every existing node of ids by delta in one batch.
// It returns the number of nodes moved.
func (s *Store) MoveNodes(nodeIDs []string, delta domain.Position) int {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	moved := 0
	for _, id := range nodeIDs {
		n, ok := s.nodes[id]
		if !ok {
			continue
		}
		n.Position = n.Position.Add(delta)
		s.emitNode(domain.ChangeMoved, n, "")
		moved++
	}
	return moved
}

// ResizeNode sets the size of a node. Both dimensions must be positive.
func (s *Store) ResizeNode(nodeID string, width, height float64) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return s.reject("resizeNode", domain.ReasonNotFound, nodeID)
	}
	if width <= 0 || height <= 0 {
		return s.reject("resizeNode", domain.ReasonInvalidSize, nodeID)
	}
	n.Width, n.Height = width, height
	s.emitNode(domain.ChangeResized, n, "")
	return nil
}

// SetNodeGroup records the group a node belongs to. An empty groupID clears it.
// Membership itself is maintained by the group store.
func (s *Store) SetNodeGroup(nodeID, groupID string) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return s.reject("setNodeGroup", domain.ReasonNotFound, nodeID)
	}
	if n.GroupID == groupID {
		return nil
	}
	n.GroupID = groupID
	s.emitNode(domain.ChangeUpdated, n, "")
	return nil
}

// DeleteNode removes a node together with every connection touching it.
// It reports false when the node does not exist.
func (s *Store) DeleteNode(nodeID string) bool {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.nodes[nodeID]
	if !ok {
		return false
	}
	for _, c := range s.sortedConnections() {
		if c.Touches(nodeID) {
			s.deleteConnection(c.ID)
		}
	}
	for _, p := range n.Ports() {
		delete(s.portOwner, p.ID)
	}
	delete(s.nodes, nodeID)
	s.emitNode(domain.ChangeDeleted, n, "")
	return true
}

// DeleteNodes removes several nodes in one batch and returns how many existed.
func (s *Store) DeleteNodes(nodeIDs []string) int {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	deleted := 0
	for _, id := range nodeIDs {
		if s.DeleteNode(id) {
			deleted++
		}
	}
	return deleted
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(nodeID string) (domain.Node, bool) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.Node{}, false
	}
	return n.Clone(), true
}

// Nodes returns copies of every node, ordered by id.
func (s *Store) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(s.nodes))
	for _, id := range sortedKeys(s.nodes) {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// Load replaces the content of the store with copies of the given entities.
// The entities are trusted to be consistent; use ValidateState beforehand
// when they come from an untrusted source.
func (s *Store) Load(nodes []domain.Node, connections []domain.Connection) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	s.reset()
	for _, n := range nodes {
		cp := n.Clone()
		s.insertNode(&cp)
	}
	for _, c := range connections {
		cp := c.Clone()
		s.connections[cp.ID] = &cp
	}
	s.emitReset()
}

// Clear removes every node and connection.
func (s *Store) Clear() {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	s.reset()
	s.emitReset()
}

func (s *Store) reset() {
	clear(s.nodes)
	clear(s.connections)
	clear(s.portOwner)
}

func (s *Store) emitReset() {
	s.nodeListeners.Emit(s.dispatcher, domain.NodeEvent{Kind: domain.ChangeReset})
	s.connListeners.Emit(s.dispatcher, domain.ConnectionEvent{Kind: domain.ChangeReset})
}

// Snapshot returns copies of every node and connection, ordered by id.
func (s *Store) Snapshot() ([]domain.Node, []domain.Connection) {
	return s.Nodes(), s.Connections()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
