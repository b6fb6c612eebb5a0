// Package group owns node groups: titled frames around a set of member nodes.
//
// Membership is recorded on both sides, in NodeGroup.ChildNodes and in
// Node.GroupID on the graph store. The group store is the only writer of
// either side and keeps them in agreement; it also listens to node deletions
// on the graph store so that a group never lists a node that is gone.
package group

import (
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/aretw0/flowcanvas/pkg/notify"
)

// Store holds node groups bound to a graph store.
// It is not safe for concurrent use.
type Store struct {
	graph  *graph.Store
	groups map[string]*domain.NodeGroup

	ids    ids.Generator
	logger *slog.Logger

	listeners        notify.Listeners[domain.GroupEvent]
	failureListeners notify.Listeners[*domain.RejectError]
	unsubscribe      func()
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the identifier allocator.
func WithIDGenerator(g ids.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a group store over g. Notifications go through g's dispatcher,
// so moving a group and its members is delivered as one batch.
func New(g *graph.Store, opts ...Option) *Store {
	s := &Store{
		graph:  g,
		groups: make(map[string]*domain.NodeGroup),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = ids.UUID{}
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.unsubscribe = g.AddNodeListener(domain.NodeListenerFunc(s.nodeChanged))
	return s
}

// Close detaches the store from the graph store.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Store) dispatcher() *notify.Dispatcher {
	return s.graph.Dispatcher()
}

// AddGroupListener subscribes l to group changes.
func (s *Store) AddGroupListener(l domain.GroupListener) func() {
	return s.listeners.Add(l.GroupChanged)
}

// AddFailureListener subscribes l to rejected group operations.
func (s *Store) AddFailureListener(l domain.FailureListener) func() {
	return s.failureListeners.Add(l.OperationFailed)
}

func (s *Store) reject(op string, reason domain.Reason, entities ...string) error {
	err := domain.Reject(op, reason, entities...)
	s.logger.Debug("group operation rejected", "op", op, "reason", reason, "entities", strings.Join(entities, ","))
	s.failureListeners.Emit(s.dispatcher(), err)
	return err
}

func (s *Store) emit(kind domain.ChangeKind, g *domain.NodeGroup) {
	s.listeners.Emit(s.dispatcher(), domain.GroupEvent{Kind: kind, GroupID: g.ID, Group: g.Clone()})
}

// nodeChanged drops deleted nodes from their group. Empty groups are kept.
func (s *Store) nodeChanged(e domain.NodeEvent) {
	if e.Kind != domain.ChangeDeleted || e.Node.GroupID == "" {
		return
	}
	g, ok := s.groups[e.Node.GroupID]
	if !ok || !g.RemoveChild(e.NodeID) {
		return
	}
	s.emit(domain.ChangeUpdated, g)
}

// CreateGroup frames the given nodes. The frame is their bounding box padded
// on every side, with a header band above, and never smaller than the group
// minimums. Nodes already in another group leave it first. Unknown ids are
// ignored; when none of the ids exists the request is rejected.
func (s *Store) CreateGroup(nodeIDs []string, title string) (domain.NodeGroup, error) {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	var members []domain.Node
	seen := make(map[string]bool)
	for _, id := range nodeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := s.graph.Node(id); ok {
			members = append(members, n)
		}
	}
	box, ok := domain.Bounds(members)
	if !ok {
		return domain.NodeGroup{}, s.reject("createGroup", domain.ReasonEmptySelection, nodeIDs...)
	}

	g := &domain.NodeGroup{
		ID:    s.ids.NewID(),
		Title: title,
		Position: domain.Position{
			X: box.Min.X - domain.GroupPadding,
			Y: box.Min.Y - domain.GroupPadding - domain.GroupHeaderHeight,
		},
		Width:      math.Max(box.Width()+2*domain.GroupPadding, domain.GroupMinWidth),
		Height:     math.Max(box.Height()+2*domain.GroupPadding+domain.GroupHeaderHeight, domain.GroupMinHeight),
		ChildNodes: make([]string, 0, len(members)),
		Style:      domain.DefaultGroupStyle,
	}
	if _, exists := s.groups[g.ID]; exists {
		return domain.NodeGroup{}, s.reject("createGroup", domain.ReasonConflict, g.ID)
	}
	s.groups[g.ID] = g
	s.emit(domain.ChangeCreated, g)

	for _, n := range members {
		s.join(g, n)
	}
	return g.Clone(), nil
}

// join moves a node into g, evicting it from its previous group.
func (s *Store) join(g *domain.NodeGroup, n domain.Node) {
	if n.GroupID == g.ID {
		return
	}
	if prev, ok := s.groups[n.GroupID]; ok && prev.RemoveChild(n.ID) {
		s.emit(domain.ChangeUpdated, prev)
	}
	g.AddChild(n.ID)
	_ = s.graph.SetNodeGroup(n.ID, g.ID)
	s.emit(domain.ChangeUpdated, g)
}

// MoveGroup translates the frame and every member node by delta, delivered
// as a single notification batch.
func (s *Store) MoveGroup(groupID string, delta domain.Position) error {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	g, ok := s.groups[groupID]
	if !ok {
		return s.reject("moveGroup", domain.ReasonNotFound, groupID)
	}
	g.Position = g.Position.Add(delta)
	s.graph.MoveNodes(g.ChildNodes, delta)
	s.emit(domain.ChangeMoved, g)
	return nil
}

// ResizeGroup sets the frame size, clamped to the group minimums.
func (s *Store) ResizeGroup(groupID string, width, height float64) error {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	g, ok := s.groups[groupID]
	if !ok {
		return s.reject("resizeGroup", domain.ReasonNotFound, groupID)
	}
	g.Width = math.Max(width, domain.GroupMinWidth)
	g.Height = math.Max(height, domain.GroupMinHeight)
	s.emit(domain.ChangeResized, g)
	return nil
}

// RenameGroup sets the title of a group.
func (s *Store) RenameGroup(groupID, title string) error {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	g, ok := s.groups[groupID]
	if !ok {
		return s.reject("renameGroup", domain.ReasonNotFound, groupID)
	}
	g.Title = title
	s.emit(domain.ChangeUpdated, g)
	return nil
}

// UpdateStyle sets the style of a group.
func (s *Store) UpdateStyle(groupID string, style domain.GroupStyle) error {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	g, ok := s.groups[groupID]
	if !ok {
		return s.reject("updateGroupStyle", domain.ReasonNotFound, groupID)
	}
	g.Style = style
	s.emit(domain.ChangeUpdated, g)
	return nil
}

// AddNodeToGroup makes a node a member of a group, leaving any previous group.
func (s *Store) AddNodeToGroup(groupID, nodeID string) error {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	g, ok := s.groups[groupID]
	if !ok {
		return s.reject("addNodeToGroup", domain.ReasonNotFound, groupID)
	}
	n, ok := s.graph.Node(nodeID)
	if !ok {
		return s.reject("addNodeToGroup", domain.ReasonNotFound, nodeID)
	}
	s.join(g, n)
	return nil
}

// RemoveNodeFromGroup clears the membership of a node. It reports false when
// the node is not in any group.
func (s *Store) RemoveNodeFromGroup(nodeID string) bool {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	n, ok := s.graph.Node(nodeID)
	if !ok || n.GroupID == "" {
		return false
	}
	if g, ok := s.groups[n.GroupID]; ok && g.RemoveChild(nodeID) {
		s.emit(domain.ChangeUpdated, g)
	}
	_ = s.graph.SetNodeGroup(nodeID, "")
	return true
}

// DeleteGroup removes a group. With deleteChildren the member nodes are
// deleted as well (cascading their connections); otherwise they are only
// released from the group. It reports false when the group does not exist.
func (s *Store) DeleteGroup(groupID string, deleteChildren bool) bool {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	g, ok := s.groups[groupID]
	if !ok {
		return false
	}
	children := append([]string(nil), g.ChildNodes...)
	if deleteChildren {
		s.graph.DeleteNodes(children)
	} else {
		for _, id := range children {
			_ = s.graph.SetNodeGroup(id, "")
		}
	}
	delete(s.groups, groupID)
	s.emit(domain.ChangeDeleted, g)
	return true
}

// Group returns a copy of the group with the given id.
func (s *Store) Group(groupID string) (domain.NodeGroup, bool) {
	g, ok := s.groups[groupID]
	if !ok {
		return domain.NodeGroup{}, false
	}
	return g.Clone(), true
}

// GroupOf returns the group a node belongs to.
func (s *Store) GroupOf(nodeID string) (domain.NodeGroup, bool) {
	n, ok := s.graph.Node(nodeID)
	if !ok || n.GroupID == "" {
		return domain.NodeGroup{}, false
	}
	return s.Group(n.GroupID)
}

// Groups returns copies of every group, ordered by id.
func (s *Store) Groups() []domain.NodeGroup {
	out := make([]domain.NodeGroup, 0, len(s.groups))
	for _, id := range sortedIDs(s.groups) {
		out = append(out, s.groups[id].Clone())
	}
	return out
}

// Len returns the number of groups.
func (s *Store) Len() int {
	return len(s.groups)
}

// Snapshot is Groups.
func (s *Store) Snapshot() []domain.NodeGroup {
	return s.Groups()
}

// Load replaces every group. Member nodes are expected to carry the matching
// GroupID already, as they do in a snapshot.
func (s *Store) Load(groups []domain.NodeGroup) {
	d := s.dispatcher()
	d.Begin()
	defer d.End()

	clear(s.groups)
	for _, g := range groups {
		cp := g.Clone()
		s.groups[cp.ID] = &cp
	}
	s.listeners.Emit(d, domain.GroupEvent{Kind: domain.ChangeReset})
}

// Clear removes every group without touching the nodes.
func (s *Store) Clear() {
	s.Load(nil)
}

func sortedIDs(m map[string]*domain.NodeGroup) []string {
	return slices.Sorted(maps.Keys(m))
}
