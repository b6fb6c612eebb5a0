package domain

// ChangeKind classifies a change notification.
type ChangeKind string

const (
	ChangeCreated     ChangeKind = "created"
	ChangeUpdated     ChangeKind = "updated"
	ChangeMoved       ChangeKind = "moved"
	ChangeResized     ChangeKind = "resized"
	ChangeDeleted     ChangeKind = "deleted"
	ChangePortAdded   ChangeKind = "port_added"
	ChangePortUpdated ChangeKind = "port_updated"
	ChangePortRemoved ChangeKind = "port_removed"

	// ChangeReset is emitted once when a store is bulk loaded or cleared.
	ChangeReset ChangeKind = "reset"
)

// NodeEvent describes a change to a node or one of its ports.
// Node holds a copy of the node after the change (before it, for deletions).
type NodeEvent struct {
	Kind   ChangeKind
	NodeID string
	PortID string
	Node   Node
}

// ConnectionEvent describes a created or deleted connection.
type ConnectionEvent struct {
	Kind       ChangeKind
	Connection Connection
}

// NoteEvent describes a change to a sticky note.
type NoteEvent struct {
	Kind   ChangeKind
	NoteID string
	Note   StickyNote
}

// GroupEvent describes a change to a node group.
type GroupEvent struct {
	Kind    ChangeKind
	GroupID string
	Group   NodeGroup
}

// NodeListener observes node changes.
type NodeListener interface {
	NodeChanged(NodeEvent)
}

// NodeListenerFunc adapts a function to NodeListener.
type NodeListenerFunc func(NodeEvent)

func (f NodeListenerFunc) NodeChanged(e NodeEvent) { f(e) }

// ConnectionListener observes connection changes.
type ConnectionListener interface {
	ConnectionChanged(ConnectionEvent)
}

// ConnectionListenerFunc adapts a function to ConnectionListener.
type ConnectionListenerFunc func(ConnectionEvent)

func (f ConnectionListenerFunc) ConnectionChanged(e ConnectionEvent) { f(e) }

// NoteListener observes sticky note changes.
type NoteListener interface {
	NoteChanged(NoteEvent)
}

// NoteListenerFunc adapts a function to NoteListener.
type NoteListenerFunc func(NoteEvent)

func (f NoteListenerFunc) NoteChanged(e NoteEvent) { f(e) }

// GroupListener observes node group changes.
type GroupListener interface {
	GroupChanged(GroupEvent)
}

// GroupListenerFunc adapts a function to GroupListener.
type GroupListenerFunc func(GroupEvent)

func (f GroupListenerFunc) GroupChanged(e GroupEvent) { f(e) }

// FailureListener observes rejected operations.
type FailureListener interface {
	OperationFailed(*RejectError)
}

// FailureListenerFunc adapts a function to FailureListener.
type FailureListenerFunc func(*RejectError)

func (f FailureListenerFunc) OperationFailed(e *RejectError) { f(e) }
