package domain

import (
	"reflect"
)

// EntityDelta lists the ids of one entity type that changed between two states.
type EntityDelta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// IsEmpty reports whether the delta carries no ids.
func (d EntityDelta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// StateDiff represents the changes between two graph states.
// It is designed to be serialized to JSON so clients can refresh only what moved.
type StateDiff struct {
	Nodes       *EntityDelta `json:"nodes,omitempty"`
	Connections *EntityDelta `json:"connections,omitempty"`
	StickyNotes *EntityDelta `json:"sticky_notes,omitempty"`
	NodeGroups  *EntityDelta `json:"node_groups,omitempty"`
	ViewState   *ViewState   `json:"view_state,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, every entity of newState is reported as added (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *GraphState) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = &GraphState{}
	}

	diff := &StateDiff{
		Nodes:       diffEntities(index(oldState.Nodes, func(n Node) string { return n.ID }), index(newState.Nodes, func(n Node) string { return n.ID })),
		Connections: diffEntities(index(oldState.Connections, func(c Connection) string { return c.ID }), index(newState.Connections, func(c Connection) string { return c.ID })),
		StickyNotes: diffEntities(index(oldState.StickyNotes, func(n StickyNote) string { return n.ID }), index(newState.StickyNotes, func(n StickyNote) string { return n.ID })),
		NodeGroups:  diffEntities(index(oldState.NodeGroups, func(g NodeGroup) string { return g.ID }), index(newState.NodeGroups, func(g NodeGroup) string { return g.ID })),
	}
	if oldState.ViewState != newState.ViewState {
		view := newState.ViewState
		diff.ViewState = &view
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

type indexed[T any] struct {
	order []string
	byID  map[string]T
}

func index[T any](items []T, id func(T) string) indexed[T] {
	out := indexed[T]{byID: make(map[string]T, len(items))}
	for _, it := range items {
		k := id(it)
		out.order = append(out.order, k)
		out.byID[k] = it
	}
	return out
}

func diffEntities[T any](old, new indexed[T]) *EntityDelta {
	delta := &EntityDelta{}
	for _, id := range new.order {
		oldVal, exists := old.byID[id]
		if !exists {
			delta.Added = append(delta.Added, id)
			continue
		}
		if !reflect.DeepEqual(oldVal, new.byID[id]) {
			delta.Changed = append(delta.Changed, id)
		}
	}
	for _, id := range old.order {
		if _, exists := new.byID[id]; !exists {
			delta.Removed = append(delta.Removed, id)
		}
	}
	if delta.IsEmpty() {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Nodes == nil &&
		d.Connections == nil &&
		d.StickyNotes == nil &&
		d.NodeGroups == nil &&
		d.ViewState == nil
}
