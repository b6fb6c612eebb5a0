package domain

import "sort"

// RootID addresses the top-level graph, which is not owned by any node.
const RootID = "root"

// ViewState is the camera over the canvas.
type ViewState struct {
	Zoom   float64  `json:"zoom"`
	Offset Position `json:"offset"`
}

// DefaultViewState is the camera of a fresh graph.
var DefaultViewState = ViewState{Zoom: 1}

// GraphState is a self-contained snapshot of one graph.
// Entity slices are kept ordered by id so that equal graphs are deep-equal.
type GraphState struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	StickyNotes []StickyNote `json:"sticky_notes"`
	NodeGroups  []NodeGroup  `json:"node_groups"`
	ViewState   ViewState    `json:"view_state"`

	// Metadata carries document-level annotations (name, format version, envelopes).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewGraphState returns an empty graph with the default camera.
func NewGraphState() GraphState {
	return GraphState{
		Nodes:       []Node{},
		Connections: []Connection{},
		StickyNotes: []StickyNote{},
		NodeGroups:  []NodeGroup{},
		ViewState:   DefaultViewState,
	}
}

// Clone returns a deep copy of the state, recursively including subgraphs.
func (s GraphState) Clone() GraphState {
	out := GraphState{
		ViewState: s.ViewState,
		Metadata:  cloneStringMap(s.Metadata),
	}
	if s.Nodes != nil {
		out.Nodes = make([]Node, len(s.Nodes))
		for i, n := range s.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if s.Connections != nil {
		out.Connections = make([]Connection, len(s.Connections))
		for i, c := range s.Connections {
			out.Connections[i] = c.Clone()
		}
	}
	if s.StickyNotes != nil {
		out.StickyNotes = make([]StickyNote, len(s.StickyNotes))
		copy(out.StickyNotes, s.StickyNotes)
	}
	if s.NodeGroups != nil {
		out.NodeGroups = make([]NodeGroup, len(s.NodeGroups))
		for i, g := range s.NodeGroups {
			out.NodeGroups[i] = g.Clone()
		}
	}
	return out
}

// CloneGraphState is a Copier-compatible form of GraphState.Clone.
func CloneGraphState(s GraphState) GraphState {
	return s.Clone()
}

// Sort orders every entity slice by id.
func (s *GraphState) Sort() {
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].ID < s.Nodes[j].ID })
	sort.Slice(s.Connections, func(i, j int) bool { return s.Connections[i].ID < s.Connections[j].ID })
	sort.Slice(s.StickyNotes, func(i, j int) bool { return s.StickyNotes[i].ID < s.StickyNotes[j].ID })
	sort.Slice(s.NodeGroups, func(i, j int) bool { return s.NodeGroups[i].ID < s.NodeGroups[j].ID })
}

// Node returns the node with the given id at this level only.
func (s *GraphState) Node(id string) (*Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// FindNode searches the whole tree of subgraphs for the node with the given id.
func (s *GraphState) FindNode(id string) (*Node, bool) {
	path, ok := s.PathTo(id)
	if !ok {
		return nil, false
	}
	cur := s
	var node *Node
	for _, step := range path {
		node, _ = cur.Node(step)
		cur = node.Subgraph
	}
	return node, true
}

// PathTo returns the chain of node ids leading from this graph to the node
// with the given id, the node itself last. Every element but the last is a
// composite node.
func (s *GraphState) PathTo(id string) ([]string, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return []string{id}, true
		}
	}
	for i := range s.Nodes {
		sub := s.Nodes[i].Subgraph
		if sub == nil {
			continue
		}
		if rest, ok := sub.PathTo(id); ok {
			return append([]string{s.Nodes[i].ID}, rest...), true
		}
	}
	return nil, false
}

// Count returns the number of entities at this level.
func (s GraphState) Count() int {
	return len(s.Nodes) + len(s.Connections) + len(s.StickyNotes) + len(s.NodeGroups)
}
