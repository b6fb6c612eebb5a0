package domain

// NodeTypeComposite is the type given to nodes created from a group.
const NodeTypeComposite = "composite"

// Default node geometry, used when a definition does not provide one.
const (
	DefaultNodeWidth  = 200.0
	DefaultNodeHeight = 100.0
)

// Node represents a typed box on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`

	FixedInputs    []Port `json:"fixed_inputs"`
	FixedOutputs   []Port `json:"fixed_outputs"`
	DynamicInputs  []Port `json:"dynamic_inputs"`
	DynamicOutputs []Port `json:"dynamic_outputs"`

	// Data is the caller-defined configuration tree of the node.
	Data map[string]any `json:"data,omitempty"`

	GroupID string `json:"group_id,omitempty"`

	// Subgraph makes the node a composite node.
	Subgraph *GraphState `json:"subgraph,omitempty"`
}

// IsComposite reports whether the node owns a nested graph.
func (n Node) IsComposite() bool {
	return n.Subgraph != nil
}

// PortList returns the list of the given kind.
func (n *Node) PortList(kind PortKind) *[]Port {
	switch kind {
	case PortFixedInput:
		return &n.FixedInputs
	case PortFixedOutput:
		return &n.FixedOutputs
	case PortDynamicInput:
		return &n.DynamicInputs
	default:
		return &n.DynamicOutputs
	}
}

var portKinds = []PortKind{PortFixedInput, PortFixedOutput, PortDynamicInput, PortDynamicOutput}

// Ports returns every port of the node, fixed inputs first.
func (n Node) Ports() []Port {
	out := make([]Port, 0, len(n.FixedInputs)+len(n.FixedOutputs)+len(n.DynamicInputs)+len(n.DynamicOutputs))
	out = append(out, n.FixedInputs...)
	out = append(out, n.FixedOutputs...)
	out = append(out, n.DynamicInputs...)
	out = append(out, n.DynamicOutputs...)
	return out
}

// FindPort returns a pointer to the port with the given id inside the node,
// together with the list it belongs to.
func (n *Node) FindPort(portID string) (*Port, PortKind, bool) {
	for _, kind := range portKinds {
		list := n.PortList(kind)
		for i := range *list {
			if (*list)[i].ID == portID {
				return &(*list)[i], kind, true
			}
		}
	}
	return nil, "", false
}

// RemovePort deletes the port from whichever list holds it.
func (n *Node) RemovePort(portID string) bool {
	for _, kind := range portKinds {
		list := n.PortList(kind)
		for i := range *list {
			if (*list)[i].ID == portID {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// PortByVariable returns the first port bound to the given template variable.
func (n *Node) PortByVariable(name string) (*Port, PortKind, bool) {
	for _, kind := range portKinds {
		list := n.PortList(kind)
		for i := range *list {
			if (*list)[i].VariableName == name {
				return &(*list)[i], kind, true
			}
		}
	}
	return nil, "", false
}

// Clone returns a deep copy of the node, including its subgraph.
func (n Node) Clone() Node {
	out := n
	out.FixedInputs = clonePorts(n.FixedInputs)
	out.FixedOutputs = clonePorts(n.FixedOutputs)
	out.DynamicInputs = clonePorts(n.DynamicInputs)
	out.DynamicOutputs = clonePorts(n.DynamicOutputs)
	out.Data = CloneData(n.Data)
	if n.Subgraph != nil {
		sub := n.Subgraph.Clone()
		out.Subgraph = &sub
	}
	return out
}

// Reidentify returns a copy of the node with a new id and fresh port ids.
// Port connection lists are cleared and group membership is dropped.
// The returned map translates old port ids to new ones.
func (n Node) Reidentify(id string, newID func() string) (Node, map[string]string) {
	out := n.Clone()
	out.ID = id
	out.GroupID = ""
	mapping := make(map[string]string)
	for _, kind := range portKinds {
		list := out.PortList(kind)
		for i := range *list {
			p := &(*list)[i]
			fresh := newID()
			mapping[p.ID] = fresh
			p.ID = fresh
			p.NodeID = id
			p.Connections = nil
		}
	}
	return out, mapping
}
