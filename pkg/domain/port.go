package domain

// PortDirection is the flow direction of a port.
type PortDirection string

const (
	DirectionInput  PortDirection = "input"
	DirectionOutput PortDirection = "output"
)

// Unlimited marks a port that accepts any number of connections.
const Unlimited = -1

// PortKind selects one of the four port lists of a node.
type PortKind string

const (
	PortFixedInput    PortKind = "fixed_input"
	PortFixedOutput   PortKind = "fixed_output"
	PortDynamicInput  PortKind = "dynamic_input"
	PortDynamicOutput PortKind = "dynamic_output"
)

// Direction returns the direction implied by the kind.
func (k PortKind) Direction() PortDirection {
	if k == PortFixedInput || k == PortDynamicInput {
		return DirectionInput
	}
	return DirectionOutput
}

// Dynamic reports whether ports of this kind are dynamic.
func (k PortKind) Dynamic() bool {
	return k == PortDynamicInput || k == PortDynamicOutput
}

// Port is a directional attachment point on a node.
type Port struct {
	ID             string        `json:"id"`
	NodeID         string        `json:"node_id"`
	Direction      PortDirection `json:"direction"`
	Name           string        `json:"name"`
	MaxConnections int           `json:"max_connections"`
	Connections    []string      `json:"connections"`
	IsDynamic      bool          `json:"is_dynamic,omitempty"`
	VariableName   string        `json:"variable_name,omitempty"`
	Hidden         bool          `json:"hidden,omitempty"`
	OutputValue    any           `json:"output_value,omitempty"`

	// InnerPortID is set on the boundary ports of a composite node and names
	// the port inside the subgraph that the boundary port exposes.
	InnerPortID string `json:"inner_port_id,omitempty"`
}

// DefaultMaxConnections returns the cardinality a port gets when none is specified.
func DefaultMaxConnections(dir PortDirection) int {
	if dir == DirectionInput {
		return 1
	}
	return Unlimited
}

// Saturated reports whether the port cannot accept another connection.
func (p Port) Saturated() bool {
	return p.MaxConnections != Unlimited && len(p.Connections) >= p.MaxConnections
}

// HasConnection reports whether connID is registered on the port.
func (p Port) HasConnection(connID string) bool {
	for _, id := range p.Connections {
		if id == connID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the port.
func (p Port) Clone() Port {
	out := p
	out.Connections = cloneStrings(p.Connections)
	out.OutputValue = CloneValue(p.OutputValue)
	return out
}

func clonePorts(ports []Port) []Port {
	if ports == nil {
		return nil
	}
	out := make([]Port, len(ports))
	for i, p := range ports {
		out[i] = p.Clone()
	}
	return out
}
