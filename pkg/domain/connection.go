package domain

// Connection is a directed link from an output port to an input port.
type Connection struct {
	ID           string         `json:"id"`
	SourcePortID string         `json:"source_port_id"`
	TargetPortID string         `json:"target_port_id"`
	SourceNodeID string         `json:"source_node_id"`
	TargetNodeID string         `json:"target_node_id"`
	Data         map[string]any `json:"data,omitempty"`
}

// Clone returns a deep copy of the connection.
func (c Connection) Clone() Connection {
	out := c
	out.Data = CloneData(c.Data)
	return out
}

// Touches reports whether the connection has nodeID as one of its endpoints.
func (c Connection) Touches(nodeID string) bool {
	return c.SourceNodeID == nodeID || c.TargetNodeID == nodeID
}
