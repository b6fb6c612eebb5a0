package domain

import "sort"

// Group layout constants.
const (
	GroupPadding      = 20.0
	GroupHeaderHeight = 40.0
	GroupMinWidth     = 200.0
	GroupMinHeight    = 120.0
)

// GroupStyle describes how a group frame is painted.
type GroupStyle struct {
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed,omitempty"`
}

// DefaultGroupStyle is applied to newly created groups.
var DefaultGroupStyle = GroupStyle{Color: "#90caf9"}

// NodeGroup is a titled frame around a set of member nodes.
type NodeGroup struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Position   Position   `json:"position"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	ChildNodes []string   `json:"child_nodes"`
	Style      GroupStyle `json:"style"`
}

// HasChild reports whether nodeID is a member.
func (g NodeGroup) HasChild(nodeID string) bool {
	i := sort.SearchStrings(g.ChildNodes, nodeID)
	return i < len(g.ChildNodes) && g.ChildNodes[i] == nodeID
}

// AddChild inserts nodeID keeping ChildNodes sorted and unique.
func (g *NodeGroup) AddChild(nodeID string) bool {
	i := sort.SearchStrings(g.ChildNodes, nodeID)
	if i < len(g.ChildNodes) && g.ChildNodes[i] == nodeID {
		return false
	}
	g.ChildNodes = append(g.ChildNodes, "")
	copy(g.ChildNodes[i+1:], g.ChildNodes[i:])
	g.ChildNodes[i] = nodeID
	return true
}

// RemoveChild drops nodeID from the member set.
func (g *NodeGroup) RemoveChild(nodeID string) bool {
	i := sort.SearchStrings(g.ChildNodes, nodeID)
	if i >= len(g.ChildNodes) || g.ChildNodes[i] != nodeID {
		return false
	}
	g.ChildNodes = append(g.ChildNodes[:i], g.ChildNodes[i+1:]...)
	return true
}

// Clone returns a deep copy of the group.
func (g NodeGroup) Clone() NodeGroup {
	out := g
	out.ChildNodes = cloneStrings(g.ChildNodes)
	return out
}
