package domain

import "math"

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Add returns p translated by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the offset from o to p.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min Position
	Max Position
}

// Width of the rectangle.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height of the rectangle.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Bounds computes the bounding box of the given nodes.
// It reports false when nodes is empty.
func Bounds(nodes []Node) (Rect, bool) {
	if len(nodes) == 0 {
		return Rect{}, false
	}
	r := Rect{
		Min: Position{X: math.Inf(1), Y: math.Inf(1)},
		Max: Position{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, n := range nodes {
		r.Min.X = math.Min(r.Min.X, n.Position.X)
		r.Min.Y = math.Min(r.Min.Y, n.Position.Y)
		r.Max.X = math.Max(r.Max.X, n.Position.X+n.Width)
		r.Max.Y = math.Max(r.Max.Y, n.Position.Y+n.Height)
	}
	return r, true
}
