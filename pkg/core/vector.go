// pkg/core/vector.go
package core

import "math"

// Position is a point in world space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector is a displacement, velocity or acceleration in world space.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pos2 creates a Position from its coordinates
func Pos2(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Vec2 creates a Vector from its components
func Vec2(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

// Add returns the position displaced by v.
func (p Position) Add(v Vector) Position {
	return Position{
		X: p.X + v.X,
		Y: p.Y + v.Y,
	}
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Add returns the component-wise sum of two vectors.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		X: v.X + o.X,
		Y: v.Y + o.Y,
	}
}

// Times scales the vector by scalar. Zero yields the zero vector.
func (v Vector) Times(scalar float64) Vector {
	return Vector{
		X: v.X * scalar,
		Y: v.Y * scalar,
	}
}
