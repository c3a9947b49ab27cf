// Package geom provides tile coordinates, compass directions, and the distance
// metrics used by perception and movement.
package geom

import (
	"fmt"
	"math"
)

// Coordinate is a tile position. X grows east, Y grows south, Z is the level.
type Coordinate struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// C is shorthand for a Coordinate literal.
func C(x, y, z int) Coordinate {
	return Coordinate{X: x, Y: y, Z: z}
}

// String renders the coordinate as "(x,y,z)".
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Add returns c offset by (dx, dy, dz).
func (c Coordinate) Add(dx, dy, dz int) Coordinate {
	return Coordinate{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Euclidean returns the straight-line distance between a and b over all three axes.
//
// Postcondition: result >= 0; Euclidean(a, b) == Euclidean(b, a).
func Euclidean(a, b Coordinate) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// AxisSum returns |dx|+|dy|+|dz|. Diagonals are not shortened.
func AxisSum(a, b Coordinate) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

// Chebyshev2D returns max(|dx|, |dy|), ignoring the level axis.
func Chebyshev2D(a, b Coordinate) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
