package geom

import "fmt"

// Direction is one of the eight compass headings.
type Direction int

// Compass headings in clockwise order starting north.
const (
	North Direction = iota
	Northeast
	East
	Southeast
	South
	Southwest
	West
	Northwest
)

// CompassDirections lists all eight headings clockwise from North.
var CompassDirections = []Direction{North, Northeast, East, Southeast, South, Southwest, West, Northwest}

var directionNames = [...]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

var directionVectors = [...][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// String returns the lowercase heading name.
func (d Direction) String() string {
	if d < North || d > Northwest {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Vector returns the unit tile offset (dx, dy) of the heading.
func (d Direction) Vector() (int, int) {
	v := directionVectors[d]
	return v[0], v[1]
}

// Step returns c moved n tiles along d on the same level.
func (d Direction) Step(c Coordinate, n int) Coordinate {
	dx, dy := d.Vector()
	return c.Add(dx*n, dy*n, 0)
}

// ParseDirection maps a heading name back to a Direction.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("geom: unknown direction %q", s)
}

// DirectionToward returns the heading whose vector is the sign of (to - from)
// on the horizontal plane.
//
// Postcondition: ok is false when from and to share x and y.
func DirectionToward(from, to Coordinate) (d Direction, ok bool) {
	sx, sy := sign(to.X-from.X), sign(to.Y-from.Y)
	if sx == 0 && sy == 0 {
		return North, false
	}
	for i, v := range directionVectors {
		if v[0] == sx && v[1] == sy {
			return Direction(i), true
		}
	}
	return North, false
}
