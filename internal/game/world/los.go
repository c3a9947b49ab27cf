package world

import "github.com/Motifman/llm-rpg-sub007/internal/game/geom"

// LineOfSight reports whether nothing opaque lies strictly between a and b.
// The endpoints themselves never block, so an actor standing in a doorway
// or against a wall can still be seen. Tiles off the grid block.
func (g *Grid) LineOfSight(a, b geom.Coordinate) bool {
	for _, c := range Line(a, b) {
		if c == a || c == b {
			continue
		}
		if g.IsOpaque(c) {
			return false
		}
	}
	return true
}

// Line returns the 3D Bresenham line from a to b, inclusive of both ends.
func Line(a, b geom.Coordinate) []geom.Coordinate {
	dx, dy, dz := absInt(b.X-a.X), absInt(b.Y-a.Y), absInt(b.Z-a.Z)
	sx, sy, sz := signInt(b.X-a.X), signInt(b.Y-a.Y), signInt(b.Z-a.Z)
	x, y, z := a.X, a.Y, a.Z
	out := []geom.Coordinate{a}

	switch {
	case dx >= dy && dx >= dz:
		e1, e2 := 2*dy-dx, 2*dz-dx
		for i := 0; i < dx; i++ {
			if e1 > 0 {
				y += sy
				e1 -= 2 * dx
			}
			if e2 > 0 {
				z += sz
				e2 -= 2 * dx
			}
			e1 += 2 * dy
			e2 += 2 * dz
			x += sx
			out = append(out, geom.C(x, y, z))
		}
	case dy >= dx && dy >= dz:
		e1, e2 := 2*dx-dy, 2*dz-dy
		for i := 0; i < dy; i++ {
			if e1 > 0 {
				x += sx
				e1 -= 2 * dy
			}
			if e2 > 0 {
				z += sz
				e2 -= 2 * dy
			}
			e1 += 2 * dx
			e2 += 2 * dz
			y += sy
			out = append(out, geom.C(x, y, z))
		}
	default:
		e1, e2 := 2*dy-dz, 2*dx-dz
		for i := 0; i < dz; i++ {
			if e1 > 0 {
				y += sy
				e1 -= 2 * dz
			}
			if e2 > 0 {
				x += sx
				e2 -= 2 * dz
			}
			e1 += 2 * dy
			e2 += 2 * dx
			z += sz
			out = append(out, geom.C(x, y, z))
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
