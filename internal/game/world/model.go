// Package world provides the tile map the simulation runs on: terrain,
// passability, line of sight, and spatial queries over live actors.
package world

import (
	"fmt"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
)

// Terrain is the content of one tile.
type Terrain byte

// Terrain glyphs as they appear in map files.
const (
	Floor  Terrain = '.'
	Wall   Terrain = '#'
	Water  Terrain = '~'
	Chasm  Terrain = ' '
	Stairs Terrain = '>'
)

// ParseTerrain maps a glyph to a Terrain.
func ParseTerrain(r byte) (Terrain, error) {
	switch t := Terrain(r); t {
	case Floor, Wall, Water, Chasm, Stairs:
		return t, nil
	default:
		return 0, fmt.Errorf("world: unknown terrain glyph %q", r)
	}
}

// PassableFor reports whether an actor with capability may stand on t.
func (t Terrain) PassableFor(capability nav.Capability) bool {
	switch t {
	case Floor, Stairs:
		return capability.Any(nav.Walk | nav.Fly)
	case Water:
		return capability.Any(nav.Swim | nav.Fly)
	case Chasm:
		return capability.Has(nav.Fly)
	default:
		return false
	}
}

// Opaque reports whether t blocks sight.
func (t Terrain) Opaque() bool {
	return t == Wall
}

// Spawn places Count instances of Template at At.
type Spawn struct {
	Template string
	At       geom.Coordinate
	Count    int
}

// Grid is a stack of equally sized levels.
//
// Invariant: every level has Height rows of Width tiles.
type Grid struct {
	ID     string
	Name   string
	Width  int
	Height int
	// tiles is indexed [z][y][x].
	tiles  [][][]Terrain
	Spawns []Spawn
}

// Depth returns the number of levels.
func (g *Grid) Depth() int {
	return len(g.tiles)
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c geom.Coordinate) bool {
	return c.Z >= 0 && c.Z < len(g.tiles) && c.Y >= 0 && c.Y < g.Height && c.X >= 0 && c.X < g.Width
}

// At returns the terrain at c; out-of-bounds tiles read as Wall.
func (g *Grid) At(c geom.Coordinate) Terrain {
	if !g.InBounds(c) {
		return Wall
	}
	return g.tiles[c.Z][c.Y][c.X]
}

// IsPassable implements nav.Passability.
func (g *Grid) IsPassable(c geom.Coordinate, capability nav.Capability) bool {
	return g.At(c).PassableFor(capability)
}

// IsOpaque reports whether c blocks sight. Out-of-bounds tiles are opaque.
func (g *Grid) IsOpaque(c geom.Coordinate) bool {
	return g.At(c).Opaque()
}

// CanMoveVertically reports whether a direct move between stacked tiles is
// allowed: walkers need stairs on both tiles, fliers may rise into or drop
// out of open air.
func (g *Grid) CanMoveVertically(from, to geom.Coordinate, capability nav.Capability) bool {
	if from.X != to.X || from.Y != to.Y {
		return false
	}
	if dz := to.Z - from.Z; dz != 1 && dz != -1 {
		return false
	}
	if !g.IsPassable(from, capability) || !g.IsPassable(to, capability) {
		return false
	}
	a, b := g.At(from), g.At(to)
	if a == Stairs && b == Stairs {
		return true
	}
	upper := a
	if to.Z > from.Z {
		upper = b
	}
	return capability.Has(nav.Fly) && upper == Chasm
}

// Validate checks grid invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (g *Grid) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("map ID must not be empty")
	}
	if len(g.tiles) == 0 {
		return fmt.Errorf("map %q: must contain at least one level", g.ID)
	}
	for z, level := range g.tiles {
		if len(level) != g.Height {
			return fmt.Errorf("map %q: level %d has %d rows, want %d", g.ID, z, len(level), g.Height)
		}
		for y, row := range level {
			if len(row) != g.Width {
				return fmt.Errorf("map %q: level %d row %d has %d tiles, want %d", g.ID, z, y, len(row), g.Width)
			}
		}
	}
	for i, s := range g.Spawns {
		if s.Template == "" {
			return fmt.Errorf("map %q: spawn %d: template must not be empty", g.ID, i)
		}
		if s.Count < 1 {
			return fmt.Errorf("map %q: spawn %d: count must be >= 1", g.ID, i)
		}
		if !g.InBounds(s.At) || g.At(s.At) == Wall {
			return fmt.Errorf("map %q: spawn %d: %v is not an open tile", g.ID, i, s.At)
		}
	}
	return nil
}

// NewGrid builds a grid from glyph rows, one slice of rows per level.
//
// Postcondition: Returns a validated Grid or an error naming the bad glyph or shape.
func NewGrid(id string, levels [][]string) (*Grid, error) {
	g := &Grid{ID: id}
	if len(levels) > 0 {
		g.Height = len(levels[0])
		if g.Height > 0 {
			g.Width = len(levels[0][0])
		}
	}
	for z, rows := range levels {
		level := make([][]Terrain, len(rows))
		for y, row := range rows {
			level[y] = make([]Terrain, len(row))
			for x := 0; x < len(row); x++ {
				t, err := ParseTerrain(row[x])
				if err != nil {
					return nil, fmt.Errorf("map %q: level %d (%d,%d): %w", id, z, x, y, err)
				}
				level[y][x] = t
			}
		}
		g.tiles = append(g.tiles, level)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
