package world

import (
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
	"github.com/Motifman/llm-rpg-sub007/internal/game/npc"
)

// Space answers spatial queries over the grid and the live actor arena.
//
// Invariant: grid and actors are non-nil.
type Space struct {
	grid   *Grid
	actors *npc.Manager
}

// NewSpace binds a grid to an arena.
//
// Precondition: grid and actors must not be nil.
func NewSpace(grid *Grid, actors *npc.Manager) *Space {
	if grid == nil || actors == nil {
		panic("world.NewSpace: grid and actors must not be nil")
	}
	return &Space{grid: grid, actors: actors}
}

// Grid returns the underlying tile map.
func (s *Space) Grid() *Grid {
	return s.grid
}

// ActorsInRange returns every instance within radius of center, including
// non-actors; callers filter.
func (s *Space) ActorsInRange(center geom.Coordinate, radius float64) []*npc.Instance {
	return s.actors.InRange(center, radius)
}

// IsVisible reports whether b can be seen from a.
func (s *Space) IsVisible(a, b geom.Coordinate) bool {
	return s.grid.LineOfSight(a, b)
}

// IsPassable implements nav.Passability.
func (s *Space) IsPassable(c geom.Coordinate, capability nav.Capability) bool {
	return s.grid.IsPassable(c, capability)
}

// GetActor looks up an instance by id.
func (s *Space) GetActor(id string) (*npc.Instance, bool) {
	return s.actors.Get(id)
}

// PackLeader returns the instance leading packID.
func (s *Space) PackLeader(packID string) (*npc.Instance, bool) {
	return s.actors.PackLeader(packID)
}
