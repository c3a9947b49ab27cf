package ai

import (
	"math"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/npc"
)

// fovEpsilon absorbs floating point error at the cone edge so a candidate
// exactly on the boundary is seen.
const fovEpsilon = 1e-9

// InFieldOfView reports whether to lies inside the cone of fov degrees
// centred on facing, as seen from from. The comparison is made on the
// horizontal plane.
//
// Postcondition: true when fov >= 360, when to shares from's column (directly
// above, below, or the same tile), or when the horizontal angle between facing
// and the offset is at most fov/2.
func InFieldOfView(facing geom.Direction, fov float64, from, to geom.Coordinate) bool {
	if fov >= 360 {
		return true
	}
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return true
	}
	fx, fy := facing.Vector()
	diff := math.Atan2(float64(dy), float64(dx)) - math.Atan2(float64(fy), float64(fx))
	for diff > math.Pi {
		diff -= 2 * math.Pi
	}
	for diff < -math.Pi {
		diff += 2 * math.Pi
	}
	return math.Abs(diff)*180/math.Pi <= fov/2+fovEpsilon
}

// Observe runs perception for self: range, field of view, line of sight,
// then disposition buckets. Candidates whose disposition cannot be resolved
// are ignored.
//
// Precondition: self.Behavior must be non-nil.
// Postcondition: Threats and Hostiles are in spawn order; Selected is nil.
func (d *Driver) Observe(self *npc.Instance) behavior.Observation {
	comp := self.Behavior
	var obs behavior.Observation
	for _, other := range d.space.ActorsInRange(self.Position, comp.VisionRange()) {
		if other.ID == self.ID || !other.IsActor() {
			continue
		}
		if !InFieldOfView(comp.Facing(), comp.FieldOfView(), self.Position, other.Position) {
			continue
		}
		if !d.space.IsVisible(self.Position, other.Position) {
			continue
		}
		disp, err := d.resolver.Resolve(&self.Descriptor, &other.Descriptor)
		if err != nil {
			continue
		}
		switch {
		case disp.IsThreat():
			obs.Threats = append(obs.Threats, other.Sighting())
		case disp.IsHostile():
			obs.Hostiles = append(obs.Hostiles, other.Sighting())
		}
	}
	return obs
}
