package behavior

import (
	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// Sighting is one perceived actor.
type Sighting struct {
	ID         string
	Position   geom.Coordinate
	Descriptor disposition.Descriptor
}

// GrowthContext carries per-actor overrides coming from progression systems.
// Nil fields fall back to the component configuration.
type GrowthContext struct {
	FleeThreshold *float64
	AllowChase    *bool
}

// Observation is what perception produced for one actor this tick.
type Observation struct {
	Threats  []Sighting
	Hostiles []Sighting
	// Selected is the hostile chosen by the target policy, if any.
	Selected *Sighting
	Growth   *GrowthContext
}

// FleeIntent asks the actor to flee from a threat.
type FleeIntent struct {
	ThreatID string
	Position geom.Coordinate
}

// SpotIntent asks the actor to adopt a target.
type SpotIntent struct {
	TargetID      string
	Position      geom.Coordinate
	FleeThreshold *float64
	AllowChase    *bool
}

// LoseIntent asks the actor to forget its current target.
type LoseIntent struct {
	TargetID  string
	LastKnown *geom.Coordinate
}

// TransitionResult is the intent computed for one tick. At most one of Flee,
// Spot and Lose is set; EnterEnrage may accompany any of them.
type TransitionResult struct {
	EnterEnrage bool
	Flee        *FleeIntent
	Spot        *SpotIntent
	Lose        *LoseIntent
}

// Empty reports whether the result asks for nothing.
func (r TransitionResult) Empty() bool {
	return !r.EnterEnrage && r.Flee == nil && r.Spot == nil && r.Lose == nil
}

// ComputeTransition derives the next-tick intent from an observation and a
// snapshot of the actor's behavior component. It is pure.
//
// Rules, evaluated in order:
//  1. Phase: not FLEE or ENRAGE and HP at or below the first phase threshold
//     sets EnterEnrage.
//  2. Threat: threats present and not already FLEE flees the nearest threat.
//  3. Target: otherwise a selected target while not FLEE spots it.
//  4. Loss: with no threats and no selection, a remembered target is lost.
func ComputeTransition(obs Observation, snap Snapshot, actorID string, pos geom.Coordinate) TransitionResult {
	var res TransitionResult

	if snap.State != Flee && snap.State != Enrage && len(snap.PhaseThresholds) > 0 &&
		snap.HPFraction <= snap.PhaseThresholds[0] {
		res.EnterEnrage = true
	}

	switch {
	case len(obs.Threats) > 0:
		if snap.State != Flee {
			nearest := nearestSighting(pos, obs.Threats)
			res.Flee = &FleeIntent{ThreatID: nearest.ID, Position: nearest.Position}
		}
	case obs.Selected != nil:
		if snap.State != Flee {
			spot := &SpotIntent{TargetID: obs.Selected.ID, Position: obs.Selected.Position}
			if obs.Growth != nil {
				spot.FleeThreshold = obs.Growth.FleeThreshold
				spot.AllowChase = obs.Growth.AllowChase
			}
			res.Spot = spot
		}
	case snap.TargetID != "":
		res.Lose = &LoseIntent{TargetID: snap.TargetID, LastKnown: copyCoord(snap.LastKnown)}
	}
	return res
}

// nearestSighting returns the first sighting at minimal Euclidean distance.
//
// Precondition: sightings is non-empty.
func nearestSighting(from geom.Coordinate, sightings []Sighting) Sighting {
	best := sightings[0]
	bestDist := geom.Euclidean(from, best.Position)
	for _, s := range sightings[1:] {
		if d := geom.Euclidean(from, s.Position); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}
