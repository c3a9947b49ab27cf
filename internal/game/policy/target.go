// Package policy holds the pluggable target and skill selection strategies
// consulted by the behavior engine each tick.
package policy

import (
	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// TargetContext carries optional per-candidate tables keyed by actor id.
type TargetContext struct {
	ThreatScores map[string]float64
	HPFractions  map[string]float64
}

// TargetPolicy chooses at most one candidate.
//
// Postcondition: ok is false exactly when no candidate is chosen; an empty
// candidate list always yields false.
type TargetPolicy interface {
	SelectTarget(self behavior.Sighting, candidates []behavior.Sighting, tc *TargetContext) (target behavior.Sighting, ok bool)
}

// Nearest picks the candidate at minimal Euclidean distance, keeping the
// first one found on ties.
type Nearest struct{}

func (Nearest) SelectTarget(self behavior.Sighting, candidates []behavior.Sighting, _ *TargetContext) (behavior.Sighting, bool) {
	if len(candidates) == 0 {
		return behavior.Sighting{}, false
	}
	best := candidates[0]
	bestDist := geom.Euclidean(self.Position, best.Position)
	for _, c := range candidates[1:] {
		if d := geom.Euclidean(self.Position, c.Position); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, true
}

// HighestThreat picks the maximum threat score. Missing ids score 0. Without
// a score table it behaves like Nearest.
type HighestThreat struct{}

func (HighestThreat) SelectTarget(self behavior.Sighting, candidates []behavior.Sighting, tc *TargetContext) (behavior.Sighting, bool) {
	if len(candidates) == 0 {
		return behavior.Sighting{}, false
	}
	if tc == nil || len(tc.ThreatScores) == 0 {
		return Nearest{}.SelectTarget(self, candidates, tc)
	}
	best := candidates[0]
	bestScore := tc.ThreatScores[best.ID]
	for _, c := range candidates[1:] {
		if s := tc.ThreatScores[c.ID]; s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, true
}

// LowestHP picks the minimum HP fraction. Missing ids count as untouched
// (1.0). Without an HP table it behaves like Nearest.
type LowestHP struct{}

func (LowestHP) SelectTarget(self behavior.Sighting, candidates []behavior.Sighting, tc *TargetContext) (behavior.Sighting, bool) {
	if len(candidates) == 0 {
		return behavior.Sighting{}, false
	}
	if tc == nil || len(tc.HPFractions) == 0 {
		return Nearest{}.SelectTarget(self, candidates, tc)
	}
	hp := func(id string) float64 {
		if f, ok := tc.HPFractions[id]; ok {
			return f
		}
		return 1.0
	}
	best := candidates[0]
	bestHP := hp(best.ID)
	for _, c := range candidates[1:] {
		if f := hp(c.ID); f < bestHP {
			best, bestHP = c, f
		}
	}
	return best, true
}

// PreyPriority prefers candidates the actor regards as prey, deferring to
// Fallback among the prey (or among everyone when there is no prey).
//
// Invariant: Resolver and Fallback are non-nil.
type PreyPriority struct {
	Resolver *disposition.Resolver
	Fallback TargetPolicy
}

// NewPreyPriority wraps fallback.
//
// Precondition: resolver and fallback must not be nil.
func NewPreyPriority(resolver *disposition.Resolver, fallback TargetPolicy) *PreyPriority {
	if resolver == nil || fallback == nil {
		panic("policy.NewPreyPriority: resolver and fallback must not be nil")
	}
	return &PreyPriority{Resolver: resolver, Fallback: fallback}
}

// SelectTarget never returns a non-prey candidate while any prey is present.
// Candidates whose disposition cannot be resolved are treated as non-prey.
func (p *PreyPriority) SelectTarget(self behavior.Sighting, candidates []behavior.Sighting, tc *TargetContext) (behavior.Sighting, bool) {
	var prey []behavior.Sighting
	for _, c := range candidates {
		actor, target := self.Descriptor, c.Descriptor
		if ok, err := p.Resolver.IsPrey(&actor, &target); err == nil && ok {
			prey = append(prey, c)
		}
	}
	if len(prey) > 0 {
		return p.Fallback.SelectTarget(self, prey, tc)
	}
	return p.Fallback.SelectTarget(self, candidates, tc)
}
