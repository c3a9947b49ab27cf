package policy

import (
	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// inRange reports whether s reaches target from self. Distance is summed
// along every axis so diagonals are never shortened.
func inRange(s behavior.Skill, self, target geom.Coordinate) bool {
	return s.Range >= geom.AxisSum(self, target)
}

// FirstInRange returns the first allowed skill, in declaration order, whose
// range covers the target.
type FirstInRange struct{}

func (FirstInRange) SelectSkill(self, target geom.Coordinate, skills []behavior.Skill, sc *behavior.SkillContext) (int, bool) {
	for _, s := range skills {
		if sc.Allows(s.Slot) && inRange(s, self, target) {
			return s.Slot, true
		}
	}
	return 0, false
}

// BossAOE prefers the allowed, in-range skill that currently reaches the most
// targets. Ties go to the earlier skill; slots missing from the count map
// count as zero. Without counts it behaves like FirstInRange.
type BossAOE struct{}

func (BossAOE) SelectSkill(self, target geom.Coordinate, skills []behavior.Skill, sc *behavior.SkillContext) (int, bool) {
	if sc == nil || len(sc.TargetsInRange) == 0 {
		return FirstInRange{}.SelectSkill(self, target, skills, sc)
	}
	bestSlot, bestCount, found := 0, -1, false
	for _, s := range skills {
		if !sc.Allows(s.Slot) || !inRange(s, self, target) {
			continue
		}
		if n := sc.TargetsInRange[s.Slot]; n > bestCount {
			bestSlot, bestCount, found = s.Slot, n, true
		}
	}
	return bestSlot, found
}
