package behavior

import (
	"fmt"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// ActionKind tags an Action.
type ActionKind int

const (
	ActionWait ActionKind = iota
	ActionMove
	ActionUseSkill
)

func (k ActionKind) String() string {
	switch k {
	case ActionWait:
		return "wait"
	case ActionMove:
		return "move"
	case ActionUseSkill:
		return "use_skill"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is the single choice made for an actor in one tick.
//
// Invariant: Destination is meaningful only for ActionMove, Slot only for
// ActionUseSkill.
type Action struct {
	Kind        ActionKind
	Destination geom.Coordinate
	Slot        int
}

// Wait is the no-op action.
func Wait() Action { return Action{Kind: ActionWait} }

// MoveTo steps to an adjacent tile.
func MoveTo(c geom.Coordinate) Action { return Action{Kind: ActionMove, Destination: c} }

// UseSkill activates the skill in slot.
func UseSkill(slot int) Action { return Action{Kind: ActionUseSkill, Slot: slot} }

func (a Action) String() string {
	switch a.Kind {
	case ActionMove:
		return "move " + a.Destination.String()
	case ActionUseSkill:
		return fmt.Sprintf("use_skill %d", a.Slot)
	default:
		return a.Kind.String()
	}
}

// SkillContext narrows skill choice for one tick.
type SkillContext struct {
	// UsableSlots restricts choice when non-nil; an empty non-nil slice
	// means nothing is usable.
	UsableSlots []int
	// TargetsInRange counts targets within each slot's range, keyed by slot.
	TargetsInRange map[int]int
}

// Allows reports whether slot passes the allow-list.
func (sc *SkillContext) Allows(slot int) bool {
	if sc == nil || sc.UsableSlots == nil {
		return true
	}
	for _, s := range sc.UsableSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// SkillSelector picks a skill slot to use against a target, or reports none.
type SkillSelector interface {
	SelectSkill(self, target geom.Coordinate, skills []Skill, sc *SkillContext) (slot int, ok bool)
}
