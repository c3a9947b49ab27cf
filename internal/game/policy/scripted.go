package policy

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
)

// SelectTargetHook is the Lua global consulted by Scripted.
const SelectTargetHook = "select_target"

// HookCaller dispatches a Lua hook in a named script set.
type HookCaller interface {
	CallHook(setID, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Scripted lets a Lua script pick the target. The hook receives the acting
// actor's id and an array of candidate ids, and returns the chosen id.
// Anything that is not a candidate id defers to Fallback.
type Scripted struct {
	caller   HookCaller
	setID    string
	fallback TargetPolicy
}

// NewScripted binds a script set.
//
// Precondition: caller and fallback must not be nil; setID must be non-empty.
func NewScripted(caller HookCaller, setID string, fallback TargetPolicy) *Scripted {
	if caller == nil || fallback == nil || setID == "" {
		panic("policy.NewScripted: caller, setID and fallback are required")
	}
	return &Scripted{caller: caller, setID: setID, fallback: fallback}
}

func (s *Scripted) SelectTarget(self behavior.Sighting, candidates []behavior.Sighting, tc *TargetContext) (behavior.Sighting, bool) {
	if len(candidates) == 0 {
		return behavior.Sighting{}, false
	}
	ids := &lua.LTable{}
	for _, c := range candidates {
		ids.Append(lua.LString(c.ID))
	}
	ret, err := s.caller.CallHook(s.setID, SelectTargetHook, lua.LString(self.ID), ids)
	if err == nil {
		if chosen, ok := ret.(lua.LString); ok {
			for _, c := range candidates {
				if c.ID == string(chosen) {
					return c, true
				}
			}
		}
	}
	return s.fallback.SelectTarget(self, candidates, tc)
}
