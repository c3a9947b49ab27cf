package behavior

import "fmt"

// State is the behavioral mode of an autonomous actor.
type State int

const (
	Idle State = iota
	Patrol
	Chase
	Flee
	Search
	Return
	Enrage
)

var stateNames = [...]string{"idle", "patrol", "chase", "flee", "search", "return", "enrage"}

// String returns the lowercase state name.
func (s State) String() string {
	if s < Idle || s > Enrage {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState maps a state name back to its value.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Idle, fmt.Errorf("behavior: unknown state %q", name)
}

// pursuing reports whether the state actively hunts a target.
func (s State) pursuing() bool {
	return s == Chase || s == Enrage
}
