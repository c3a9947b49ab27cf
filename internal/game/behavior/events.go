package behavior

import "github.com/Motifman/llm-rpg-sub007/internal/game/geom"

// EventKind names a notification emitted by the Strategy.
type EventKind string

const (
	EventStateChanged  EventKind = "state_changed"
	EventTargetSpotted EventKind = "target_spotted"
	EventTargetLost    EventKind = "target_lost"
	EventStuck         EventKind = "stuck"
)

// Event is a behavior notification attached to the acting actor.
type Event struct {
	Kind     EventKind
	ActorID  string
	From, To State
	TargetID string
	// Position is the spotted position or the last-known position on loss.
	Position *geom.Coordinate
	Failures int
}

// EventSink collects notifications. Implementations must not call back into
// the Strategy.
type EventSink interface {
	Record(e Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Record(e Event) { f(e) }

type discardSink struct{}

func (discardSink) Record(Event) {}
