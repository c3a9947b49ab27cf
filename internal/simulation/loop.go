// Package simulation drives the behavior engine: one sequential Step per tick
// over every autonomous actor, and a Ticker that fires steps on an interval.
package simulation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/events"
	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/npc"
)

// ErrUnknownSkill is returned by ManaExecutor for slots the actor lacks.
var ErrUnknownSkill = errors.New("simulation: actor has no skill in slot")

// ErrInsufficientMana is returned by ManaExecutor when the cost exceeds mana.
var ErrInsufficientMana = errors.New("simulation: insufficient mana")

// Decider chooses one action per actor. *ai.Driver satisfies it.
type Decider interface {
	Decide(actorID string) (behavior.Action, error)
}

// SkillExecutor resolves a USE_SKILL action.
type SkillExecutor interface {
	Execute(ctx context.Context, actor *npc.Instance, slot int, targetID string) error
}

// ThreatRecorder accumulates threat. *ai.Driver satisfies it.
type ThreatRecorder interface {
	RecordThreat(actorID, sourceID string, amount float64)
}

// ActorForgetter drops per-actor bookkeeping. *ai.Driver satisfies it.
type ActorForgetter interface {
	ForgetActor(id string)
}

// Publisher forwards drained event records. *events.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, records []events.Record) error
}

// ManaExecutor is the default SkillExecutor: it deducts the skill's cost and
// logs the use.
type ManaExecutor struct {
	Logger *zap.Logger
}

// Execute spends the mana for slot.
//
// Postcondition: returns ErrUnknownSkill or ErrInsufficientMana without
// changing the actor; otherwise actor.Mana is reduced by the skill cost.
func (e ManaExecutor) Execute(_ context.Context, actor *npc.Instance, slot int, targetID string) error {
	if actor.Behavior == nil {
		return fmt.Errorf("%w %d: %q", ErrUnknownSkill, slot, actor.ID)
	}
	for _, sk := range actor.Behavior.Skills() {
		if sk.Slot != slot {
			continue
		}
		if !actor.SpendMana(sk.Cost) {
			return fmt.Errorf("%w: %q needs %d, has %d", ErrInsufficientMana, actor.ID, sk.Cost, actor.Mana)
		}
		if e.Logger != nil {
			e.Logger.Info("skill used",
				zap.String("actor", actor.ID),
				zap.Int("slot", slot),
				zap.String("target", targetID),
				zap.Int("mana", actor.Mana),
			)
		}
		return nil
	}
	return fmt.Errorf("%w %d: %q", ErrUnknownSkill, slot, actor.ID)
}

// StepResult summarizes one tick.
type StepResult struct {
	Tick    uint64
	Moved   int
	Skills  int
	Waited  int
	Blocked int
	Failed  int
	Removed int
	Events  int
}

// Loop runs ticks over one arena.
//
// Moves are applied as soon as each actor decides, so actors later in spawn
// order see the new positions within the same tick.
type Loop struct {
	actors    *npc.Manager
	decider   Decider
	skills    SkillExecutor
	threats   ThreatRecorder
	forgetter ActorForgetter
	log       *events.Log
	publisher Publisher
	logger    *zap.Logger
	tick      uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithSkillExecutor replaces the default ManaExecutor.
func WithSkillExecutor(s SkillExecutor) Option { return func(l *Loop) { l.skills = s } }

// WithThreats records threat on the target of every executed skill.
func WithThreats(t ThreatRecorder) Option { return func(l *Loop) { l.threats = t } }

// WithForgetter clears f's bookkeeping for every actor the loop removes.
func WithForgetter(f ActorForgetter) Option { return func(l *Loop) { l.forgetter = f } }

// WithPublisher forwards the event log to p after every tick.
func WithPublisher(p Publisher) Option { return func(l *Loop) { l.publisher = p } }

// NewLoop wires a Loop.
//
// Precondition: actors, decider and log must not be nil.
func NewLoop(actors *npc.Manager, decider Decider, log *events.Log, logger *zap.Logger, opts ...Option) *Loop {
	if actors == nil || decider == nil || log == nil {
		panic("simulation.NewLoop: actors, decider and log must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loop{actors: actors, decider: decider, log: log, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	if l.skills == nil {
		l.skills = ManaExecutor{Logger: logger}
	}
	return l
}

// Tick returns the number of completed steps.
func (l *Loop) Tick() uint64 {
	return l.tick
}

// Remove takes id out of the arena and drops any bookkeeping held for it,
// including its retained event history.
//
// Postcondition: returns an error if id is not in the arena.
func (l *Loop) Remove(id string) error {
	if err := l.actors.Remove(id); err != nil {
		return err
	}
	if l.forgetter != nil {
		l.forgetter.ForgetActor(id)
	}
	l.log.Forget(id)
	l.logger.Info("actor removed", zap.Uint64("tick", l.tick), zap.String("actor", id))
	return nil
}

// Step runs one tick: every autonomous actor decides in spawn order and its
// action is applied immediately. A failing actor is logged and skipped. A
// skill target left at zero HP by the executor is removed from the arena.
//
// Postcondition: Tick() has advanced by one; records appended during the tick
// have been handed to the publisher, if any.
func (l *Loop) Step(ctx context.Context) StepResult {
	l.tick++
	res := StepResult{Tick: l.tick}
	for _, inst := range l.actors.All() {
		if !inst.IsAutonomous() {
			continue
		}
		if _, ok := l.actors.Get(inst.ID); !ok {
			continue
		}
		action, err := l.decider.Decide(inst.ID)
		if err != nil {
			res.Failed++
			l.logger.Warn("decide failed", zap.Uint64("tick", l.tick), zap.String("actor", inst.ID), zap.Error(err))
			continue
		}
		switch action.Kind {
		case behavior.ActionMove:
			if l.actors.Occupied(action.Destination, inst.ID) {
				res.Blocked++
				l.logger.Debug("move blocked",
					zap.String("actor", inst.ID),
					zap.Stringer("destination", action.Destination),
				)
				continue
			}
			if err := l.actors.Move(inst.ID, action.Destination); err != nil {
				res.Failed++
				l.logger.Warn("move failed", zap.String("actor", inst.ID), zap.Error(err))
				continue
			}
			res.Moved++
		case behavior.ActionUseSkill:
			target := inst.Behavior.TargetID()
			if err := l.skills.Execute(ctx, inst, action.Slot, target); err != nil {
				res.Failed++
				l.logger.Warn("skill failed", zap.String("actor", inst.ID), zap.Int("slot", action.Slot), zap.Error(err))
				continue
			}
			if l.threats != nil && target != "" {
				l.threats.RecordThreat(target, inst.ID, 1)
			}
			res.Skills++
			if t, ok := l.actors.Get(target); ok && t.CurrentHP == 0 && t.MaxHP > 0 {
				if err := l.Remove(target); err == nil {
					res.Removed++
				}
			}
		default:
			res.Waited++
		}
	}

	drained := l.log.Drain()
	res.Events = len(drained)
	if l.publisher != nil && len(drained) > 0 {
		if err := l.publisher.Publish(ctx, drained); err != nil {
			l.logger.Warn("event publish failed", zap.Uint64("tick", l.tick), zap.Int("events", len(drained)), zap.Error(err))
		}
	}
	l.logger.Debug("tick complete",
		zap.Uint64("tick", res.Tick),
		zap.Int("moved", res.Moved),
		zap.Int("skills", res.Skills),
		zap.Int("waited", res.Waited),
		zap.Int("blocked", res.Blocked),
		zap.Int("failed", res.Failed),
		zap.Int("removed", res.Removed),
		zap.Int("events", res.Events),
	)
	return res
}
