// Package ai is the per-tick entry point of the behavior engine. A Driver
// perceives the world around one actor, picks a target and skill context
// through the policy registry, and hands off to the behavior Strategy.
package ai

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/npc"
	"github.com/Motifman/llm-rpg-sub007/internal/game/policy"
)

var (
	// ErrUnknownActor is returned by Decide for ids not present in the arena.
	ErrUnknownActor = errors.New("ai: unknown actor")
	// ErrNoBehavior is returned by Decide for actors the engine does not drive.
	ErrNoBehavior = errors.New("ai: actor has no behavior component")
)

// World is the spatial query surface the Driver reads.
type World interface {
	ActorsInRange(center geom.Coordinate, radius float64) []*npc.Instance
	IsVisible(a, b geom.Coordinate) bool
	GetActor(id string) (*npc.Instance, bool)
	PackLeader(packID string) (*npc.Instance, bool)
}

// Driver runs perception and decision for one actor at a time.
//
// Invariant: space, resolver, policies and strategy are non-nil.
type Driver struct {
	space    World
	resolver *disposition.Resolver
	policies *policy.Registry
	strategy *behavior.Strategy
	logger   *zap.Logger

	mu     sync.Mutex
	threat map[string]map[string]float64
}

// NewDriver wires a Driver.
//
// Precondition: space, resolver, policies and strategy must not be nil.
// logger may be nil.
func NewDriver(space World, resolver *disposition.Resolver, policies *policy.Registry, strategy *behavior.Strategy, logger *zap.Logger) *Driver {
	if space == nil || resolver == nil || policies == nil || strategy == nil {
		panic("ai.NewDriver: space, resolver, policies and strategy must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		space:    space,
		resolver: resolver,
		policies: policies,
		strategy: strategy,
		logger:   logger,
		threat:   make(map[string]map[string]float64),
	}
}

// RecordThreat adds amount to the threat actorID holds toward sourceID.
func (d *Driver) RecordThreat(actorID, sourceID string, amount float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, ok := d.threat[actorID]
	if !ok {
		table = make(map[string]float64)
		d.threat[actorID] = table
	}
	table[sourceID] += amount
}

// Threat returns the accumulated threat actorID holds toward sourceID.
func (d *Driver) Threat(actorID, sourceID string) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threat[actorID][sourceID]
}

// ForgetActor drops id's own threat table and every entry naming id.
func (d *Driver) ForgetActor(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.threat, id)
	for _, table := range d.threat {
		delete(table, id)
	}
}

// Decide runs one tick of perception and decision for actorID.
//
// Precondition: actorID names an autonomous actor.
// Postcondition: returns ErrUnknownActor or ErrNoBehavior for other ids, and a
// wrapped nav.ErrInvalidRequest when path finding rejects the request.
// Otherwise the actor's component reflects this tick's transition.
func (d *Driver) Decide(actorID string) (behavior.Action, error) {
	self, ok := d.space.GetActor(actorID)
	if !ok {
		return behavior.Wait(), fmt.Errorf("%w: %q", ErrUnknownActor, actorID)
	}
	if self.Behavior == nil {
		return behavior.Wait(), fmt.Errorf("%w: %q", ErrNoBehavior, actorID)
	}

	obs := d.Observe(self)
	if target, ok := d.selectTarget(self, obs.Hostiles); ok {
		obs.Selected = &target
	}
	obs.Growth = self.Growth

	ctx := &behavior.Context{
		ActorID:      self.ID,
		Position:     self.Position,
		Component:    self.Behavior,
		Observation:  obs,
		SkillContext: d.skillContext(self, obs.Hostiles),
		Rally:        d.rally(self),
	}
	if len(self.Behavior.Skills()) > 0 {
		ctx.Skills = d.skillPolicy(self)
	}

	d.strategy.UpdateState(ctx)
	action, err := d.strategy.DecideAction(ctx)
	if err != nil {
		return behavior.Wait(), err
	}
	fields := []zap.Field{
		zap.String("actor", self.ID),
		zap.Stringer("state", self.Behavior.State()),
		zap.Stringer("action", action),
		zap.Int("threats", len(obs.Threats)),
		zap.Int("hostiles", len(obs.Hostiles)),
	}
	if target := self.Behavior.TargetID(); target != "" {
		fields = append(fields,
			zap.String("target", target),
			zap.Float64("target_threat", d.Threat(self.ID, target)),
		)
	}
	d.logger.Debug("decided", fields...)
	return action, nil
}

func (d *Driver) selectTarget(self *npc.Instance, hostiles []behavior.Sighting) (behavior.Sighting, bool) {
	if len(hostiles) == 0 {
		return behavior.Sighting{}, false
	}
	p, ok := d.policies.Target(self.TargetPolicy)
	if !ok {
		d.logger.Warn("unknown target policy; using default",
			zap.String("actor", self.ID),
			zap.String("policy", self.TargetPolicy),
		)
		p, _ = d.policies.Target("")
	}
	return p.SelectTarget(self.Sighting(), hostiles, d.targetContext(self.ID, hostiles))
}

func (d *Driver) targetContext(actorID string, hostiles []behavior.Sighting) *policy.TargetContext {
	tc := &policy.TargetContext{
		ThreatScores: make(map[string]float64),
		HPFractions:  make(map[string]float64, len(hostiles)),
	}
	d.mu.Lock()
	for id, score := range d.threat[actorID] {
		tc.ThreatScores[id] = score
	}
	d.mu.Unlock()
	for _, h := range hostiles {
		if inst, ok := d.space.GetActor(h.ID); ok {
			tc.HPFractions[h.ID] = inst.HPFraction()
		}
	}
	return tc
}

func (d *Driver) skillPolicy(self *npc.Instance) behavior.SkillSelector {
	s, ok := d.policies.Skill(self.SkillPolicy)
	if !ok {
		d.logger.Warn("unknown skill policy; using default",
			zap.String("actor", self.ID),
			zap.String("policy", self.SkillPolicy),
		)
		s, _ = d.policies.Skill("")
	}
	return s
}

// skillContext lists the affordable slots and, per slot, how many hostiles
// sit within its axis-sum range.
func (d *Driver) skillContext(self *npc.Instance, hostiles []behavior.Sighting) *behavior.SkillContext {
	skills := self.Behavior.Skills()
	sc := &behavior.SkillContext{
		UsableSlots:    make([]int, 0, len(skills)),
		TargetsInRange: make(map[int]int, len(skills)),
	}
	for _, sk := range skills {
		if sk.Cost <= self.Mana {
			sc.UsableSlots = append(sc.UsableSlots, sk.Slot)
		}
		for _, h := range hostiles {
			if geom.AxisSum(self.Position, h.Position) <= sk.Range {
				sc.TargetsInRange[sk.Slot]++
			}
		}
	}
	return sc
}

// rally returns the pack leader's position for pack followers.
func (d *Driver) rally(self *npc.Instance) *geom.Coordinate {
	pack := self.Behavior.Pack()
	if pack.ID == "" || pack.Leader {
		return nil
	}
	leader, ok := d.space.PackLeader(pack.ID)
	if !ok || leader.ID == self.ID {
		return nil
	}
	at := leader.Position
	return &at
}
