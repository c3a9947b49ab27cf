package npc

import (
	"fmt"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// Instance is a live entity placed on the map.
//
// Invariant: Behavior is non-nil exactly for KindNPC instances.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// TemplateID is the source template's ID.
	TemplateID string
	// Name is copied from the template for display.
	Name string
	Kind Kind
	// Descriptor is the race/faction identity used for disposition.
	Descriptor disposition.Descriptor
	Position   geom.Coordinate
	CurrentHP  int
	MaxHP      int
	Mana       int
	MaxMana    int
	// Behavior is owned inline by this instance.
	Behavior *behavior.Component
	// TargetPolicy and SkillPolicy name registered policies; empty = defaults.
	TargetPolicy string
	SkillPolicy  string
	// Growth is nil unless the template declares overrides.
	Growth *behavior.GrowthContext
}

// NewInstance creates a live instance from a template, placed at pos.
//
// Precondition: id must be non-empty; tmpl must be non-nil and valid.
// Postcondition: CurrentHP equals tmpl.MaxHP and Mana equals tmpl.MaxMana;
// npc templates get an IDLE behavior component homed at pos.
func NewInstance(id string, tmpl *Template, pos geom.Coordinate) (*Instance, error) {
	inst := &Instance{
		ID:           id,
		TemplateID:   tmpl.ID,
		Name:         tmpl.Name,
		Kind:         tmpl.EffectiveKind(),
		Descriptor:   tmpl.Descriptor(),
		Position:     pos,
		CurrentHP:    tmpl.MaxHP,
		MaxHP:        tmpl.MaxHP,
		Mana:         tmpl.MaxMana,
		MaxMana:      tmpl.MaxMana,
		TargetPolicy: tmpl.TargetPolicy,
		SkillPolicy:  tmpl.SkillPolicy,
	}
	if tmpl.Growth != nil {
		inst.Growth = &behavior.GrowthContext{
			FleeThreshold: tmpl.Growth.FleeThreshold,
			AllowChase:    tmpl.Growth.AllowChase,
		}
	}
	if inst.Kind != KindNPC {
		return inst, nil
	}
	cfg, err := tmpl.BehaviorConfig(pos)
	if err != nil {
		return nil, err
	}
	comp, err := behavior.NewComponent(cfg)
	if err != nil {
		return nil, fmt.Errorf("npc.NewInstance %q: %w", id, err)
	}
	inst.Behavior = comp
	return inst, nil
}

// IsActor reports whether perception should consider this instance.
func (i *Instance) IsActor() bool {
	return i.Kind != KindObject
}

// IsAutonomous reports whether the behavior engine drives this instance.
func (i *Instance) IsAutonomous() bool {
	return i.Behavior != nil
}

// HPFraction returns CurrentHP/MaxHP clamped to [0, 1]; 1 when MaxHP is unset.
func (i *Instance) HPFraction() float64 {
	if i.MaxHP <= 0 {
		return 1
	}
	f := float64(i.CurrentHP) / float64(i.MaxHP)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// ApplyDamage reduces CurrentHP by n (negative heals), clamped to [0, MaxHP],
// and mirrors the new fraction into the behavior component.
//
// Postcondition: returns true when the instance is dead (CurrentHP == 0).
func (i *Instance) ApplyDamage(n int) bool {
	i.CurrentHP -= n
	if i.CurrentHP < 0 {
		i.CurrentHP = 0
	}
	if i.CurrentHP > i.MaxHP {
		i.CurrentHP = i.MaxHP
	}
	if i.Behavior != nil {
		// HPFraction is always within [0, 1].
		_ = i.Behavior.SetHPFraction(i.HPFraction())
	}
	return i.CurrentHP == 0
}

// SpendMana deducts cost if affordable.
//
// Postcondition: returns false and leaves Mana unchanged when cost > Mana.
func (i *Instance) SpendMana(cost int) bool {
	if cost > i.Mana {
		return false
	}
	i.Mana -= cost
	return true
}

// Sighting returns how other actors perceive this instance.
func (i *Instance) Sighting() behavior.Sighting {
	return behavior.Sighting{ID: i.ID, Position: i.Position, Descriptor: i.Descriptor}
}

// HealthDescription returns a short human-readable health label.
func (i *Instance) HealthDescription() string {
	switch f := i.HPFraction(); {
	case f >= 1:
		return "unharmed"
	case f >= 0.75:
		return "lightly wounded"
	case f >= 0.5:
		return "wounded"
	case f >= 0.25:
		return "badly wounded"
	case f > 0:
		return "near death"
	default:
		return "dead"
	}
}
