package policy

import (
	"fmt"
	"sort"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
)

// Built-in policy names as used in npc templates.
const (
	NameNearest       = "nearest"
	NameHighestThreat = "highest_threat"
	NameLowestHP      = "lowest_hp"
	NamePreyPriority  = "prey_priority"
	NameFirstInRange  = "first_in_range"
	NameBossAOE       = "boss_aoe"
)

// Registry indexes policies by name.
//
// Invariant: each name is registered at most once per kind.
type Registry struct {
	targets map[string]TargetPolicy
	skills  map[string]behavior.SkillSelector
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[string]TargetPolicy),
		skills:  make(map[string]behavior.SkillSelector),
	}
}

// NewDefaultRegistry returns a Registry holding every built-in policy.
// prey_priority wraps nearest.
//
// Precondition: resolver must not be nil.
func NewDefaultRegistry(resolver *disposition.Resolver) *Registry {
	r := NewRegistry()
	_ = r.RegisterTarget(NameNearest, Nearest{})
	_ = r.RegisterTarget(NameHighestThreat, HighestThreat{})
	_ = r.RegisterTarget(NameLowestHP, LowestHP{})
	_ = r.RegisterTarget(NamePreyPriority, NewPreyPriority(resolver, Nearest{}))
	_ = r.RegisterSkill(NameFirstInRange, FirstInRange{})
	_ = r.RegisterSkill(NameBossAOE, BossAOE{})
	return r
}

// RegisterTarget stores p under name.
//
// Precondition: p must not be nil.
// Postcondition: returns error on name collision.
func (r *Registry) RegisterTarget(name string, p TargetPolicy) error {
	if _, exists := r.targets[name]; exists {
		return fmt.Errorf("policy.Registry: target policy %q already registered", name)
	}
	r.targets[name] = p
	return nil
}

// RegisterSkill stores s under name.
//
// Postcondition: returns error on name collision.
func (r *Registry) RegisterSkill(name string, s behavior.SkillSelector) error {
	if _, exists := r.skills[name]; exists {
		return fmt.Errorf("policy.Registry: skill policy %q already registered", name)
	}
	r.skills[name] = s
	return nil
}

// Target returns the target policy for name. An empty name means nearest.
func (r *Registry) Target(name string) (TargetPolicy, bool) {
	if name == "" {
		name = NameNearest
	}
	p, ok := r.targets[name]
	return p, ok
}

// Skill returns the skill policy for name. An empty name means first_in_range.
func (r *Registry) Skill(name string) (behavior.SkillSelector, bool) {
	if name == "" {
		name = NameFirstInRange
	}
	s, ok := r.skills[name]
	return s, ok
}

// TargetNames lists registered target policies in sorted order.
func (r *Registry) TargetNames() []string {
	names := make([]string, 0, len(r.targets))
	for n := range r.targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
