// Package disposition resolves the relationship between two actors from their
// race and faction.
package disposition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingDescriptor is returned when a disposition is requested without
// both an actor and a target identity.
var ErrMissingDescriptor = errors.New("disposition: actor and target descriptors are required")

// Disposition is the relationship one actor holds toward another.
type Disposition int

const (
	Neutral Disposition = iota
	Hostile
	Threat
	Prey
	Ally
)

var names = [...]string{"neutral", "hostile", "threat", "prey", "ally"}

// String returns the lowercase disposition name.
func (d Disposition) String() string {
	if d < Neutral || d > Ally {
		return fmt.Sprintf("Disposition(%d)", int(d))
	}
	return names[d]
}

// Parse maps a disposition name (case-insensitive) to its value.
func Parse(s string) (Disposition, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == lower {
			return Disposition(i), nil
		}
	}
	return Neutral, fmt.Errorf("disposition: unknown value %q", s)
}

// IsHostile reports whether the target is attack-eligible (HOSTILE or PREY).
func (d Disposition) IsHostile() bool { return d == Hostile || d == Prey }

// IsThreat reports whether the target should be fled from.
func (d Disposition) IsThreat() bool { return d == Threat }

// IsPrey reports whether the target is preferred prey.
func (d Disposition) IsPrey() bool { return d == Prey }

// Descriptor identifies an actor for disposition lookups.
type Descriptor struct {
	Race    string `yaml:"race"`
	Faction string `yaml:"faction"`
}

// valid reports whether the descriptor carries any identity at all.
func (d *Descriptor) valid() bool {
	return d != nil && (d.Race != "" || d.Faction != "")
}

type pair struct{ a, b string }

// Resolver answers disposition queries from three lookup tables.
//
// Precedence, highest first: symmetric faction hostility, race-pair
// dispositions, legacy race-pair hostility, then NEUTRAL.
//
// Invariant: tables are read-only after construction.
type Resolver struct {
	factionHostile map[pair]struct{}
	races          map[pair]Disposition
	legacyHostile  map[pair]struct{}
}

// NewResolver returns an empty Resolver that reports NEUTRAL for every pair.
func NewResolver() *Resolver {
	return &Resolver{
		factionHostile: make(map[pair]struct{}),
		races:          make(map[pair]Disposition),
		legacyHostile:  make(map[pair]struct{}),
	}
}

// SetFactionsHostile marks factions a and b mutually hostile.
func (r *Resolver) SetFactionsHostile(a, b string) {
	r.factionHostile[pair{a, b}] = struct{}{}
	r.factionHostile[pair{b, a}] = struct{}{}
}

// SetRaceDisposition records how actorRace regards targetRace.
func (r *Resolver) SetRaceDisposition(actorRace, targetRace string, d Disposition) {
	r.races[pair{actorRace, targetRace}] = d
}

// SetLegacyHostile records that actorRace attacks targetRace on sight.
func (r *Resolver) SetLegacyHostile(actorRace, targetRace string) {
	r.legacyHostile[pair{actorRace, targetRace}] = struct{}{}
}

// Resolve returns how actor regards target.
//
// Precondition: both descriptors must be non-nil and carry a race or faction.
// Postcondition: returns ErrMissingDescriptor when either identity is absent.
func (r *Resolver) Resolve(actor, target *Descriptor) (Disposition, error) {
	if !actor.valid() || !target.valid() {
		return Neutral, ErrMissingDescriptor
	}
	if actor.Faction != "" && target.Faction != "" {
		if _, ok := r.factionHostile[pair{actor.Faction, target.Faction}]; ok {
			return Hostile, nil
		}
	}
	key := pair{actor.Race, target.Race}
	if d, ok := r.races[key]; ok {
		return d, nil
	}
	if _, ok := r.legacyHostile[key]; ok {
		return Hostile, nil
	}
	return Neutral, nil
}

// IsHostile reports whether actor would attack target.
func (r *Resolver) IsHostile(actor, target *Descriptor) (bool, error) {
	d, err := r.Resolve(actor, target)
	return d.IsHostile(), err
}

// IsThreat reports whether actor would flee from target.
func (r *Resolver) IsThreat(actor, target *Descriptor) (bool, error) {
	d, err := r.Resolve(actor, target)
	return d.IsThreat(), err
}

// IsPrey reports whether actor regards target as prey.
func (r *Resolver) IsPrey(actor, target *Descriptor) (bool, error) {
	d, err := r.Resolve(actor, target)
	return d.IsPrey(), err
}
