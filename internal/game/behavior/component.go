// Package behavior implements the per-tick decision engine for autonomous
// actors: a pure state transition service, and a Strategy that applies its
// intent to a live Component and chooses one Action.
package behavior

import (
	"errors"
	"fmt"
	"math"

	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
)

// Construction validation errors, one per field family.
var (
	ErrInvalidVisionRange       = errors.New("behavior: vision range must be >= 0")
	ErrInvalidFieldOfView       = errors.New("behavior: field of view must be within [0, 360]")
	ErrInvalidSearchDuration    = errors.New("behavior: search duration must be >= 0")
	ErrInvalidHPFraction        = errors.New("behavior: hp fraction must be within [0, 1]")
	ErrInvalidFleeThreshold     = errors.New("behavior: flee threshold must be within [0, 1]")
	ErrInvalidMaxFailures       = errors.New("behavior: max failures must be > 0")
	ErrInvalidWanderProbability = errors.New("behavior: wander probability must be within [0, 1]")
	ErrInvalidTerritoryRadius   = errors.New("behavior: territory radius must be >= 0")
	ErrInvalidPhaseThreshold    = errors.New("behavior: phase thresholds must be within [0, 1]")
	ErrInvalidSkill             = errors.New("behavior: skill range and cost must be >= 0 with unique slots")
)

// Skill is one usable ability slot.
type Skill struct {
	Slot  int `yaml:"slot"`
	Range int `yaml:"range"`
	Cost  int `yaml:"cost"`
}

// PackAffiliation ties an actor to a pack.
type PackAffiliation struct {
	ID     string `yaml:"id"`
	Leader bool   `yaml:"leader"`
}

// Config holds the construction parameters of a Component.
type Config struct {
	Descriptor        disposition.Descriptor
	VisionRange       float64
	FieldOfView       float64
	Facing            geom.Direction
	Home              geom.Coordinate
	PatrolRoute       []geom.Coordinate
	SearchDuration    int
	FleeThreshold     float64
	HPFraction        float64
	PhaseThresholds   []float64
	TerritoryRadius   float64
	Pack              PackAffiliation
	Skills            []Skill
	MaxFailures       int
	WanderProbability float64
	// Movement defaults to nav.Walk when zero.
	Movement nav.Capability
}

// Validate checks every numeric field.
//
// Postcondition: returns nil, or an error wrapping exactly one of the
// ErrInvalid* sentinels for the first violation found.
func (c Config) Validate() error {
	if math.IsNaN(c.VisionRange) || c.VisionRange < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidVisionRange, c.VisionRange)
	}
	if math.IsNaN(c.FieldOfView) || c.FieldOfView < 0 || c.FieldOfView > 360 {
		return fmt.Errorf("%w: got %v", ErrInvalidFieldOfView, c.FieldOfView)
	}
	if c.SearchDuration < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSearchDuration, c.SearchDuration)
	}
	if !isFraction(c.HPFraction) {
		return fmt.Errorf("%w: got %v", ErrInvalidHPFraction, c.HPFraction)
	}
	if !isFraction(c.FleeThreshold) {
		return fmt.Errorf("%w: got %v", ErrInvalidFleeThreshold, c.FleeThreshold)
	}
	if c.MaxFailures <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxFailures, c.MaxFailures)
	}
	if !isFraction(c.WanderProbability) {
		return fmt.Errorf("%w: got %v", ErrInvalidWanderProbability, c.WanderProbability)
	}
	if math.IsNaN(c.TerritoryRadius) || c.TerritoryRadius < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTerritoryRadius, c.TerritoryRadius)
	}
	for i, th := range c.PhaseThresholds {
		if !isFraction(th) {
			return fmt.Errorf("%w: phase_thresholds[%d] = %v", ErrInvalidPhaseThreshold, i, th)
		}
	}
	slots := make(map[int]struct{}, len(c.Skills))
	for _, s := range c.Skills {
		if s.Range < 0 || s.Cost < 0 {
			return fmt.Errorf("%w: slot %d range %d cost %d", ErrInvalidSkill, s.Slot, s.Range, s.Cost)
		}
		if _, dup := slots[s.Slot]; dup {
			return fmt.Errorf("%w: duplicate slot %d", ErrInvalidSkill, s.Slot)
		}
		slots[s.Slot] = struct{}{}
	}
	return nil
}

func isFraction(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Component is the mutable behavior record owned by one actor.
//
// Invariant: state changes only through the transition methods below, which
// are driven by Strategy. Callers outside this package can read but never
// assign the state.
type Component struct {
	cfg Config

	state       State
	facing      geom.Direction
	hpFraction  float64
	targetID    string
	lastKnown   *geom.Coordinate
	fleeFrom    *geom.Coordinate
	patrolIndex int
	searchLeft  int
	searchAtLKP bool
	failures    int
}

// NewComponent validates cfg and returns an IDLE component.
//
// Postcondition: returns a wrapped ErrInvalid* error if any field is out of range.
func NewComponent(cfg Config) (*Component, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Movement == 0 {
		cfg.Movement = nav.Walk
	}
	cfg.PatrolRoute = append([]geom.Coordinate(nil), cfg.PatrolRoute...)
	cfg.PhaseThresholds = append([]float64(nil), cfg.PhaseThresholds...)
	cfg.Skills = append([]Skill(nil), cfg.Skills...)
	return &Component{
		cfg:        cfg,
		state:      Idle,
		facing:     cfg.Facing,
		hpFraction: cfg.HPFraction,
	}, nil
}

// Snapshot is an immutable copy of the fields the transition service reads.
type Snapshot struct {
	State           State
	TargetID        string
	LastKnown       *geom.Coordinate
	HPFraction      float64
	FleeThreshold   float64
	PhaseThresholds []float64
}

// Snapshot copies the decision-relevant fields.
func (c *Component) Snapshot() Snapshot {
	return Snapshot{
		State:           c.state,
		TargetID:        c.targetID,
		LastKnown:       copyCoord(c.lastKnown),
		HPFraction:      c.hpFraction,
		FleeThreshold:   c.cfg.FleeThreshold,
		PhaseThresholds: append([]float64(nil), c.cfg.PhaseThresholds...),
	}
}

func (c *Component) State() State                       { return c.state }
func (c *Component) Descriptor() disposition.Descriptor { return c.cfg.Descriptor }
func (c *Component) VisionRange() float64               { return c.cfg.VisionRange }
func (c *Component) FieldOfView() float64               { return c.cfg.FieldOfView }
func (c *Component) Facing() geom.Direction             { return c.facing }
func (c *Component) Home() geom.Coordinate              { return c.cfg.Home }
func (c *Component) TargetID() string                   { return c.targetID }
func (c *Component) LastKnown() *geom.Coordinate        { return copyCoord(c.lastKnown) }
func (c *Component) FleeFrom() *geom.Coordinate         { return copyCoord(c.fleeFrom) }
func (c *Component) HPFraction() float64                { return c.hpFraction }
func (c *Component) FleeThreshold() float64             { return c.cfg.FleeThreshold }
func (c *Component) TerritoryRadius() float64           { return c.cfg.TerritoryRadius }
func (c *Component) Pack() PackAffiliation              { return c.cfg.Pack }
func (c *Component) Movement() nav.Capability           { return c.cfg.Movement }
func (c *Component) MaxFailures() int                   { return c.cfg.MaxFailures }
func (c *Component) Failures() int                      { return c.failures }
func (c *Component) SearchRemaining() int               { return c.searchLeft }
func (c *Component) PatrolIndex() int                   { return c.patrolIndex }

// Skills returns a copy of the configured skills in declaration order.
func (c *Component) Skills() []Skill {
	return append([]Skill(nil), c.cfg.Skills...)
}

// PatrolRoute returns a copy of the waypoint list.
func (c *Component) PatrolRoute() []geom.Coordinate {
	return append([]geom.Coordinate(nil), c.cfg.PatrolRoute...)
}

// SetHPFraction records the actor's current health fraction. Combat
// resolution owns HP; this only mirrors it for decisions.
func (c *Component) SetHPFraction(f float64) error {
	if !isFraction(f) {
		return fmt.Errorf("%w: got %v", ErrInvalidHPFraction, f)
	}
	c.hpFraction = f
	return nil
}

// Face turns the actor toward d.
func (c *Component) Face(d geom.Direction) {
	c.facing = d
}

// outsideTerritory reports whether pos is beyond the leash radius. A zero
// radius disables the leash.
func (c *Component) outsideTerritory(pos geom.Coordinate) bool {
	return c.cfg.TerritoryRadius > 0 && geom.Euclidean(pos, c.cfg.Home) > c.cfg.TerritoryRadius
}

func (c *Component) enterEnrage() {
	c.state = Enrage
}

// startFlee switches to FLEE and remembers the source as the current target
// so its disappearance later triggers the lose-target rule.
func (c *Component) startFlee(fromID string, from geom.Coordinate) {
	c.state = Flee
	c.targetID = fromID
	c.lastKnown = copyCoord(&from)
	c.fleeFrom = copyCoord(&from)
}

// trackFleeSource refreshes the position being fled from while already fleeing.
func (c *Component) trackFleeSource(id string, at geom.Coordinate) {
	if c.targetID == "" {
		c.targetID = id
	}
	if id == c.targetID {
		c.lastKnown = copyCoord(&at)
	}
	c.fleeFrom = copyCoord(&at)
}

// spotTarget records id as the target and chooses CHASE or FLEE.
//
// Postcondition: returns true when id differs from the previous target.
// HP strictly below the effective threshold flees; otherwise the actor chases
// when permitted. ENRAGE is kept instead of downgrading to CHASE.
func (c *Component) spotTarget(id string, at geom.Coordinate, threshold *float64, allowChase *bool) bool {
	isNew := c.targetID != id
	c.targetID = id
	c.lastKnown = copyCoord(&at)

	effective := c.cfg.FleeThreshold
	if threshold != nil {
		effective = *threshold
	}
	chase := true
	if allowChase != nil {
		chase = *allowChase
	}

	switch {
	case c.state == Enrage:
	case c.hpFraction < effective:
		c.state = Flee
		c.fleeFrom = copyCoord(&at)
	case chase:
		c.state = Chase
	}
	return isNew
}

// loseTarget forgets the current target and moves CHASE to SEARCH and FLEE to
// RETURN. ENRAGE is permanent: it stays and searches without a target. The
// last-known position is kept for the search.
func (c *Component) loseTarget() (id string, lastKnown *geom.Coordinate) {
	id, lastKnown = c.targetID, copyCoord(c.lastKnown)
	c.targetID = ""
	switch c.state {
	case Chase:
		c.beginSearch()
	case Enrage:
		c.resetSearch()
	case Flee:
		c.fleeFrom = nil
		c.state = Return
	}
	return id, lastKnown
}

func (c *Component) beginSearch() {
	c.state = Search
	c.resetSearch()
}

func (c *Component) resetSearch() {
	c.searchLeft = c.cfg.SearchDuration
	c.searchAtLKP = false
}

// finishSearch leaves SEARCH for PATROL when a route exists, else RETURN.
func (c *Component) finishSearch() {
	if len(c.cfg.PatrolRoute) > 0 {
		c.state = Patrol
		return
	}
	c.state = Return
}

func (c *Component) forceReturn() {
	c.state = Return
	c.fleeFrom = nil
}

func (c *Component) beginPatrol() {
	if len(c.cfg.PatrolRoute) > 0 {
		c.state = Patrol
	}
}

func (c *Component) arriveHome() {
	c.state = Idle
	c.fleeFrom = nil
}

func (c *Component) currentWaypoint() geom.Coordinate {
	return c.cfg.PatrolRoute[c.patrolIndex]
}

func (c *Component) advancePatrol() {
	c.patrolIndex = (c.patrolIndex + 1) % len(c.cfg.PatrolRoute)
}

// recordMoveFailure increments and returns the consecutive failure count.
func (c *Component) recordMoveFailure() int {
	c.failures++
	return c.failures
}

func (c *Component) resetFailures() {
	c.failures = 0
}

func copyCoord(c *geom.Coordinate) *geom.Coordinate {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
