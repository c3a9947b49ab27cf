package behavior

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/game/dice"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
)

// Context is everything the Strategy needs about one actor for one tick.
type Context struct {
	ActorID     string
	Position    geom.Coordinate
	Component   *Component
	Observation Observation
	// Skills may be nil, in which case the actor never uses skills.
	Skills       SkillSelector
	SkillContext *SkillContext
	// Rally is the pack leader's position for pack followers, nil otherwise.
	Rally *geom.Coordinate
}

// Strategy applies transition intent to a Component and chooses one Action.
//
// Invariant: paths, terrain and rng are non-nil.
type Strategy struct {
	paths   nav.PathFinder
	terrain nav.Passability
	sink    EventSink
	rng     dice.Source
	logger  *zap.Logger
	opts    nav.Options
}

// NewStrategy wires a Strategy.
//
// Precondition: paths, terrain and rng must not be nil. sink and logger may be
// nil, in which case events and logs are discarded.
func NewStrategy(paths nav.PathFinder, terrain nav.Passability, sink EventSink, rng dice.Source, logger *zap.Logger, opts nav.Options) *Strategy {
	if paths == nil || terrain == nil || rng == nil {
		panic("behavior.NewStrategy: paths, terrain and rng must not be nil")
	}
	if sink == nil {
		sink = discardSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{paths: paths, terrain: terrain, sink: sink, rng: rng, logger: logger, opts: opts}
}

// UpdateState computes and applies this tick's transition.
//
// Postcondition: at most one state-changed event and at most one of
// target-spotted or target-lost are emitted. While fleeing, the position being
// fled from tracks the nearest threat.
func (s *Strategy) UpdateState(ctx *Context) TransitionResult {
	c := ctx.Component
	res := ComputeTransition(ctx.Observation, c.Snapshot(), ctx.ActorID, ctx.Position)
	prev := c.state
	var targetEvent *Event

	if res.EnterEnrage {
		c.enterEnrage()
	}
	switch {
	case res.Flee != nil:
		c.startFlee(res.Flee.ThreatID, res.Flee.Position)
	case res.Spot != nil:
		// A leashed actor ignores aggro until it is back inside its territory.
		if c.state == Return && c.outsideTerritory(ctx.Position) {
			break
		}
		if c.spotTarget(res.Spot.TargetID, res.Spot.Position, res.Spot.FleeThreshold, res.Spot.AllowChase) {
			at := res.Spot.Position
			targetEvent = &Event{Kind: EventTargetSpotted, ActorID: ctx.ActorID, TargetID: res.Spot.TargetID, Position: &at}
		}
	case res.Lose != nil:
		id, lkp := c.loseTarget()
		targetEvent = &Event{Kind: EventTargetLost, ActorID: ctx.ActorID, TargetID: id, Position: lkp}
	}

	if prev == Flee && c.state == Flee {
		obs := ctx.Observation
		switch {
		case len(obs.Threats) > 0:
			n := nearestSighting(ctx.Position, obs.Threats)
			c.trackFleeSource(n.ID, n.Position)
		case obs.Selected != nil && obs.Selected.ID == c.targetID:
			c.trackFleeSource(obs.Selected.ID, obs.Selected.Position)
		}
	}

	s.emitStateChange(ctx, prev)
	if targetEvent != nil {
		s.sink.Record(*targetEvent)
	}
	return res
}

// DecideAction chooses one action for the current state.
//
// Postcondition: returns a non-nil error only when the path finder rejects a
// request as malformed; ordinary unreachability is counted as a movement
// failure and yields Wait.
func (s *Strategy) DecideAction(ctx *Context) (Action, error) {
	c := ctx.Component

	if c.cfg.Pack.ID != "" && !c.cfg.Pack.Leader && ctx.Rally != nil && (c.state == Idle || c.state == Patrol) {
		return s.stepToward(ctx, *ctx.Rally, 1)
	}

	if c.state == Idle {
		s.transition(ctx, c.beginPatrol)
	}

	switch c.state {
	case Chase, Enrage:
		return s.pursue(ctx)
	case Flee:
		return s.flee(ctx)
	case Search:
		return s.search(ctx)
	case Patrol:
		return s.patrol(ctx)
	case Return:
		return s.returnHome(ctx)
	default:
		return Wait(), nil
	}
}

func (s *Strategy) pursue(ctx *Context) (Action, error) {
	c := ctx.Component
	if c.state == Enrage && c.targetID == "" {
		return s.roam(ctx)
	}
	if c.targetID != "" && c.lastKnown != nil && ctx.Skills != nil {
		if slot, ok := ctx.Skills.SelectSkill(ctx.Position, *c.lastKnown, c.Skills(), ctx.SkillContext); ok {
			return UseSkill(slot), nil
		}
	}
	if c.outsideTerritory(ctx.Position) {
		s.logger.Debug("leashed",
			zap.String("actor", ctx.ActorID),
			zap.Stringer("position", ctx.Position),
			zap.Stringer("home", c.cfg.Home),
		)
		s.transition(ctx, c.forceReturn)
		return s.returnHome(ctx)
	}
	if c.lastKnown == nil {
		return Wait(), nil
	}
	return s.stepToward(ctx, *c.lastKnown, 1)
}

func (s *Strategy) flee(ctx *Context) (Action, error) {
	c := ctx.Component
	if c.fleeFrom == nil {
		return Wait(), nil
	}
	goal, ok := FleeGoal(ctx.Position, *c.fleeFrom, c.cfg.VisionRange, s.terrain, c.cfg.Movement)
	if !ok {
		return Wait(), nil
	}
	return s.stepToward(ctx, goal, 0)
}

// search walks to the last-known position, then looks around for the
// configured number of ticks, occasionally wandering to a neighbouring tile.
// Randomness is drawn in a fixed order: facing, then wander chance, then the
// wander tile.
func (s *Strategy) search(ctx *Context) (Action, error) {
	c := ctx.Component
	if !c.searchAtLKP && c.lastKnown != nil && ctx.Position != *c.lastKnown {
		return s.stepToward(ctx, *c.lastKnown, 0)
	}
	c.searchAtLKP = true

	if c.searchLeft <= 0 {
		s.transition(ctx, c.finishSearch)
		if c.state == Patrol {
			return s.patrol(ctx)
		}
		return s.returnHome(ctx)
	}
	return s.lookAround(ctx), nil
}

// roam drives an ENRAGE actor without a target. It searches the last-known
// position the way SEARCH does, then heads home and waits there, never
// leaving ENRAGE. Beyond the leash it skips the search and heads home.
func (s *Strategy) roam(ctx *Context) (Action, error) {
	c := ctx.Component
	if c.outsideTerritory(ctx.Position) {
		c.searchAtLKP = true
		c.searchLeft = 0
	}
	if !c.searchAtLKP && c.lastKnown != nil && ctx.Position != *c.lastKnown {
		return s.stepToward(ctx, *c.lastKnown, 0)
	}
	c.searchAtLKP = true
	if c.searchLeft > 0 {
		return s.lookAround(ctx), nil
	}
	return s.stepToward(ctx, c.cfg.Home, 0)
}

// lookAround spends one search tick: a random facing, then possibly a single
// step to a random passable neighbour.
func (s *Strategy) lookAround(ctx *Context) Action {
	c := ctx.Component
	c.searchLeft--
	c.facing = geom.CompassDirections[s.rng.Intn(len(geom.CompassDirections))]

	if dice.Chance(s.rng, c.cfg.WanderProbability) {
		var options []geom.Coordinate
		for _, d := range geom.CompassDirections {
			next := d.Step(ctx.Position, 1)
			if s.terrain.IsPassable(next, c.cfg.Movement) {
				options = append(options, next)
			}
		}
		if len(options) > 0 {
			next := options[s.rng.Intn(len(options))]
			s.face(c, ctx.Position, next)
			return MoveTo(next)
		}
	}
	return Wait()
}

func (s *Strategy) patrol(ctx *Context) (Action, error) {
	c := ctx.Component
	if len(c.cfg.PatrolRoute) == 0 {
		return Wait(), nil
	}
	if ctx.Position == c.currentWaypoint() {
		c.advancePatrol()
	}
	wp := c.currentWaypoint()
	if ctx.Position == wp {
		return Wait(), nil
	}
	return s.stepToward(ctx, wp, 0)
}

func (s *Strategy) returnHome(ctx *Context) (Action, error) {
	c := ctx.Component
	if ctx.Position == c.cfg.Home {
		s.transition(ctx, c.arriveHome)
		return Wait(), nil
	}
	return s.stepToward(ctx, c.cfg.Home, 0)
}

// stepToward plans a route to goal and returns its first step. within 1 means
// arriving anywhere adjacent on the same level counts as arrived.
func (s *Strategy) stepToward(ctx *Context, goal geom.Coordinate, within int) (Action, error) {
	c := ctx.Component
	pos := ctx.Position
	if pos == goal || (within > 0 && pos.Z == goal.Z && geom.Chebyshev2D(pos, goal) <= within) {
		return Wait(), nil
	}
	path, err := s.paths.FindPath(pos, goal, c.cfg.Movement, s.opts)
	if err != nil && errors.Is(err, nav.ErrInvalidRequest) {
		return Wait(), fmt.Errorf("behavior.DecideAction: actor %s: %w", ctx.ActorID, err)
	}
	if err != nil || len(path) <= 1 {
		s.moveFailed(ctx)
		return Wait(), nil
	}
	c.resetFailures()
	s.face(c, pos, path[1])
	return MoveTo(path[1]), nil
}

// moveFailed counts a failed movement and, once the limit is reached,
// reports the actor stuck and sends it home.
func (s *Strategy) moveFailed(ctx *Context) {
	c := ctx.Component
	n := c.recordMoveFailure()
	if n < c.cfg.MaxFailures {
		return
	}
	s.logger.Debug("actor stuck", zap.String("actor", ctx.ActorID), zap.Int("failures", n))
	s.sink.Record(Event{Kind: EventStuck, ActorID: ctx.ActorID, From: c.state, To: c.state, Failures: n})
	c.resetFailures()
	s.transition(ctx, c.forceReturn)
}

func (s *Strategy) face(c *Component, from, to geom.Coordinate) {
	if d, ok := geom.DirectionToward(from, to); ok {
		c.facing = d
	}
}

// transition applies mutate and emits a state change if the state moved.
func (s *Strategy) transition(ctx *Context, mutate func()) {
	prev := ctx.Component.state
	mutate()
	s.emitStateChange(ctx, prev)
}

func (s *Strategy) emitStateChange(ctx *Context, prev State) {
	next := ctx.Component.state
	if next == prev {
		return
	}
	s.logger.Debug("behavior state changed",
		zap.String("actor", ctx.ActorID),
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)
	s.sink.Record(Event{Kind: EventStateChanged, ActorID: ctx.ActorID, From: prev, To: next})
}

// FleeGoal samples the eight compass directions at vision-range distance and
// returns the passable sample farthest from threat, never closer than the
// current position. Ties go to the earlier compass direction.
func FleeGoal(pos, threat geom.Coordinate, visionRange float64, terrain nav.Passability, capability nav.Capability) (geom.Coordinate, bool) {
	n := int(visionRange)
	if n < 1 {
		n = 1
	}
	current := geom.Euclidean(pos, threat)
	var best geom.Coordinate
	bestDist := -1.0
	for _, d := range geom.CompassDirections {
		sample := d.Step(pos, n)
		if !terrain.IsPassable(sample, capability) {
			continue
		}
		dist := geom.Euclidean(sample, threat)
		if dist < current {
			continue
		}
		if dist > bestDist {
			best, bestDist = sample, dist
		}
	}
	return best, bestDist >= 0
}
