package behavior_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/dice"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
)

type rowsMap struct {
	rows []string
}

func (m rowsMap) InBounds(c geom.Coordinate) bool {
	return c.Z == 0 && c.Y >= 0 && c.Y < len(m.rows) && c.X >= 0 && c.X < len(m.rows[c.Y])
}

func (m rowsMap) IsPassable(c geom.Coordinate, capability nav.Capability) bool {
	return m.InBounds(c) && m.rows[c.Y][c.X] != '#'
}

func (m rowsMap) CanMoveVertically(from, to geom.Coordinate, capability nav.Capability) bool {
	return false
}

func openMap(n int) rowsMap {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = strings.Repeat(".", n)
	}
	return rowsMap{rows: rows}
}

type recorder struct {
	events []behavior.Event
}

func (r *recorder) Record(e behavior.Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []behavior.EventKind {
	out := make([]behavior.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) count(kind behavior.EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func baseConfig() behavior.Config {
	return behavior.Config{
		VisionRange:    5,
		FieldOfView:    120,
		HPFraction:     1,
		FleeThreshold:  0.2,
		MaxFailures:    3,
		SearchDuration: 2,
	}
}

func newStrategy(m rowsMap, sink behavior.EventSink, rng dice.Source) *behavior.Strategy {
	return behavior.NewStrategy(nav.NewFinder(m), m, sink, rng, nil, nav.Options{AllowDiagonal: true})
}

func mustComponent(t *testing.T, cfg behavior.Config) *behavior.Component {
	t.Helper()
	c, err := behavior.NewComponent(cfg)
	require.NoError(t, err)
	return c
}

func sighting(id string, x, y int) *behavior.Sighting {
	return &behavior.Sighting{ID: id, Position: geom.C(x, y, 0)}
}

func TestNewComponent_RejectsOutOfRangeFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*behavior.Config)
		want   error
	}{
		{"vision", func(c *behavior.Config) { c.VisionRange = -1 }, behavior.ErrInvalidVisionRange},
		{"fov", func(c *behavior.Config) { c.FieldOfView = 361 }, behavior.ErrInvalidFieldOfView},
		{"search", func(c *behavior.Config) { c.SearchDuration = -1 }, behavior.ErrInvalidSearchDuration},
		{"hp", func(c *behavior.Config) { c.HPFraction = 1.5 }, behavior.ErrInvalidHPFraction},
		{"flee", func(c *behavior.Config) { c.FleeThreshold = -0.1 }, behavior.ErrInvalidFleeThreshold},
		{"failures", func(c *behavior.Config) { c.MaxFailures = 0 }, behavior.ErrInvalidMaxFailures},
		{"wander", func(c *behavior.Config) { c.WanderProbability = 2 }, behavior.ErrInvalidWanderProbability},
		{"territory", func(c *behavior.Config) { c.TerritoryRadius = -3 }, behavior.ErrInvalidTerritoryRadius},
		{"phase", func(c *behavior.Config) { c.PhaseThresholds = []float64{0.5, 1.2} }, behavior.ErrInvalidPhaseThreshold},
		{"skill range", func(c *behavior.Config) { c.Skills = []behavior.Skill{{Slot: 1, Range: -1}} }, behavior.ErrInvalidSkill},
		{"skill dup", func(c *behavior.Config) { c.Skills = []behavior.Skill{{Slot: 1}, {Slot: 1}} }, behavior.ErrInvalidSkill},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			_, err := behavior.NewComponent(cfg)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestNewComponent_DefaultsToIdleWalker(t *testing.T) {
	c := mustComponent(t, baseConfig())
	assert.Equal(t, behavior.Idle, c.State())
	assert.Equal(t, nav.Walk, c.Movement())
	assert.Empty(t, c.TargetID())
	assert.Nil(t, c.LastKnown())
}

func TestSetHPFraction_Validates(t *testing.T) {
	c := mustComponent(t, baseConfig())
	require.NoError(t, c.SetHPFraction(0.4))
	assert.Equal(t, 0.4, c.HPFraction())
	assert.ErrorIs(t, c.SetHPFraction(-0.1), behavior.ErrInvalidHPFraction)
	assert.Equal(t, 0.4, c.HPFraction())
}

func TestChaseStepsTowardTarget(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(12), rec, dice.NewSeededSource(1))
	c := mustComponent(t, baseConfig())
	ctx := &behavior.Context{
		ActorID:     "wolf",
		Position:    geom.C(5, 5, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 7, 5)},
	}

	s.UpdateState(ctx)
	assert.Equal(t, behavior.Chase, c.State())
	assert.Equal(t, []behavior.EventKind{behavior.EventStateChanged, behavior.EventTargetSpotted}, rec.kinds())

	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.MoveTo(geom.C(6, 5, 0)), act)
	assert.Equal(t, geom.East, c.Facing())
}

func TestLowHPFleesFromSpottedHostile(t *testing.T) {
	s := newStrategy(openMap(12), nil, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.HPFraction = 0.1
	c := mustComponent(t, cfg)
	hostile := geom.C(6, 5, 0)
	ctx := &behavior.Context{
		ActorID:     "goblin",
		Position:    geom.C(5, 5, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: &behavior.Sighting{ID: "hero", Position: hostile}},
	}

	s.UpdateState(ctx)
	require.Equal(t, behavior.Flee, c.State())

	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	require.Equal(t, behavior.ActionMove, act.Kind)
	assert.Greater(t, geom.Euclidean(act.Destination, hostile), geom.Euclidean(ctx.Position, hostile))
}

func TestGrowthOverridesFleeThreshold(t *testing.T) {
	s := newStrategy(openMap(8), nil, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.HPFraction = 0.5
	c := mustComponent(t, cfg)
	th := 0.6
	ctx := &behavior.Context{
		ActorID:   "a",
		Position:  geom.C(1, 1, 0),
		Component: c,
		Observation: behavior.Observation{
			Selected: sighting("b", 3, 1),
			Growth:   &behavior.GrowthContext{FleeThreshold: &th},
		},
	}
	s.UpdateState(ctx)
	assert.Equal(t, behavior.Flee, c.State())
}

func TestChaseDisallowedRecordsTargetOnly(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(8), rec, dice.NewSeededSource(1))
	c := mustComponent(t, baseConfig())
	no := false
	ctx := &behavior.Context{
		ActorID:   "a",
		Position:  geom.C(1, 1, 0),
		Component: c,
		Observation: behavior.Observation{
			Selected: sighting("b", 3, 1),
			Growth:   &behavior.GrowthContext{AllowChase: &no},
		},
	}
	s.UpdateState(ctx)
	assert.Equal(t, behavior.Idle, c.State())
	assert.Equal(t, "b", c.TargetID())
	assert.Equal(t, []behavior.EventKind{behavior.EventTargetSpotted}, rec.kinds())

	ctx.Observation = behavior.Observation{}
	s.UpdateState(ctx)
	assert.Equal(t, behavior.Idle, c.State(), "losing a target outside pursuit keeps the state")
	assert.Empty(t, c.TargetID())
}

func TestThreatBeatsSelectedTarget(t *testing.T) {
	s := newStrategy(openMap(10), nil, dice.NewSeededSource(1))
	c := mustComponent(t, baseConfig())
	ctx := &behavior.Context{
		ActorID:   "deer",
		Position:  geom.C(5, 5, 0),
		Component: c,
		Observation: behavior.Observation{
			Threats:  []behavior.Sighting{*sighting("bear", 8, 5), *sighting("wolf", 6, 6)},
			Selected: sighting("rabbit", 4, 5),
		},
	}
	res := s.UpdateState(ctx)
	require.NotNil(t, res.Flee)
	assert.Nil(t, res.Spot)
	assert.Equal(t, behavior.Flee, c.State())
	assert.Equal(t, "wolf", c.TargetID(), "nearest threat becomes the remembered target")
	assert.Equal(t, geom.C(6, 6, 0), *c.FleeFrom())
}

func TestEnrageAndFleeInSameTick(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(10), rec, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.HPFraction = 0.3
	cfg.PhaseThresholds = []float64{0.5}
	c := mustComponent(t, cfg)
	ctx := &behavior.Context{
		ActorID:     "boss",
		Position:    geom.C(5, 5, 0),
		Component:   c,
		Observation: behavior.Observation{Threats: []behavior.Sighting{*sighting("dragon", 6, 5)}},
	}
	res := s.UpdateState(ctx)
	assert.True(t, res.EnterEnrage)
	require.NotNil(t, res.Flee)
	assert.Equal(t, behavior.Flee, c.State())
	assert.Equal(t, 1, rec.count(behavior.EventStateChanged))
	assert.Equal(t, behavior.Idle, rec.events[0].From)
	assert.Equal(t, behavior.Flee, rec.events[0].To)
}

func TestEnrageHoldsOnSpot(t *testing.T) {
	s := newStrategy(openMap(10), nil, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.HPFraction = 0.4
	cfg.PhaseThresholds = []float64{0.5}
	c := mustComponent(t, cfg)
	ctx := &behavior.Context{
		ActorID:     "boss",
		Position:    geom.C(5, 5, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 8, 5)},
	}
	s.UpdateState(ctx)
	assert.Equal(t, behavior.Enrage, c.State())
	assert.Equal(t, "hero", c.TargetID())

	ctx.Observation = behavior.Observation{}
	s.UpdateState(ctx)
	assert.Equal(t, behavior.Enrage, c.State(), "enrage is permanent")
	assert.Empty(t, c.TargetID())
	assert.Equal(t, cfg.SearchDuration, c.SearchRemaining())
}

func TestEnragedLossSearchesThenGoesHome(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(10), rec, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.Home = geom.C(2, 2, 0)
	cfg.HPFraction = 0.3
	cfg.PhaseThresholds = []float64{0.5}
	c := mustComponent(t, cfg)
	ctx := &behavior.Context{
		ActorID:     "boss",
		Position:    cfg.Home,
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 6, 2)},
	}

	reachedLastKnown := false
	for tick := 0; tick < 40; tick++ {
		s.UpdateState(ctx)
		act, err := s.DecideAction(ctx)
		require.NoError(t, err)
		if act.Kind == behavior.ActionMove {
			ctx.Position = act.Destination
		}
		reachedLastKnown = reachedLastKnown || ctx.Position == geom.C(6, 2, 0)
		ctx.Observation = behavior.Observation{}
	}

	assert.True(t, reachedLastKnown, "searches the last-known position first")
	assert.Equal(t, cfg.Home, ctx.Position)
	assert.Equal(t, behavior.Enrage, c.State())
	assert.Empty(t, c.TargetID())
	assert.Equal(t, 1, rec.count(behavior.EventStateChanged))
	assert.Equal(t, 1, rec.count(behavior.EventTargetLost))
	assert.Zero(t, rec.count(behavior.EventStuck))
}

func TestFleeLoseGoesHome(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(10), rec, dice.NewSeededSource(1))
	c := mustComponent(t, baseConfig())
	ctx := &behavior.Context{
		ActorID:     "deer",
		Position:    geom.C(5, 5, 0),
		Component:   c,
		Observation: behavior.Observation{Threats: []behavior.Sighting{*sighting("wolf", 6, 5)}},
	}
	s.UpdateState(ctx)
	require.Equal(t, behavior.Flee, c.State())

	ctx.Observation = behavior.Observation{}
	s.UpdateState(ctx)
	assert.Equal(t, behavior.Return, c.State())
	assert.Nil(t, c.FleeFrom())
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, behavior.EventTargetLost, last.Kind)
	assert.Equal(t, "wolf", last.TargetID)
}

func TestFleeTracksMovingThreat(t *testing.T) {
	s := newStrategy(openMap(10), nil, dice.NewSeededSource(1))
	c := mustComponent(t, baseConfig())
	ctx := &behavior.Context{
		ActorID:     "deer",
		Position:    geom.C(5, 5, 0),
		Component:   c,
		Observation: behavior.Observation{Threats: []behavior.Sighting{*sighting("wolf", 6, 5)}},
	}
	s.UpdateState(ctx)
	ctx.Observation = behavior.Observation{Threats: []behavior.Sighting{*sighting("wolf", 5, 6)}}
	s.UpdateState(ctx)
	assert.Equal(t, geom.C(5, 6, 0), *c.FleeFrom())
	assert.Equal(t, geom.C(5, 6, 0), *c.LastKnown())
}

type fixedSkill struct {
	slot int
	ok   bool
}

func (f fixedSkill) SelectSkill(self, target geom.Coordinate, skills []behavior.Skill, sc *behavior.SkillContext) (int, bool) {
	return f.slot, f.ok
}

func TestPursuitPrefersSkill(t *testing.T) {
	s := newStrategy(openMap(10), nil, dice.NewSeededSource(1))
	c := mustComponent(t, baseConfig())
	ctx := &behavior.Context{
		ActorID:     "mage",
		Position:    geom.C(2, 2, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 5, 2)},
		Skills:      fixedSkill{slot: 2, ok: true},
	}
	s.UpdateState(ctx)
	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.UseSkill(2), act)

	ctx.Skills = fixedSkill{}
	act, err = s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.ActionMove, act.Kind)
}

func TestChaseAdjacentWaits(t *testing.T) {
	s := newStrategy(openMap(10), nil, dice.NewSeededSource(1))
	c := mustComponent(t, baseConfig())
	ctx := &behavior.Context{
		ActorID:     "wolf",
		Position:    geom.C(2, 2, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 3, 3)},
	}
	s.UpdateState(ctx)
	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.Wait(), act)
	assert.Zero(t, c.Failures())
}

func TestLeashForcesReturn(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(12), rec, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.Home = geom.C(1, 1, 0)
	cfg.TerritoryRadius = 3
	c := mustComponent(t, cfg)
	ctx := &behavior.Context{
		ActorID:     "guard",
		Position:    geom.C(6, 1, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 9, 1)},
	}
	s.UpdateState(ctx)
	require.Equal(t, behavior.Chase, c.State())

	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.Return, c.State())
	assert.Equal(t, behavior.MoveTo(geom.C(5, 1, 0)), act)

	// Still outside the territory: the visible target is ignored.
	ctx.Position = geom.C(5, 1, 0)
	s.UpdateState(ctx)
	assert.Equal(t, behavior.Return, c.State())
}

func TestStuckAfterMaxFailures(t *testing.T) {
	m := rowsMap{rows: []string{
		"#####",
		"#.#.#",
		"#####",
	}}
	rapid.Check(t, func(rt *rapid.T) {
		maxFailures := rapid.IntRange(1, 6).Draw(rt, "max")
		rec := &recorder{}
		s := newStrategy(m, rec, dice.NewSeededSource(1))
		cfg := baseConfig()
		cfg.MaxFailures = maxFailures
		cfg.Home = geom.C(1, 1, 0)
		c, err := behavior.NewComponent(cfg)
		if err != nil {
			rt.Fatalf("NewComponent: %v", err)
		}
		ctx := &behavior.Context{
			ActorID:     "trapped",
			Position:    geom.C(1, 1, 0),
			Component:   c,
			Observation: behavior.Observation{Selected: sighting("hero", 3, 1)},
		}
		s.UpdateState(ctx)

		for i := 1; i <= maxFailures; i++ {
			act, err := s.DecideAction(ctx)
			if err != nil {
				rt.Fatalf("DecideAction: %v", err)
			}
			if act.Kind != behavior.ActionWait {
				rt.Fatalf("tick %d: got %v, want wait", i, act)
			}
			if i < maxFailures {
				if c.State() != behavior.Chase || c.Failures() != i || rec.count(behavior.EventStuck) != 0 {
					rt.Fatalf("tick %d: state %v failures %d stuck %d", i, c.State(), c.Failures(), rec.count(behavior.EventStuck))
				}
				continue
			}
			if c.State() != behavior.Return || c.Failures() != 0 || rec.count(behavior.EventStuck) != 1 {
				rt.Fatalf("final tick: state %v failures %d stuck %d", c.State(), c.Failures(), rec.count(behavior.EventStuck))
			}
		}
	})
}

type invalidPaths struct{}

func (invalidPaths) FindPath(start, goal geom.Coordinate, capability nav.Capability, opts nav.Options) ([]geom.Coordinate, error) {
	return nil, fmt.Errorf("%w: test", nav.ErrInvalidRequest)
}

func TestInvalidPathRequestPropagates(t *testing.T) {
	m := openMap(8)
	s := behavior.NewStrategy(invalidPaths{}, m, nil, dice.NewSeededSource(1), nil, nav.Options{})
	c := mustComponent(t, baseConfig())
	ctx := &behavior.Context{
		ActorID:     "a",
		Position:    geom.C(1, 1, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("b", 5, 5)},
	}
	s.UpdateState(ctx)
	_, err := s.DecideAction(ctx)
	assert.ErrorIs(t, err, nav.ErrInvalidRequest)
	assert.Zero(t, c.Failures())
}

func TestSpotThenLoseRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.IntRange(0, 11).Draw(rt, "x")
		y := rapid.IntRange(0, 11).Draw(rt, "y")
		rec := &recorder{}
		s := newStrategy(openMap(12), rec, dice.NewSeededSource(1))
		c, err := behavior.NewComponent(baseConfig())
		if err != nil {
			rt.Fatalf("NewComponent: %v", err)
		}
		ctx := &behavior.Context{
			ActorID:     "a",
			Position:    geom.C(6, 6, 0),
			Component:   c,
			Observation: behavior.Observation{Selected: sighting("t", x, y)},
		}
		s.UpdateState(ctx)
		ctx.Observation = behavior.Observation{}
		s.UpdateState(ctx)

		if c.State() != behavior.Search {
			rt.Fatalf("state %v, want search", c.State())
		}
		if c.TargetID() != "" {
			rt.Fatalf("target %q still remembered", c.TargetID())
		}
		last := rec.events[len(rec.events)-1]
		if last.Kind != behavior.EventTargetLost || last.Position == nil || *last.Position != geom.C(x, y, 0) {
			rt.Fatalf("last event %+v, want target_lost at (%d,%d,0)", last, x, y)
		}
		if lk := c.LastKnown(); lk == nil || *lk != geom.C(x, y, 0) {
			rt.Fatalf("last known %v not preserved", lk)
		}
	})
}

func TestFleeAlwaysWinsOverPursuit(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(rt, "threats")
		threats := make([]behavior.Sighting, n)
		for i := range threats {
			threats[i] = behavior.Sighting{
				ID:       fmt.Sprintf("t%d", i),
				Position: geom.C(rapid.IntRange(0, 9).Draw(rt, "tx"), rapid.IntRange(0, 9).Draw(rt, "ty"), 0),
			}
		}
		start := rapid.SampledFrom([]behavior.State{behavior.Idle, behavior.Chase}).Draw(rt, "start")
		c, err := behavior.NewComponent(baseConfig())
		if err != nil {
			rt.Fatalf("NewComponent: %v", err)
		}
		s := newStrategy(openMap(10), nil, dice.NewSeededSource(1))
		ctx := &behavior.Context{ActorID: "a", Position: geom.C(5, 5, 0), Component: c}
		if start == behavior.Chase {
			ctx.Observation = behavior.Observation{Selected: sighting("prey", 1, 1)}
			s.UpdateState(ctx)
		}
		ctx.Observation = behavior.Observation{Threats: threats, Selected: sighting("prey", 1, 1)}
		s.UpdateState(ctx)
		if c.State() != behavior.Flee {
			rt.Fatalf("state %v, want flee", c.State())
		}
		nearest := geom.Euclidean(ctx.Position, *c.FleeFrom())
		for _, th := range threats {
			if geom.Euclidean(ctx.Position, th.Position) < nearest {
				rt.Fatalf("fleeing from %v but %v is nearer", *c.FleeFrom(), th.Position)
			}
		}
	})
}

func TestFleeGoalNeverCloser(t *testing.T) {
	m := openMap(16)
	rapid.Check(t, func(rt *rapid.T) {
		pos := geom.C(rapid.IntRange(0, 15).Draw(rt, "px"), rapid.IntRange(0, 15).Draw(rt, "py"), 0)
		threat := geom.C(rapid.IntRange(0, 15).Draw(rt, "tx"), rapid.IntRange(0, 15).Draw(rt, "ty"), 0)
		vision := float64(rapid.IntRange(0, 8).Draw(rt, "vision"))
		goal, ok := behavior.FleeGoal(pos, threat, vision, m, nav.Walk)
		if !ok {
			return
		}
		if !m.IsPassable(goal, nav.Walk) {
			rt.Fatalf("goal %v impassable", goal)
		}
		if geom.Euclidean(goal, threat) < geom.Euclidean(pos, threat) {
			rt.Fatalf("goal %v closer to threat %v than %v", goal, threat, pos)
		}
	})
}

func TestIdleWithRoutePatrols(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(6), rec, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.PatrolRoute = []geom.Coordinate{geom.C(1, 1, 0), geom.C(3, 1, 0)}
	c := mustComponent(t, cfg)
	ctx := &behavior.Context{ActorID: "guard", Position: geom.C(1, 1, 0), Component: c}

	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.Patrol, c.State())
	assert.Equal(t, 1, c.PatrolIndex())
	assert.Equal(t, behavior.MoveTo(geom.C(2, 1, 0)), act)

	ctx.Position = geom.C(3, 1, 0)
	act, err = s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, c.PatrolIndex(), "route wraps")
	assert.Equal(t, behavior.MoveTo(geom.C(2, 1, 0)), act)
}

func TestSearchLooksAroundThenReturns(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(8), rec, dice.NewSeededSource(7))
	cfg := baseConfig()
	cfg.Home = geom.C(0, 0, 0)
	c := mustComponent(t, cfg)
	ctx := &behavior.Context{
		ActorID:     "wolf",
		Position:    geom.C(3, 3, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 3, 3)},
	}
	s.UpdateState(ctx)
	ctx.Observation = behavior.Observation{}
	s.UpdateState(ctx)
	require.Equal(t, behavior.Search, c.State())

	for i := 0; i < cfg.SearchDuration; i++ {
		act, err := s.DecideAction(ctx)
		require.NoError(t, err)
		assert.Equal(t, behavior.Wait(), act)
		assert.Equal(t, behavior.Search, c.State())
	}
	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.Return, c.State())
	assert.Equal(t, behavior.MoveTo(geom.C(2, 2, 0)), act)
}

func TestSearchWanders(t *testing.T) {
	cfg := baseConfig()
	cfg.WanderProbability = 1
	c := mustComponent(t, cfg)
	// Facing draw, then the wander tile index.
	rng := &dice.Sequence{Values: []int{2, 0}}
	s := newStrategy(openMap(8), nil, rng)
	ctx := &behavior.Context{
		ActorID:     "wolf",
		Position:    geom.C(3, 3, 0),
		Component:   c,
		Observation: behavior.Observation{Selected: sighting("hero", 3, 3)},
	}
	s.UpdateState(ctx)
	ctx.Observation = behavior.Observation{}
	s.UpdateState(ctx)

	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.MoveTo(geom.C(3, 2, 0)), act)
	assert.Equal(t, geom.North, c.Facing())
	assert.Equal(t, 1, c.SearchRemaining())
}

func TestReturnArrivesIdle(t *testing.T) {
	rec := &recorder{}
	s := newStrategy(openMap(6), rec, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.Home = geom.C(2, 2, 0)
	c := mustComponent(t, cfg)
	ctx := &behavior.Context{
		ActorID:     "deer",
		Position:    geom.C(2, 2, 0),
		Component:   c,
		Observation: behavior.Observation{Threats: []behavior.Sighting{*sighting("wolf", 3, 2)}},
	}
	s.UpdateState(ctx)
	ctx.Observation = behavior.Observation{}
	s.UpdateState(ctx)
	require.Equal(t, behavior.Return, c.State())

	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.Wait(), act)
	assert.Equal(t, behavior.Idle, c.State())
}

func TestPackFollowerRallies(t *testing.T) {
	s := newStrategy(openMap(10), nil, dice.NewSeededSource(1))
	cfg := baseConfig()
	cfg.Pack = behavior.PackAffiliation{ID: "wolves"}
	c := mustComponent(t, cfg)
	rally := geom.C(5, 1, 0)
	ctx := &behavior.Context{ActorID: "pup", Position: geom.C(1, 1, 0), Component: c, Rally: &rally}

	act, err := s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.MoveTo(geom.C(2, 1, 0)), act)

	ctx.Position = geom.C(4, 1, 0)
	act, err = s.DecideAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, behavior.Wait(), act, "adjacent to the leader counts as rallied")
}

func TestStateString(t *testing.T) {
	for _, st := range []behavior.State{behavior.Idle, behavior.Patrol, behavior.Chase, behavior.Flee, behavior.Search, behavior.Return, behavior.Enrage} {
		got, err := behavior.ParseState(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := behavior.ParseState("sleep")
	assert.Error(t, err)
}
