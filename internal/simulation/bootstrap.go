package simulation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/config"
	"github.com/Motifman/llm-rpg-sub007/internal/events"
	"github.com/Motifman/llm-rpg-sub007/internal/game/ai"
	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/dice"
	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
	"github.com/Motifman/llm-rpg-sub007/internal/game/npc"
	"github.com/Motifman/llm-rpg-sub007/internal/game/policy"
	"github.com/Motifman/llm-rpg-sub007/internal/game/world"
	"github.com/Motifman/llm-rpg-sub007/internal/scripting"
)

// ScriptedPolicy is the target policy name backed by content.script_dir.
const ScriptedPolicy = "scripted"

// scriptSet is the Lua script set holding policy hooks.
const scriptSet = "policies"

// spawnSearchRadius bounds how far a spawn may be pushed off its tile.
const spawnSearchRadius = 3

// Runtime is a fully wired simulation.
type Runtime struct {
	Grid   *world.Grid
	Actors *npc.Manager
	Driver *ai.Driver
	Events *events.Log
	Loop   *Loop

	closers []func() error
}

// Close releases the script VMs and the Redis connection.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Bootstrap loads the configured content and wires every component.
//
// Precondition: cfg must be valid; logger must not be nil.
// Postcondition: on success the caller owns the Runtime and must Close it;
// on error nothing is left open.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{}
	ready := false
	defer func() {
		if !ready {
			_ = rt.Close()
		}
	}()

	var rng dice.Source
	if cfg.Simulation.Seed != 0 {
		rng = dice.NewSeededSource(cfg.Simulation.Seed)
	} else {
		rng = dice.NewCryptoSource()
	}

	grid, err := world.LoadGridFromFile(cfg.Content.MapFile)
	if err != nil {
		return nil, fmt.Errorf("loading map: %w", err)
	}
	rt.Grid = grid
	resolver, err := disposition.LoadTable(cfg.Content.DispositionFile)
	if err != nil {
		return nil, fmt.Errorf("loading disposition table: %w", err)
	}
	templates, err := npc.LoadTemplates(cfg.Content.NPCDir)
	if err != nil {
		return nil, fmt.Errorf("loading npc templates: %w", err)
	}
	logger.Info("content loaded",
		zap.String("map", rt.Grid.ID),
		zap.Int("width", rt.Grid.Width),
		zap.Int("height", rt.Grid.Height),
		zap.Int("levels", rt.Grid.Depth()),
		zap.Int("templates", len(templates)),
	)

	rt.Actors = npc.NewManager()
	if err := SpawnAll(rt.Grid, templates, rt.Actors, logger); err != nil {
		return nil, err
	}

	var paths nav.PathFinder = nav.NewFinder(rt.Grid)
	if cfg.Pathfinding.CacheTTL > 0 {
		paths = nav.NewCachedFinder(paths, cfg.Pathfinding.CacheSize, cfg.Pathfinding.CacheTTL)
	}

	registry := policy.NewDefaultRegistry(resolver)
	if cfg.Content.ScriptDir != "" {
		scripts := scripting.NewManager(rng, logger)
		rt.closers = append(rt.closers, func() error { scripts.Close(); return nil })
		scripts.GetActor = actorInfo(rt.Actors)
		if err := scripts.LoadSet(scriptSet, cfg.Content.ScriptDir, cfg.Content.ScriptInstructionLimit); err != nil {
			return nil, fmt.Errorf("loading policy scripts: %w", err)
		}
		if err := registry.RegisterTarget(ScriptedPolicy, policy.NewScripted(scripts, scriptSet, policy.Nearest{})); err != nil {
			return nil, err
		}
	}
	for _, tmpl := range templates {
		if _, ok := registry.Target(tmpl.TargetPolicy); !ok {
			logger.Warn("template names an unknown target policy",
				zap.String("template", tmpl.ID),
				zap.String("policy", tmpl.TargetPolicy),
			)
		}
		if _, ok := registry.Skill(tmpl.SkillPolicy); !ok {
			logger.Warn("template names an unknown skill policy",
				zap.String("template", tmpl.ID),
				zap.String("policy", tmpl.SkillPolicy),
			)
		}
	}

	rt.Events = events.NewLog(events.WithHistory(cfg.Events.History))
	strategy := behavior.NewStrategy(paths, rt.Grid, rt.Events, rng, logger, nav.Options{
		AllowDiagonal: cfg.Pathfinding.AllowDiagonal,
		MaxNodes:      cfg.Pathfinding.MaxNodes,
	})
	rt.Driver = ai.NewDriver(world.NewSpace(rt.Grid, rt.Actors), resolver, registry, strategy, logger)

	opts := []Option{WithThreats(rt.Driver), WithForgetter(rt.Driver)}
	if cfg.Events.RedisAddr != "" {
		pub, err := events.NewPublisher(ctx, cfg.Events.RedisAddr, cfg.Events.StreamPrefix, logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pub.Close)
		opts = append(opts, WithPublisher(pub))
	}
	rt.Loop = NewLoop(rt.Actors, rt.Driver, rt.Events, logger, opts...)
	ready = true
	return rt, nil
}

// SpawnAll places every map spawn, spreading counts over nearby free tiles.
//
// Postcondition: returns an error for unknown templates or when no free tile
// lies within a few steps of a spawn point.
func SpawnAll(grid *world.Grid, templates []*npc.Template, actors *npc.Manager, logger *zap.Logger) error {
	byID := make(map[string]*npc.Template, len(templates))
	for _, tmpl := range templates {
		byID[tmpl.ID] = tmpl
	}
	for _, sp := range grid.Spawns {
		tmpl, ok := byID[sp.Template]
		if !ok {
			return fmt.Errorf("map %q spawns unknown template %q", grid.ID, sp.Template)
		}
		capability, err := nav.ParseCapability(tmpl.Movement)
		if err != nil {
			return fmt.Errorf("template %q: %w", tmpl.ID, err)
		}
		for i := 0; i < sp.Count; i++ {
			at, ok := freeTileNear(grid, actors, sp.At, capability)
			if !ok {
				return fmt.Errorf("no free tile near %s for %q", sp.At, tmpl.ID)
			}
			inst, err := actors.Spawn(tmpl, at)
			if err != nil {
				return err
			}
			logger.Debug("spawned", zap.String("actor", inst.ID), zap.Stringer("at", at))
		}
	}
	return nil
}

// freeTileNear searches rings of increasing radius around c.
func freeTileNear(grid *world.Grid, actors *npc.Manager, c geom.Coordinate, capability nav.Capability) (geom.Coordinate, bool) {
	free := func(p geom.Coordinate) bool {
		return grid.IsPassable(p, capability) && !actors.Occupied(p, "")
	}
	if free(c) {
		return c, true
	}
	for r := 1; r <= spawnSearchRadius; r++ {
		for _, d := range geom.CompassDirections {
			if p := d.Step(c, r); free(p) {
				return p, true
			}
		}
	}
	return geom.Coordinate{}, false
}

func actorInfo(actors *npc.Manager) func(id string) *scripting.ActorInfo {
	return func(id string) *scripting.ActorInfo {
		inst, ok := actors.Get(id)
		if !ok {
			return nil
		}
		return &scripting.ActorInfo{
			ID:         inst.ID,
			Name:       inst.Name,
			X:          inst.Position.X,
			Y:          inst.Position.Y,
			Z:          inst.Position.Z,
			HPFraction: inst.HPFraction(),
			Race:       inst.Descriptor.Race,
			Faction:    inst.Descriptor.Faction,
		}
	}
}
