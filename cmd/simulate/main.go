// Package main runs the behavior engine over YAML content on a fixed tick.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/config"
	"github.com/Motifman/llm-rpg-sub007/internal/observability"
	"github.com/Motifman/llm-rpg-sub007/internal/server"
	"github.com/Motifman/llm-rpg-sub007/internal/simulation"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "content/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	rt, err := simulation.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrapping simulation", zap.Error(err))
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("closing simulation", zap.Error(err))
		}
	}()

	ticker := simulation.NewTicker(cfg.Simulation.TickInterval)
	lc := server.NewLifecycle(logger)
	lc.Add("simulation", server.ServiceFunc(func(ctx context.Context) error {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		ticker.Register(rt.Grid.ID, func(ctx context.Context) {
			res := rt.Loop.Step(ctx)
			logger.Info("tick",
				zap.Uint64("tick", res.Tick),
				zap.Int("moved", res.Moved),
				zap.Int("skills", res.Skills),
				zap.Int("blocked", res.Blocked),
				zap.Int("failed", res.Failed),
				zap.Int("removed", res.Removed),
				zap.Int("events", res.Events),
			)
			if cfg.Simulation.MaxTicks > 0 && res.Tick >= uint64(cfg.Simulation.MaxTicks) {
				cancel()
			}
		})
		ticker.Run(runCtx)
		return nil
	}))

	logger.Info("simulation started",
		zap.Int("actors", len(rt.Actors.All())),
		zap.Duration("tick_interval", cfg.Simulation.TickInterval),
		zap.Duration("startup", time.Since(start)),
	)
	if err := lc.Run(ctx); err != nil {
		logger.Error("simulation service", zap.Error(err))
	}

	for _, inst := range rt.Actors.All() {
		fields := []zap.Field{
			zap.String("actor", inst.ID),
			zap.Stringer("position", inst.Position),
			zap.String("health", inst.HealthDescription()),
		}
		if inst.Behavior != nil {
			fields = append(fields, zap.Stringer("state", inst.Behavior.State()))
		}
		logger.Info("final", fields...)
	}
	logger.Info("simulation stopped", zap.Uint64("ticks", rt.Loop.Tick()), zap.Int("events", rt.Events.Len()))
}
