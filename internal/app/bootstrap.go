package app

import (
	"context"
	"fmt"
	"path/filepath"

	"gridwalk/internal/actor"
	"gridwalk/internal/config"
	"gridwalk/internal/logging"
	"gridwalk/internal/threading/core"
	"gridwalk/internal/threading/monitoring"
	"gridwalk/internal/world"

	"github.com/sirupsen/logrus"
)

// Runtime is everything a front end needs to drive the world
type Runtime struct {
	Config     *config.Config
	Tiles      *world.TileManager
	Archetypes *actor.ArchetypeConfig
	Pool       *core.WorkerPool
	Monitor    *monitoring.PerformanceMonitor
	World      *world.WorldManager
}

// Load reads the configuration file and every asset it names, then activates
// mapKey (the configured start map when empty). A relative assets directory
// is resolved against the configuration file's directory.
func Load(ctx context.Context, configPath, mapKey string) (*Runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.World.AssetsDir) {
		cfg.World.AssetsDir = filepath.Join(filepath.Dir(configPath), cfg.World.AssetsDir)
	}
	if err := logging.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return Start(ctx, cfg, mapKey)
}

// Start builds a runtime from an already loaded configuration
func Start(ctx context.Context, cfg *config.Config, mapKey string) (*Runtime, error) {
	log := logging.For("app")

	tiles := world.NewTileManager()
	if err := tiles.LoadTileConfig(cfg.AssetPath(cfg.World.TilesFile)); err != nil {
		return nil, fmt.Errorf("failed to load tiles: %w", err)
	}

	archetypes, err := actor.LoadArchetypeConfig(cfg.AssetPath(cfg.World.ActorsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load actors: %w", err)
	}

	pool := core.NewWorkerPool(cfg.Planner.Workers)
	pool.Start()
	monitor := monitoring.NewPerformanceMonitor()

	rt := &Runtime{
		Config:     cfg,
		Tiles:      tiles,
		Archetypes: archetypes,
		Pool:       pool,
		Monitor:    monitor,
		World:      world.NewWorldManager(cfg, tiles, archetypes, pool, monitor),
	}

	if err := rt.World.LoadMapConfigs(cfg.AssetPath(cfg.World.MapConfigs)); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.World.LoadAllMaps(); err != nil {
		rt.Close()
		return nil, err
	}

	if mapKey == "" {
		mapKey = cfg.World.StartMap
	}
	if err := rt.World.Activate(ctx, mapKey); err != nil {
		rt.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"map":     mapKey,
		"maps":    len(rt.World.LoadedMaps),
		"workers": pool.NumWorkers(),
	}).Info("runtime ready")
	return rt, nil
}

// Close stops the planner's workers
func (rt *Runtime) Close() {
	rt.Pool.Stop()
}
