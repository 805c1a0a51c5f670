package world

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gridwalk/internal/actor"
	"gridwalk/internal/collision"
	"gridwalk/internal/config"
	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/movement"
	"gridwalk/internal/threading/core"
	"gridwalk/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrMapNotFound  = errors.New("map not found")
	ErrNoActiveMap  = errors.New("no active map")
	ErrUnknownActor = errors.New("unknown actor")
)

// WorldManager handles the loaded maps, the active navigation map and the
// actors walking on it
type WorldManager struct {
	CurrentMapKey string
	LoadedMaps    map[string]*MapData
	MapConfigs    map[string]*config.MapConfig

	config     *config.Config
	tiles      *TileManager
	archetypes *actor.ArchetypeConfig
	monitor    *monitoring.PerformanceMonitor

	Nav       *NavigationMap
	Scheduler *movement.Scheduler

	walkers map[collision.Handle]*actor.Walker
	log     *logrus.Entry
}

// NewWorldManager creates a world manager. The pool runs route planning and
// may be nil; archetypes may be nil when maps spawn no actors.
func NewWorldManager(cfg *config.Config, tiles *TileManager, archetypes *actor.ArchetypeConfig, pool *core.WorkerPool, monitor *monitoring.PerformanceMonitor) *WorldManager {
	nav := NewNavigationMap(cfg.GetRenderTileSize(), cfg.GetMovementTileSize(), pool, monitor)
	return &WorldManager{
		LoadedMaps: make(map[string]*MapData),
		MapConfigs: make(map[string]*config.MapConfig),
		config:     cfg,
		tiles:      tiles,
		archetypes: archetypes,
		monitor:    monitor,
		Nav:        nav,
		Scheduler:  movement.NewScheduler(nav, monitor, cfg.GetMaxFrameDelta()),
		walkers:    make(map[collision.Handle]*actor.Walker),
		log:        logging.For("world"),
	}
}

// LoadMapConfigs loads map configurations from map_configs.yaml
func (wm *WorldManager) LoadMapConfigs(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read map configs file: %w", err)
	}

	var mapConfigs config.MapConfigs
	if err := yaml.Unmarshal(data, &mapConfigs); err != nil {
		return fmt.Errorf("failed to parse map configs: %w", err)
	}

	wm.MapConfigs = make(map[string]*config.MapConfig)
	for key, mapConfig := range mapConfigs.Maps {
		// Make a copy to avoid pointer issues
		configCopy := mapConfig
		wm.MapConfigs[key] = &configCopy
	}

	wm.log.WithField("maps", len(wm.MapConfigs)).Info("loaded map configurations")
	return nil
}

// LoadAllMaps parses every configured map file. A map that fails to load
// is skipped with a warning; the start map must load.
func (wm *WorldManager) LoadAllMaps() error {
	loader := NewMapLoader(wm.tiles)
	for key, mc := range wm.MapConfigs {
		md, err := loader.LoadMap(wm.config.AssetPath(mc.File))
		if err != nil {
			wm.log.WithError(err).WithField("map", key).Warn("failed to load map")
			continue
		}
		wm.LoadedMaps[key] = md
	}

	if start := wm.config.World.StartMap; start != "" {
		if _, ok := wm.LoadedMaps[start]; !ok {
			return fmt.Errorf("failed to load start map %s: %w", start, ErrMapNotFound)
		}
	}
	return nil
}

// AddMap registers already parsed map data under a key
func (wm *WorldManager) AddMap(key string, md *MapData) {
	wm.LoadedMaps[key] = md
}

// Activate makes a loaded map current: every move order is released, the
// navigation map is rebuilt and the map's actors are spawned.
func (wm *WorldManager) Activate(ctx context.Context, key string) error {
	md, ok := wm.LoadedMaps[key]
	if !ok {
		return fmt.Errorf("failed to activate %s: %w", key, ErrMapNotFound)
	}

	start := time.Now()
	wm.Scheduler.CancelAll()
	wm.walkers = make(map[collision.Handle]*actor.Walker)

	if err := wm.Nav.SetMapData(ctx, md); err != nil {
		wm.CurrentMapKey = ""
		return fmt.Errorf("failed to activate %s: %w", key, err)
	}
	wm.CurrentMapKey = key

	for _, spawn := range md.ActorSpawns {
		at := wm.Nav.RenderTileToPixel(spawn.X, spawn.Y)
		if _, err := wm.SpawnActor(spawn.Key, at); err != nil {
			wm.log.WithError(err).WithFields(logrus.Fields{
				"actor": spawn.Key,
				"tile":  geom.Point{X: spawn.X, Y: spawn.Y},
			}).Warn("actor spawn skipped")
		}
	}

	wm.log.WithFields(logrus.Fields{
		"map":     key,
		"actors":  len(wm.walkers),
		"elapsed": time.Since(start),
	}).Info("map activated")
	return nil
}

// SpawnActor places a walker of the given archetype at a pixel location
func (wm *WorldManager) SpawnActor(archetypeKey string, at geom.Point) (collision.Handle, error) {
	if wm.CurrentMapKey == "" {
		return collision.NoHandle, ErrNoActiveMap
	}
	if wm.archetypes == nil {
		return collision.NoHandle, fmt.Errorf("%w: %s (no archetypes loaded)", ErrUnknownActor, archetypeKey)
	}
	arch, err := wm.archetypes.GetArchetype(archetypeKey)
	if err != nil {
		return collision.NoHandle, fmt.Errorf("%w: %v", ErrUnknownActor, err)
	}

	w := actor.NewWalker(archetypeKey, arch, at, wm.config.GetMovementTileSize(), wm.config.GetDefaultSpeed())
	h, err := wm.Nav.AddActor(w)
	if err != nil {
		return collision.NoHandle, err
	}
	wm.walkers[h] = w
	return h, nil
}

// RemoveActor cancels the actor's order and takes it off the map
func (wm *WorldManager) RemoveActor(h collision.Handle) bool {
	wm.Scheduler.Cancel(h)
	delete(wm.walkers, h)
	return wm.Nav.RemoveActor(h)
}

// Walker returns the walker behind a handle
func (wm *WorldManager) Walker(h collision.Handle) (*actor.Walker, bool) {
	w, ok := wm.walkers[h]
	return w, ok
}

// Handles returns the live actor handles in ascending order
func (wm *WorldManager) Handles() []collision.Handle {
	hs := make([]collision.Handle, 0, len(wm.walkers))
	for h := range wm.walkers {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

// Command sends an actor to a pixel destination
func (wm *WorldManager) Command(h collision.Handle, dest geom.Point, task movement.Task) bool {
	a, ok := wm.Nav.Actor(h)
	if !ok {
		wm.log.WithField("actor", h).Warn("command for unknown actor")
		return false
	}
	return wm.Scheduler.Command(h, a, dest, task)
}

// Update advances every move order by one frame
func (wm *WorldManager) Update(elapsed time.Duration) {
	wm.Scheduler.Tick(elapsed)
}

// CurrentMap returns the active map data
func (wm *WorldManager) CurrentMap() (*MapData, error) {
	if wm.CurrentMapKey == "" {
		return nil, ErrNoActiveMap
	}
	return wm.LoadedMaps[wm.CurrentMapKey], nil
}

// GetCurrentMapConfig returns the configuration for the current map
func (wm *WorldManager) GetCurrentMapConfig() *config.MapConfig {
	return wm.MapConfigs[wm.CurrentMapKey]
}

// GetAvailableMaps returns the loaded map keys in sorted order
func (wm *WorldManager) GetAvailableMaps() []string {
	maps := make([]string, 0, len(wm.LoadedMaps))
	for key := range wm.LoadedMaps {
		maps = append(maps, key)
	}
	sort.Strings(maps)
	return maps
}

// Tiles returns the tile table maps were parsed with
func (wm *WorldManager) Tiles() *TileManager {
	return wm.tiles
}

// ArchetypeKeys returns the spawnable actor archetypes in sorted order
func (wm *WorldManager) ArchetypeKeys() []string {
	if wm.archetypes == nil {
		return nil
	}
	return wm.archetypes.GetAllKeys()
}
