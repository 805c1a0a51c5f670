package world

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gridwalk/internal/actor"
	"gridwalk/internal/collision"
	"gridwalk/internal/config"
	"gridwalk/internal/geom"
	"gridwalk/internal/movement"
	"gridwalk/internal/threading/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T) (*WorldManager, *monitoring.PerformanceMonitor) {
	t.Helper()
	cfg := config.DefaultConfig()
	archetypes := &actor.ArchetypeConfig{Actors: map[string]actor.Archetype{
		"walker": {Name: "Walker", Speed: 64, Width: 1, Height: 1},
		"ox":     {Name: "Ox", Speed: 32, Width: 2, Height: 2},
	}}
	monitor := monitoring.NewPerformanceMonitor()
	return NewWorldManager(cfg, testTiles, archetypes, nil, monitor), monitor
}

func TestActivateSpawnsActors(t *testing.T) {
	wm, _ := newTestWorld(t)
	md, err := parseTestMap(
		"WWWWWW",
		"W@..@W  >[actor:walker], [actor:ox]",
		"W....W",
		"WWWWWW",
	)
	require.NoError(t, err)
	wm.AddMap("yard", md)

	require.NoError(t, wm.Activate(context.Background(), "yard"))
	assert.Equal(t, "yard", wm.CurrentMapKey)

	handles := wm.Handles()
	require.Len(t, handles, 2)
	walker, ok := wm.Walker(handles[0])
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 32, Y: 32}, walker.Location())
	ox, ok := wm.Walker(handles[1])
	require.True(t, ok)
	assert.Equal(t, geom.Size{W: 32, H: 32}, ox.Size())

	current, err := wm.CurrentMap()
	require.NoError(t, err)
	assert.Same(t, md, current)
}

func TestActivateUnknownMap(t *testing.T) {
	wm, _ := newTestWorld(t)
	assert.ErrorIs(t, wm.Activate(context.Background(), "nowhere"), ErrMapNotFound)

	_, err := wm.CurrentMap()
	assert.ErrorIs(t, err, ErrNoActiveMap)
	_, err = wm.SpawnActor("walker", geom.Point{})
	assert.ErrorIs(t, err, ErrNoActiveMap)
}

func TestSpawnUnknownArchetype(t *testing.T) {
	wm, _ := newTestWorld(t)
	md, err := parseTestMap("WWWW", "W..W", "WWWW")
	require.NoError(t, err)
	wm.AddMap("box", md)
	require.NoError(t, wm.Activate(context.Background(), "box"))

	_, err = wm.SpawnActor("dragon", geom.Point{X: 32, Y: 32})
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestCommandWalksActorToDestination(t *testing.T) {
	wm, monitor := newTestWorld(t)
	md, err := parseTestMap(
		"WWWWWW",
		"W@...W  >[actor:walker]",
		"WWWWWW",
	)
	require.NoError(t, err)
	wm.AddMap("hall", md)
	require.NoError(t, wm.Activate(context.Background(), "hall"))

	h := wm.Handles()[0]
	done := false
	dest := geom.Point{X: 128, Y: 32}
	require.True(t, wm.Command(h, dest, movement.TaskFunc(func() { done = true })))
	assert.True(t, wm.Scheduler.Moving(h))

	for i := 0; i < 40 && wm.Scheduler.Moving(h); i++ {
		wm.Update(100 * time.Millisecond)
	}

	walker, _ := wm.Walker(h)
	assert.Equal(t, dest, walker.Location())
	assert.True(t, done)
	assert.False(t, wm.Scheduler.Moving(h))
	assert.Equal(t, movement.AnimIdle, walker.Animation())
	assert.Equal(t, uint64(1), monitor.Snapshot().Arrivals)

	assert.False(t, wm.Command(h, geom.Point{X: 400, Y: 32}, nil), "outside the map")
}

func TestRemoveActorCancelsOrder(t *testing.T) {
	wm, _ := newTestWorld(t)
	md, err := parseTestMap(
		"WWWWWW",
		"W@...W  >[actor:walker]",
		"WWWWWW",
	)
	require.NoError(t, err)
	wm.AddMap("hall", md)
	require.NoError(t, wm.Activate(context.Background(), "hall"))

	h := wm.Handles()[0]
	require.True(t, wm.Command(h, geom.Point{X: 128, Y: 32}, nil))
	wm.Update(50 * time.Millisecond)
	wm.Update(50 * time.Millisecond)

	assert.True(t, wm.RemoveActor(h))
	assert.False(t, wm.Scheduler.Moving(h))
	assert.Empty(t, wm.Handles())
	assert.Zero(t, wm.Nav.Grid().Count(collision.KindActor))
}

func TestLoadMapConfigsAndMaps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "maps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maps", "yard.map"), []byte("WWWW\nW+.W\nWWWW\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maps", "broken.map"), []byte("WWWW\nW?.W\n"), 0o644))
	configs := filepath.Join(dir, "map_configs.yaml")
	require.NoError(t, os.WriteFile(configs, []byte(`
maps:
  yard:
    name: Yard
    file: maps/yard.map
  broken:
    name: Broken
    file: maps/broken.map
`), 0o644))

	wm, _ := newTestWorld(t)
	wm.config.World.AssetsDir = dir
	wm.config.World.StartMap = "yard"

	require.NoError(t, wm.LoadMapConfigs(configs))
	require.NoError(t, wm.LoadAllMaps())
	assert.Equal(t, []string{"yard"}, wm.GetAvailableMaps())

	require.NoError(t, wm.Activate(context.Background(), "yard"))
	assert.Equal(t, "Yard", wm.GetCurrentMapConfig().Name)

	wm.config.World.StartMap = "broken"
	assert.ErrorIs(t, wm.LoadAllMaps(), ErrMapNotFound)
}
