package world

import (
	"context"
	"errors"
	"fmt"

	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/movement"
	"gridwalk/internal/pathing"
	"gridwalk/internal/threading/core"
	"gridwalk/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
)

// ErrAreaOccupied is returned when an actor cannot be placed
var ErrAreaOccupied = errors.New("area occupied")

// NavigationMap owns the collision grid, the route planner and the actor
// table for the active map. It implements movement.Navigator: all tile
// reservations made by move orders go through it.
type NavigationMap struct {
	renderTileSize   int
	movementTileSize int

	grid    *collision.Grid
	planner *pathing.Planner
	finder  *pathing.Finder
	actors  *ActorTable
	data    *MapData
	log     *logrus.Entry
}

var _ movement.Navigator = (*NavigationMap)(nil)

// NewNavigationMap creates an empty navigation map. renderTileSize must be a
// multiple of movementTileSize.
func NewNavigationMap(renderTileSize, movementTileSize int, pool *core.WorkerPool, monitor *monitoring.PerformanceMonitor) *NavigationMap {
	planner := pathing.NewPlanner(pool, monitor)
	return &NavigationMap{
		renderTileSize:   renderTileSize,
		movementTileSize: movementTileSize,
		grid:             collision.NewGrid(movementTileSize),
		planner:          planner,
		finder:           pathing.NewFinder(planner, monitor),
		actors:           NewActorTable(),
		log:              logging.For("navmap"),
	}
}

func (m *NavigationMap) ratio() int {
	return m.renderTileSize / m.movementTileSize
}

// SetMapData rebuilds the grid from a map: impassable render tiles and the
// map's obstacles become Obstacle cells, every actor is dropped and the
// route matrices are recomputed. Paths handed out earlier may now cross
// obstacles.
func (m *NavigationMap) SetMapData(ctx context.Context, data *MapData) error {
	ratio := m.ratio()
	m.actors.Clear()
	m.data = data
	m.grid.Reset(data.Width*ratio, data.Height*ratio)

	for y := 0; y < data.Height; y++ {
		for x := 0; x < data.Width; x++ {
			if !data.Passable[y][x] {
				m.grid.OccupyTiles(geom.Rect{X: x * ratio, Y: y * ratio, W: ratio, H: ratio}, collision.ObstacleTile)
			}
		}
	}
	for _, ob := range data.Obstacles {
		area := geom.Rect{X: ob.X * ratio, Y: ob.Y * ratio, W: ob.W * ratio, H: ob.H * ratio}
		if !m.grid.OccupyTiles(area, collision.ObstacleTile) {
			return fmt.Errorf("failed to place obstacle %q at %s", ob.Key, area)
		}
	}

	if err := m.planner.Compute(ctx, m.grid, m.movementTileSize); err != nil {
		return fmt.Errorf("failed to plan routes: %w", err)
	}

	w, h := m.grid.Dimensions()
	m.log.WithFields(logrus.Fields{
		"width":     w,
		"height":    h,
		"obstacles": m.grid.Count(collision.KindObstacle),
	}).Info("navigation map rebuilt")
	return nil
}

// MapData returns the map the grid was built from
func (m *NavigationMap) MapData() *MapData { return m.data }

func (m *NavigationMap) Grid() *collision.Grid      { return m.grid }
func (m *NavigationMap) Planner() *pathing.Planner  { return m.planner }
func (m *NavigationMap) Finder() *pathing.Finder    { return m.finder }
func (m *NavigationMap) MovementTileSize() int      { return m.movementTileSize }
func (m *NavigationMap) RenderTileSize() int        { return m.renderTileSize }
func (m *NavigationMap) Actors() *ActorTable        { return m.actors }

// RenderTileToPixel returns the top-left pixel of a render tile
func (m *NavigationMap) RenderTileToPixel(x, y int) geom.Point {
	return geom.Point{X: x * m.renderTileSize, Y: y * m.renderTileSize}
}

// AddObstacle marks a pixel area as a static obstacle. The route matrices
// are not recomputed; searches still avoid the area through the grid.
func (m *NavigationMap) AddObstacle(area geom.Rect) bool {
	return m.grid.Occupy(area, collision.ObstacleTile)
}

// AddActor registers an actor and occupies its footprint
func (m *NavigationMap) AddActor(a movement.Actor) (collision.Handle, error) {
	h := m.actors.Insert(a)
	area := m.footprint(a, a.Location())
	if !m.grid.Occupy(area, collision.ActorTile(h)) {
		m.actors.Remove(h)
		return collision.NoHandle, fmt.Errorf("%w: cannot place actor at %s", ErrAreaOccupied, area)
	}
	return h, nil
}

// RemoveActor frees every cell the actor holds and drops it from the table.
// Callers cancel its move order first.
func (m *NavigationMap) RemoveActor(h collision.Handle) bool {
	if _, ok := m.actors.Get(h); !ok {
		return false
	}
	if m.grid.Loaded() {
		m.grid.ReleaseTiles(m.grid.Bounds(), collision.ActorTile(h))
	}
	return m.actors.Remove(h)
}

// Actor returns the actor behind a handle
func (m *NavigationMap) Actor(h collision.Handle) (movement.Actor, bool) {
	return m.actors.Get(h)
}

func (m *NavigationMap) footprint(a movement.Actor, at geom.Point) geom.Rect {
	size := a.Size()
	if size.Empty() {
		size = geom.Size{W: m.movementTileSize, H: m.movementTileSize}
	}
	return geom.NewRect(at, size)
}

func (m *NavigationMap) footprintOf(h collision.Handle, at geom.Point) (geom.Rect, bool) {
	a, ok := m.actors.Get(h)
	if !ok {
		return geom.Rect{}, false
	}
	return m.footprint(a, at), true
}

// FindBestPath returns the static shortest path, ignoring actors
func (m *NavigationMap) FindBestPath(src, dst geom.Point) pathing.Path {
	return m.planner.FindIdealPath(src, dst)
}

// FindReroutedPath searches around current occupants. Cells held by the
// actor itself do not block it.
func (m *NavigationMap) FindReroutedPath(h collision.Handle, src, dst geom.Point) pathing.Path {
	area, ok := m.footprintOf(h, src)
	if !ok {
		return pathing.Path{}
	}
	self := collision.ActorTile(h)
	occ := pathing.OccupancyFunc(func(tiles geom.Rect) bool {
		return m.grid.CanOccupyTiles(tiles, self)
	})
	return m.finder.FindReroutedPath(occ, pathing.Request{
		Source:      src,
		Destination: dst,
		Footprint:   m.grid.TileRect(area).Size(),
	})
}

// BeginMovement reserves the actor's footprint at dst
func (m *NavigationMap) BeginMovement(h collision.Handle, dst geom.Point) bool {
	area, ok := m.footprintOf(h, dst)
	if !ok {
		return false
	}
	return m.grid.Occupy(area, collision.ActorTile(h))
}

// AbortMovement frees the cells reserved at dst that are not part of the
// footprint at src
func (m *NavigationMap) AbortMovement(h collision.Handle, src, dst geom.Point) {
	from, ok := m.footprintOf(h, src)
	if !ok {
		return
	}
	to, _ := m.footprintOf(h, dst)
	m.releaseOutside(h, m.grid.TileRect(to), m.grid.TileRect(from))
}

// EndMovement frees the cells at src not covered by dst and re-asserts the
// footprint at dst
func (m *NavigationMap) EndMovement(h collision.Handle, src, dst geom.Point) {
	from, ok := m.footprintOf(h, src)
	if !ok {
		return
	}
	to, _ := m.footprintOf(h, dst)
	toTiles := m.grid.TileRect(to)
	m.releaseOutside(h, m.grid.TileRect(from), toTiles)
	if !m.grid.OccupyTiles(toTiles, collision.ActorTile(h)) {
		m.log.WithFields(logrus.Fields{"actor": h, "dst": dst}).Warn("end of movement without a full reservation")
	}
}

// releaseOutside frees cells of release that still hold h and lie outside keep
func (m *NavigationMap) releaseOutside(h collision.Handle, release, keep geom.Rect) {
	self := collision.ActorTile(h)
	for y := release.Y; y < release.MaxY(); y++ {
		for x := release.X; x < release.MaxX(); x++ {
			if !keep.Contains(geom.Point{X: x, Y: y}) && m.grid.At(x, y) == self {
				m.grid.FreeTiles(geom.Rect{X: x, Y: y, W: 1, H: 1})
			}
		}
	}
}

// IsAreaFree reports whether a pixel area holds no occupant at all
func (m *NavigationMap) IsAreaFree(area geom.Rect) bool {
	return m.grid.IsFree(area)
}

// AdjacentOccupant reports what stands right in front of the actor
func (m *NavigationMap) AdjacentOccupant(h collision.Handle) (collision.TileState, bool) {
	a, ok := m.actors.Get(h)
	if !ok || !m.grid.Loaded() {
		return collision.FreeTile, false
	}
	return m.grid.AdjacentOccupant(m.footprint(a, a.Location()), a.Direction())
}

// TileOrigin snaps a pixel to the top-left corner of its movement tile
func (m *NavigationMap) TileOrigin(p geom.Point) geom.Point {
	return m.grid.PixelOf(m.grid.TileOf(p))
}

// WithinMap reports whether a pixel area lies entirely on the map
func (m *NavigationMap) WithinMap(area geom.Rect) bool {
	return m.grid.Loaded() && !area.Empty() && m.grid.PixelBounds().ContainsRect(area)
}
