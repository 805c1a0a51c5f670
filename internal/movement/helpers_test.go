package movement

import (
	"context"
	"testing"

	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/pathing"

	"github.com/stretchr/testify/require"
)

const testTile = 16

func px(x, y int) geom.Point {
	return geom.Point{X: x * testTile, Y: y * testTile}
}

type testActor struct {
	loc   geom.Point
	dir   geom.Direction
	speed float64
	size  geom.Size
	anim  Animation
}

func newTestActor(at geom.Point, speed float64) *testActor {
	return &testActor{loc: at, speed: speed, size: geom.Size{W: testTile, H: testTile}}
}

func (a *testActor) Location() geom.Point          { return a.loc }
func (a *testActor) SetLocation(p geom.Point)      { a.loc = p }
func (a *testActor) Direction() geom.Direction     { return a.dir }
func (a *testActor) SetDirection(d geom.Direction) { a.dir = d }
func (a *testActor) Speed() float64                { return a.speed }
func (a *testActor) Size() geom.Size               { return a.size }
func (a *testActor) SetAnimation(anim Animation)   { a.anim = anim }

// gridNav is a minimal navigator over a real grid and planner that counts
// protocol calls.
type gridNav struct {
	grid    *collision.Grid
	planner *pathing.Planner
	finder  *pathing.Finder
	actors  map[collision.Handle]*testActor

	reroutes int
	begins   int
	ends     int
	aborts   int
}

func newGridNav(t *testing.T, rows ...string) *gridNav {
	t.Helper()
	grid := collision.NewGrid(testTile)
	grid.Reset(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				require.True(t, grid.OccupyTiles(geom.Rect{X: x, Y: y, W: 1, H: 1}, collision.ObstacleTile))
			}
		}
	}
	planner := pathing.NewPlanner(nil, nil)
	require.NoError(t, planner.Compute(context.Background(), grid, testTile))
	return &gridNav{
		grid:    grid,
		planner: planner,
		finder:  pathing.NewFinder(planner, nil),
		actors:  make(map[collision.Handle]*testActor),
	}
}

func openRows(w, h int) []string {
	rows := make([]string, h)
	for y := range rows {
		b := make([]byte, w)
		for x := range b {
			b[x] = '.'
		}
		rows[y] = string(b)
	}
	return rows
}

func (n *gridNav) place(t *testing.T, h collision.Handle, a *testActor) {
	t.Helper()
	require.True(t, n.grid.Occupy(n.area(a, a.loc), collision.ActorTile(h)))
	n.actors[h] = a
}

func (n *gridNav) area(a *testActor, at geom.Point) geom.Rect {
	return geom.Rect{X: at.X, Y: at.Y, W: a.size.W, H: a.size.H}
}

func (n *gridNav) FindBestPath(src, dst geom.Point) pathing.Path {
	return n.planner.FindIdealPath(src, dst)
}

func (n *gridNav) FindReroutedPath(h collision.Handle, src, dst geom.Point) pathing.Path {
	n.reroutes++
	a := n.actors[h]
	fp := n.grid.TileRect(n.area(a, src)).Size()
	self := collision.ActorTile(h)
	return n.finder.FindReroutedPath(pathing.OccupancyFunc(func(r geom.Rect) bool {
		return n.grid.CanOccupyTiles(r, self)
	}), pathing.Request{Source: src, Destination: dst, Footprint: fp})
}

func (n *gridNav) BeginMovement(h collision.Handle, dst geom.Point) bool {
	n.begins++
	return n.grid.Occupy(n.area(n.actors[h], dst), collision.ActorTile(h))
}

func (n *gridNav) AbortMovement(h collision.Handle, src, dst geom.Point) {
	n.aborts++
	a := n.actors[h]
	n.releaseOutside(h, n.grid.TileRect(n.area(a, dst)), n.grid.TileRect(n.area(a, src)))
}

func (n *gridNav) EndMovement(h collision.Handle, src, dst geom.Point) {
	n.ends++
	a := n.actors[h]
	to := n.grid.TileRect(n.area(a, dst))
	n.releaseOutside(h, n.grid.TileRect(n.area(a, src)), to)
	n.grid.OccupyTiles(to, collision.ActorTile(h))
}

func (n *gridNav) releaseOutside(h collision.Handle, release, keep geom.Rect) {
	for y := release.Y; y < release.MaxY(); y++ {
		for x := release.X; x < release.MaxX(); x++ {
			if !keep.Contains(geom.Point{X: x, Y: y}) {
				n.grid.ReleaseTiles(geom.Rect{X: x, Y: y, W: 1, H: 1}, collision.ActorTile(h))
			}
		}
	}
}

func (n *gridNav) TileOrigin(p geom.Point) geom.Point {
	return n.grid.PixelOf(n.grid.TileOf(p))
}

func (n *gridNav) WithinMap(area geom.Rect) bool {
	return n.grid.PixelBounds().ContainsRect(area)
}

type countingTask struct {
	calls int
}

func (c *countingTask) Complete() { c.calls++ }
