package pathing

import (
	"context"
	"math"
	"testing"

	"gridwalk/internal/geom"
	"gridwalk/internal/threading/core"
	"gridwalk/internal/threading/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTile = 16

type testGraph struct {
	width   int
	height  int
	blocked map[geom.Point]bool
}

func (g *testGraph) Dimensions() (int, int) { return g.width, g.height }
func (g *testGraph) Blocked(x, y int) bool  { return g.blocked[geom.Point{X: x, Y: y}] }

func openGraph(w, h int) *testGraph {
	return &testGraph{width: w, height: h, blocked: map[geom.Point]bool{}}
}

// parseGraph reads rows where '#' is a static obstacle
func parseGraph(rows ...string) *testGraph {
	g := openGraph(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				g.blocked[geom.Point{X: x, Y: y}] = true
			}
		}
	}
	return g
}

func px(x, y int) geom.Point {
	return geom.Point{X: x * testTile, Y: y * testTile}
}

func computedPlanner(t *testing.T, g Graph) *Planner {
	t.Helper()
	p := NewPlanner(nil, nil)
	require.NoError(t, p.Compute(context.Background(), g, testTile))
	require.True(t, p.Ready())
	return p
}

// freeExcept is an occupancy where the listed tiles are taken and anything
// outside the graph is rejected.
func freeExcept(g *testGraph, taken ...geom.Point) Occupancy {
	set := make(map[geom.Point]bool, len(taken))
	for _, t := range taken {
		set[t] = true
	}
	bounds := geom.Rect{W: g.width, H: g.height}
	return OccupancyFunc(func(r geom.Rect) bool {
		if !bounds.ContainsRect(r) {
			return false
		}
		for y := r.Y; y < r.MaxY(); y++ {
			for x := r.X; x < r.MaxX(); x++ {
				if set[geom.Point{X: x, Y: y}] {
					return false
				}
			}
		}
		return true
	})
}

func TestMatrixRowIsAView(t *testing.T) {
	m := NewMatrix(3, 4, int32(7))
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 4, m.Cols())

	row := m.Row(1)
	row[2] = 11
	assert.Equal(t, int32(11), m.At(1, 2))
	assert.Equal(t, int32(7), m.At(2, 2))

	m.Set(2, 3, 5)
	assert.Equal(t, []int32{7, 7, 7, 5}, m.Row(2))
}

func TestPathConsumption(t *testing.T) {
	p := NewPath(px(1, 0), px(2, 1))

	front, ok := p.Front()
	require.True(t, ok)
	assert.Equal(t, px(1, 0), front)
	assert.InDelta(t, 1+math.Sqrt2, p.Cost(px(0, 0), testTile), 1e-9)

	p.Pop()
	p.Pop()
	p.Pop()
	assert.True(t, p.Empty())
	_, ok = p.Front()
	assert.False(t, ok)
}

func TestPathReadsOnReturnedValues(t *testing.T) {
	assert.True(t, NewPath().Empty())
	assert.Equal(t, 2, NewPath(px(1, 0), px(2, 0)).Len())
	assert.Equal(t, []geom.Point{px(1, 0)}, NewPath(px(1, 0)).Waypoints())
	last, ok := NewPath(px(1, 0), px(3, 0)).Last()
	require.True(t, ok)
	assert.Equal(t, px(3, 0), last)
	assert.InDelta(t, 2.0, NewPath(px(1, 0), px(2, 0)).Cost(px(0, 0), testTile), 1e-9)
}

func TestDiagonalScenario(t *testing.T) {
	p := computedPlanner(t, openGraph(10, 10))

	path := p.FindIdealPath(px(0, 0), px(5, 5))

	require.Equal(t, 5, path.Len())
	assert.Equal(t, []geom.Point{px(1, 1), px(2, 2), px(3, 3), px(4, 4), px(5, 5)}, path.Waypoints())
	assert.InDelta(t, 5*math.Sqrt2, path.Cost(px(0, 0), testTile), 1e-9)
	assert.InDelta(t, 5*math.Sqrt2, p.Distance(geom.Point{}, geom.Point{X: 5, Y: 5}), 1e-9)
}

func TestIdealPathCostMatchesDistance(t *testing.T) {
	g := parseGraph(
		".....",
		".###.",
		".#...",
		".#.#.",
		"...#.",
	)
	p := computedPlanner(t, g)

	for ay := 0; ay < g.height; ay++ {
		for ax := 0; ax < g.width; ax++ {
			for by := 0; by < g.height; by++ {
				for bx := 0; bx < g.width; bx++ {
					a, b := geom.Point{X: ax, Y: ay}, geom.Point{X: bx, Y: by}
					d := p.Distance(a, b)
					_, hasNext := p.Successor(a, b)
					assert.Equal(t, a != b && !math.IsInf(d, 1), hasNext, "successor agreement %v -> %v", a, b)

					if a == b || math.IsInf(d, 1) {
						continue
					}
					path := p.FindIdealPath(px(ax, ay), px(bx, by))
					require.False(t, path.Empty(), "%v -> %v", a, b)
					assert.InDelta(t, d, path.Cost(px(ax, ay), testTile), 1e-9, "%v -> %v", a, b)
					last, _ := path.Last()
					assert.Equal(t, px(bx, by), last)
				}
			}
		}
	}
}

func TestObstaclesHaveNoEdges(t *testing.T) {
	p := computedPlanner(t, parseGraph("..#.."))

	assert.True(t, math.IsInf(p.Distance(geom.Point{X: 0}, geom.Point{X: 4}), 1))
	assert.True(t, math.IsInf(p.Distance(geom.Point{X: 1}, geom.Point{X: 2}), 1))
	assert.Equal(t, 0.0, p.Distance(geom.Point{X: 2}, geom.Point{X: 2}))
	assert.True(t, p.FindIdealPath(px(0, 0), px(4, 0)).Empty())
}

func TestDiagonalCornerCuttingAllowed(t *testing.T) {
	p := computedPlanner(t, parseGraph(
		"#.",
		".#",
	))

	assert.InDelta(t, math.Sqrt2, p.Distance(geom.Point{X: 0, Y: 1}, geom.Point{X: 1, Y: 0}), 1e-9)
}

func TestSameTileGivesEmptyPath(t *testing.T) {
	p := computedPlanner(t, openGraph(4, 4))

	assert.True(t, p.FindIdealPath(px(1, 1), geom.Point{X: 1*testTile + 5, Y: 1*testTile + 9}).Empty())
	assert.True(t, p.FindIdealPath(px(1, 1), px(9, 9)).Empty(), "destination outside the graph")
}

func TestParallelComputeMatchesSequential(t *testing.T) {
	g := parseGraph(
		"........",
		".####...",
		"...#..#.",
		".#.#.##.",
		".#...#..",
		".####...",
	)
	seq := computedPlanner(t, g)

	pool := core.NewWorkerPool(3)
	pool.Start()
	defer pool.Stop()
	par := NewPlanner(pool, nil)
	require.NoError(t, par.Compute(context.Background(), g, testTile))

	n := g.width * g.height
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			require.Equal(t, seq.distance.At(a, b), par.distance.At(a, b))
			require.Equal(t, seq.successor.At(a, b), par.successor.At(a, b))
		}
	}
}

func TestComputeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPlanner(nil, nil)
	err := p.Compute(ctx, openGraph(4, 4), testTile)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, p.Ready())
	assert.True(t, p.FindIdealPath(px(0, 0), px(3, 3)).Empty())
}

func TestReroutedMatchesIdealOnOpenGrid(t *testing.T) {
	g := openGraph(9, 7)
	p := computedPlanner(t, g)
	f := NewFinder(p, nil)
	occ := freeExcept(g)

	pairs := [][2]geom.Point{
		{{X: 0, Y: 0}, {X: 8, Y: 6}},
		{{X: 0, Y: 3}, {X: 8, Y: 3}},
		{{X: 4, Y: 6}, {X: 1, Y: 0}},
		{{X: 7, Y: 1}, {X: 2, Y: 5}},
	}
	for _, pair := range pairs {
		src, dst := pixelOf(pair[0]), pixelOf(pair[1])
		ideal := p.FindIdealPath(src, dst)
		rerouted := f.FindReroutedPath(occ, Request{Source: src, Destination: dst, Footprint: geom.Size{W: 1, H: 1}})

		assert.Equal(t, ideal.Len(), rerouted.Len(), "%v", pair)
		assert.InDelta(t, ideal.Cost(src, testTile), rerouted.Cost(src, testTile), 1e-9, "%v", pair)
	}
}

func pixelOf(t geom.Point) geom.Point { return t.Scale(testTile) }

func TestRerouteAvoidsOccupiedTile(t *testing.T) {
	g := openGraph(5, 5)
	p := computedPlanner(t, g)
	f := NewFinder(p, nil)

	blocker := geom.Point{X: 1, Y: 2}
	path := f.FindReroutedPath(freeExcept(g, blocker), Request{
		Source:      px(0, 2),
		Destination: px(4, 2),
		Footprint:   geom.Size{W: 1, H: 1},
	})

	require.False(t, path.Empty())
	assert.NotContains(t, path.Waypoints(), pixelOf(blocker))
	assert.InDelta(t, 2+2*math.Sqrt2, path.Cost(px(0, 2), testTile), 1e-9)
	last, _ := path.Last()
	assert.Equal(t, px(4, 2), last)
}

func TestRerouteChecksWholeFootprint(t *testing.T) {
	g := openGraph(6, 6)
	p := computedPlanner(t, g)
	f := NewFinder(p, nil)

	blocker := geom.Point{X: 3, Y: 1}
	path := f.FindReroutedPath(freeExcept(g, blocker), Request{
		Source:      px(0, 0),
		Destination: px(4, 0),
		Footprint:   geom.Size{W: 2, H: 2},
	})

	require.False(t, path.Empty())
	for _, wp := range path.Waypoints() {
		root := geom.Point{X: wp.X / testTile, Y: wp.Y / testTile}
		fp := geom.Rect{X: root.X, Y: root.Y, W: 2, H: 2}
		assert.False(t, fp.Contains(blocker), "footprint at %v overlaps the blocker", root)
		assert.True(t, geom.Rect{W: 6, H: 6}.ContainsRect(fp))
	}
	last, _ := path.Last()
	assert.Equal(t, px(4, 0), last)
}

func TestRerouteFailsWhenDestinationTaken(t *testing.T) {
	g := openGraph(5, 5)
	p := computedPlanner(t, g)
	monitor := monitoring.NewPerformanceMonitor()
	f := NewFinder(p, monitor)

	path, stats := f.Search(freeExcept(g, geom.Point{X: 4, Y: 4}), Request{
		Source:      px(0, 0),
		Destination: px(4, 4),
		Footprint:   geom.Size{W: 1, H: 1},
	})

	assert.True(t, path.Empty())
	assert.False(t, stats.Found)
	assert.Equal(t, 24, stats.Expanded, "every reachable tile except the destination is expanded")

	m := monitor.Snapshot()
	assert.Equal(t, uint64(1), m.ReroutedSearches)
	assert.Equal(t, uint64(1), m.FailedSearches)
}

func TestRerouteNeverEntersStaticObstacles(t *testing.T) {
	g := parseGraph(
		".....",
		"####.",
		".....",
	)
	p := computedPlanner(t, g)
	f := NewFinder(p, nil)

	path := f.FindReroutedPath(OccupancyFunc(func(geom.Rect) bool { return true }), Request{
		Source:      px(0, 0),
		Destination: px(0, 2),
		Footprint:   geom.Size{W: 1, H: 1},
	})

	require.False(t, path.Empty())
	for _, wp := range path.Waypoints() {
		assert.False(t, g.Blocked(wp.X/testTile, wp.Y/testTile), "waypoint %v is an obstacle", wp)
	}
	assert.InDelta(t, p.Distance(geom.Point{}, geom.Point{Y: 2}), path.Cost(px(0, 0), testTile), 1e-9)
}

func TestOpenSetOrdersByFThenLowerG(t *testing.T) {
	nodes := []searchNode{
		{tile: 0, f: 5, g: 3},
		{tile: 1, f: 4, g: 4},
		{tile: 2, f: 5, g: 1},
		{tile: 3, f: 6, g: 0},
	}
	open := openSet{nodes: &nodes}
	for i := range nodes {
		open.push(int32(i))
	}

	var order []int32
	for open.len() > 0 {
		order = append(order, nodes[open.pop()].tile)
	}
	assert.Equal(t, []int32{1, 2, 0, 3}, order)
}
