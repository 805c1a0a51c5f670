package pathing

import (
	"context"
	"fmt"
	"math"
	"time"

	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/threading/core"
	"gridwalk/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
)

// NoSuccessor marks a pair with no next hop: the same tile, or unreachable
const NoSuccessor int32 = -1

// Planner precomputes shortest static distances and next hops between every
// pair of tiles. The result is only valid for the graph it was computed on;
// occupancy by actors is ignored.
type Planner struct {
	pool    *core.WorkerPool
	monitor *monitoring.PerformanceMonitor
	log     *logrus.Entry

	width    int
	height   int
	tileSize int

	distance  *Matrix[float64]
	successor *Matrix[int32]
	ready     bool
}

// NewPlanner creates a planner. A nil pool runs the relaxation on the calling
// goroutine; a nil monitor disables timing.
func NewPlanner(pool *core.WorkerPool, monitor *monitoring.PerformanceMonitor) *Planner {
	return &Planner{
		pool:    pool,
		monitor: monitor,
		log:     logging.For("planner"),
	}
}

// Compute rebuilds both matrices from the graph. Movement tiles are tileSize
// pixels wide. On cancellation the planner is left not ready.
func (p *Planner) Compute(ctx context.Context, g Graph, tileSize int) error {
	start := time.Now()
	p.ready = false

	width, height := g.Dimensions()
	n := width * height
	p.width, p.height = width, height
	p.tileSize = mathutil.IntMax(tileSize, 1)

	dist := NewMatrix(n, n, math.Inf(1))
	next := NewMatrix(n, n, NoSuccessor)

	blocked := make([]bool, n)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			blocked[y*width+x] = g.Blocked(x, y)
		}
	}

	for a := 0; a < n; a++ {
		dist.Set(a, a, 0)
		if blocked[a] {
			continue
		}
		ax, ay := a%width, a/width
		for _, off := range neighbourOffsets {
			bx, by := ax+off.delta.X, ay+off.delta.Y
			if bx < 0 || by < 0 || bx >= width || by >= height {
				continue
			}
			b := by*width + bx
			if blocked[b] {
				continue
			}
			dist.Set(a, b, off.cost)
			next.Set(a, b, int32(b))
		}
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failed to compute route matrices: %w", err)
		}
		if blocked[i] {
			continue
		}
		// Row i cannot change while i is the intermediate, so every other
		// row can be relaxed independently.
		rowI := dist.Row(i)
		relax := func(a int) {
			rowA := dist.Row(a)
			da := rowA[i]
			if math.IsInf(da, 1) || a == i {
				return
			}
			nextA := next.Row(a)
			via := nextA[i]
			for b, db := range rowI {
				if d := da + db; d < rowA[b] {
					rowA[b] = d
					nextA[b] = via
				}
			}
		}

		if p.pool == nil {
			for a := 0; a < n; a++ {
				relax(a)
			}
			continue
		}
		if err := p.pool.ParallelForWithContext(ctx, 0, n, relax); err != nil {
			return fmt.Errorf("failed to compute route matrices: %w", err)
		}
	}

	p.distance = dist
	p.successor = next
	p.ready = true

	elapsed := time.Since(start)
	if p.monitor != nil {
		p.monitor.RecordPlan(elapsed, n)
	}
	p.log.WithFields(logrus.Fields{
		"width":   width,
		"height":  height,
		"tiles":   n,
		"elapsed": elapsed,
	}).Info("route matrices computed")
	return nil
}

// Ready reports whether Compute has completed for the current graph
func (p *Planner) Ready() bool {
	return p.ready
}

// Dimensions returns the graph size the matrices were built for
func (p *Planner) Dimensions() (int, int) {
	return p.width, p.height
}

// TileSize returns the movement tile size in pixels
func (p *Planner) TileSize() int {
	return p.tileSize
}

// TileIndex returns the matrix index of a tile, or -1 outside the graph
func (p *Planner) TileIndex(t geom.Point) int {
	if t.X < 0 || t.Y < 0 || t.X >= p.width || t.Y >= p.height {
		return -1
	}
	return t.Y*p.width + t.X
}

// TileAt is the inverse of TileIndex
func (p *Planner) TileAt(idx int) geom.Point {
	return geom.Point{X: idx % p.width, Y: idx / p.width}
}

// TileOf converts a pixel position to the tile containing it
func (p *Planner) TileOf(pixel geom.Point) geom.Point {
	return geom.Point{X: mathutil.FloorDiv(pixel.X, p.tileSize), Y: mathutil.FloorDiv(pixel.Y, p.tileSize)}
}

// PixelOf returns the top-left pixel of a tile
func (p *Planner) PixelOf(t geom.Point) geom.Point {
	return t.Scale(p.tileSize)
}

// Distance returns the static distance between two tiles, +Inf when there is
// no route or either tile is outside the graph.
func (p *Planner) Distance(from, to geom.Point) float64 {
	a, b := p.TileIndex(from), p.TileIndex(to)
	if !p.ready || a < 0 || b < 0 {
		return math.Inf(1)
	}
	return p.distance.At(a, b)
}

// Successor returns the tile to step onto next when travelling from one tile
// to another. The second result is false on arrival or when unreachable.
func (p *Planner) Successor(from, to geom.Point) (geom.Point, bool) {
	a, b := p.TileIndex(from), p.TileIndex(to)
	if !p.ready || a < 0 || b < 0 {
		return geom.Point{}, false
	}
	s := p.successor.At(a, b)
	if s == NoSuccessor {
		return geom.Point{}, false
	}
	return p.TileAt(int(s)), true
}

func (p *Planner) distanceIndex(a, b int) float64 {
	return p.distance.At(a, b)
}

// FindIdealPath follows the successor chain from the tile containing src to
// the tile containing dst. Waypoints are the top-left pixels of each tile
// after the source. The path is empty when the tiles match or no static
// route exists.
func (p *Planner) FindIdealPath(src, dst geom.Point) Path {
	start := time.Now()
	path := p.idealPath(src, dst)
	if p.monitor != nil {
		p.monitor.RecordSearch(monitoring.SearchIdeal, time.Since(start), 0, !path.Empty())
	}
	return path
}

func (p *Planner) idealPath(src, dst geom.Point) Path {
	if !p.ready {
		return Path{}
	}
	a := p.TileIndex(p.TileOf(src))
	b := p.TileIndex(p.TileOf(dst))
	if a < 0 || b < 0 || a == b || math.IsInf(p.distance.At(a, b), 1) {
		return Path{}
	}

	waypoints := make([]geom.Point, 0, 16)
	for cur := a; cur != b; {
		s := p.successor.At(cur, b)
		if s == NoSuccessor {
			return Path{}
		}
		cur = int(s)
		waypoints = append(waypoints, p.PixelOf(p.TileAt(cur)))
	}
	return Path{waypoints: waypoints}
}
