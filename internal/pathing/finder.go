package pathing

import (
	"math"
	"time"

	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
)

// Occupancy answers whether a footprint, given in tiles, may be entered right
// now. Implementations decide which occupants the mover tolerates (usually
// its own cells).
type Occupancy interface {
	FootprintFree(tiles geom.Rect) bool
}

// OccupancyFunc adapts a function to Occupancy
type OccupancyFunc func(tiles geom.Rect) bool

func (f OccupancyFunc) FootprintFree(tiles geom.Rect) bool { return f(tiles) }

// Request describes one rerouting query. Source and Destination are pixel
// positions; Footprint is the mover's size in tiles.
type Request struct {
	Source      geom.Point
	Destination geom.Point
	Footprint   geom.Size
}

// SearchStats describes the work done by one search
type SearchStats struct {
	Expanded int
	Pushed   int
	Found    bool
	Elapsed  time.Duration
}

// Finder runs A* over the static graph while consulting live occupancy. The
// planner's distance matrix is the heuristic.
type Finder struct {
	planner *Planner
	monitor *monitoring.PerformanceMonitor
	log     *logrus.Entry
}

func NewFinder(planner *Planner, monitor *monitoring.PerformanceMonitor) *Finder {
	return &Finder{
		planner: planner,
		monitor: monitor,
		log:     logging.For("finder"),
	}
}

// FindReroutedPath returns a path that avoids currently occupied tiles, or
// an empty path when none exists.
func (f *Finder) FindReroutedPath(occ Occupancy, req Request) Path {
	path, _ := f.Search(occ, req)
	return path
}

// searchNode is stored by value in the per-call node slice; parent is an
// index into that slice.
type searchNode struct {
	tile   int32
	parent int32
	g      float64
	f      float64
}

// Search is FindReroutedPath with statistics
func (f *Finder) Search(occ Occupancy, req Request) (Path, SearchStats) {
	start := time.Now()
	path, stats := f.search(occ, req)
	stats.Elapsed = time.Since(start)
	stats.Found = !path.Empty()

	if f.monitor != nil {
		f.monitor.RecordSearch(monitoring.SearchRerouted, stats.Elapsed, stats.Expanded, stats.Found)
	}
	if !stats.Found {
		f.log.WithFields(logrus.Fields{
			"src":      req.Source,
			"dst":      req.Destination,
			"expanded": stats.Expanded,
		}).Debug("no rerouted path")
	}
	return path, stats
}

func (f *Finder) search(occ Occupancy, req Request) (Path, SearchStats) {
	var stats SearchStats
	p := f.planner
	if p == nil || !p.Ready() {
		return Path{}, stats
	}

	footprint := req.Footprint
	if footprint.W <= 0 {
		footprint.W = 1
	}
	if footprint.H <= 0 {
		footprint.H = 1
	}

	src := p.TileIndex(p.TileOf(req.Source))
	dst := p.TileIndex(p.TileOf(req.Destination))
	if src < 0 || dst < 0 || src == dst {
		return Path{}, stats
	}

	h0 := p.distanceIndex(src, dst)
	if math.IsInf(h0, 1) {
		return Path{}, stats
	}

	width, height := p.Dimensions()
	n := width * height
	bestG := make([]float64, n)
	for i := range bestG {
		bestG[i] = math.Inf(1)
	}
	closed := make([]bool, n)

	nodes := make([]searchNode, 0, 64)
	open := openSet{nodes: &nodes}

	nodes = append(nodes, searchNode{tile: int32(src), parent: -1, g: 0, f: h0})
	bestG[src] = 0
	open.push(0)
	stats.Pushed++

	for open.len() > 0 {
		ci := open.pop()
		cur := nodes[ci]
		if closed[cur.tile] || cur.g > bestG[cur.tile] {
			continue
		}
		if int(cur.tile) == dst {
			return f.reconstruct(nodes, ci), stats
		}
		closed[cur.tile] = true
		stats.Expanded++

		cx, cy := int(cur.tile)%width, int(cur.tile)/width
		for _, off := range neighbourOffsets {
			nx, ny := cx+off.delta.X, cy+off.delta.Y
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			nt := ny*width + nx
			if closed[nt] {
				continue
			}
			// Static obstacles and tiles cut off from the destination have
			// an infinite heuristic and never enter the open set.
			h := p.distanceIndex(nt, dst)
			if math.IsInf(h, 1) {
				continue
			}
			g := cur.g + off.cost
			if g >= bestG[nt] {
				continue
			}
			if !occ.FootprintFree(geom.Rect{X: nx, Y: ny, W: footprint.W, H: footprint.H}) {
				continue
			}
			bestG[nt] = g
			nodes = append(nodes, searchNode{tile: int32(nt), parent: ci, g: g, f: g + h})
			open.push(int32(len(nodes) - 1))
			stats.Pushed++
		}
	}
	return Path{}, stats
}

func (f *Finder) reconstruct(nodes []searchNode, end int32) Path {
	count := 0
	for i := end; nodes[i].parent >= 0; i = nodes[i].parent {
		count++
	}
	waypoints := make([]geom.Point, count)
	for i := end; nodes[i].parent >= 0; i = nodes[i].parent {
		count--
		waypoints[count] = f.planner.PixelOf(f.planner.TileAt(int(nodes[i].tile)))
	}
	return Path{waypoints: waypoints}
}
