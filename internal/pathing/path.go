package pathing

import (
	"math"

	"gridwalk/internal/geom"
)

// Path is an ordered list of pixel waypoints consumed from the front. Once a
// waypoint is popped it is gone; a path cannot be rewound.
type Path struct {
	waypoints []geom.Point
}

// NewPath builds a path from waypoints in travel order
func NewPath(waypoints ...geom.Point) Path {
	if len(waypoints) == 0 {
		return Path{}
	}
	wp := make([]geom.Point, len(waypoints))
	copy(wp, waypoints)
	return Path{waypoints: wp}
}

// Front returns the next waypoint to reach
func (p *Path) Front() (geom.Point, bool) {
	if len(p.waypoints) == 0 {
		return geom.Point{}, false
	}
	return p.waypoints[0], true
}

// Pop drops the front waypoint
func (p *Path) Pop() {
	if len(p.waypoints) > 0 {
		p.waypoints = p.waypoints[1:]
	}
}

func (p Path) Empty() bool { return len(p.waypoints) == 0 }
func (p Path) Len() int    { return len(p.waypoints) }

// Clear discards every remaining waypoint
func (p *Path) Clear() {
	p.waypoints = nil
}

// Waypoints returns a copy of the remaining waypoints
func (p Path) Waypoints() []geom.Point {
	out := make([]geom.Point, len(p.waypoints))
	copy(out, p.waypoints)
	return out
}

// Last returns the final waypoint
func (p Path) Last() (geom.Point, bool) {
	if len(p.waypoints) == 0 {
		return geom.Point{}, false
	}
	return p.waypoints[len(p.waypoints)-1], true
}

// Cost sums the step costs from start through every remaining waypoint, in
// tile units.
func (p Path) Cost(start geom.Point, tileSize int) float64 {
	if tileSize <= 0 {
		tileSize = 1
	}
	total := 0.0
	prev := start
	for _, wp := range p.waypoints {
		d := wp.Sub(prev)
		total += math.Hypot(float64(d.X), float64(d.Y)) / float64(tileSize)
		prev = wp
	}
	return total
}
