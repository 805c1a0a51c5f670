package movement

import (
	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/pathing"
)

// Animation is the actor animation a move order asks for
type Animation int

const (
	AnimIdle Animation = iota
	AnimWalking
)

func (a Animation) String() string {
	switch a {
	case AnimIdle:
		return "idle"
	case AnimWalking:
		return "walking"
	default:
		return "unknown"
	}
}

// Actor is anything a move order can drive. Location is the top-left pixel
// of the footprint, Size its extent in pixels and Speed is in pixels per
// second.
type Actor interface {
	Location() geom.Point
	SetLocation(p geom.Point)
	Direction() geom.Direction
	SetDirection(d geom.Direction)
	Speed() float64
	Size() geom.Size
	SetAnimation(a Animation)
}

// Task is notified once when an actor truly reaches its destination
type Task interface {
	Complete()
}

// TaskFunc adapts a plain function to Task
type TaskFunc func()

func (f TaskFunc) Complete() { f() }

// Navigator is the map-side half of movement: path queries plus the
// begin/abort/end tile reservation protocol. Positions are pixels.
type Navigator interface {
	FindBestPath(src, dst geom.Point) pathing.Path
	FindReroutedPath(h collision.Handle, src, dst geom.Point) pathing.Path

	// BeginMovement reserves the actor's footprint at dst. False means some
	// other occupant holds part of it and nothing was written.
	BeginMovement(h collision.Handle, dst geom.Point) bool
	// AbortMovement drops a reservation made by BeginMovement
	AbortMovement(h collision.Handle, src, dst geom.Point)
	// EndMovement releases the footprint at src and keeps the one at dst
	EndMovement(h collision.Handle, src, dst geom.Point)

	WithinMap(area geom.Rect) bool
	// TileOrigin returns the top-left pixel of the tile containing p
	TileOrigin(p geom.Point) geom.Point
}
