package movement

import (
	"math"
	"time"

	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/pathing"
	"gridwalk/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
)

// State is the phase of a move order
type State int

const (
	StateUninitialized State = iota
	StatePlanning
	StateFollowing
	StateRerouting
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePlanning:
		return "planning"
	case StateFollowing:
		return "following"
	case StateRerouting:
		return "rerouting"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Finished reports whether the order will not move its actor again
func (s State) Finished() bool {
	return s == StateCompleted || s == StateAborted
}

// MoveOrder drives one actor to a destination over many frames. It owns at
// most one outstanding tile reservation at a time, and Release is the only
// place that reservation is given back when the order is dropped early.
type MoveOrder struct {
	handle      collision.Handle
	actor       Actor
	nav         Navigator
	task        Task
	destination geom.Point
	monitor     *monitoring.PerformanceMonitor
	log         *logrus.Entry

	state           State
	path            pathing.Path
	pathInitialized bool
	movementBegun   bool
	lastWaypoint    geom.Point
	nextWaypoint    geom.Point
	distanceBudget  float64

	reroutes     int
	taskNotified bool
}

// NewMoveOrder creates an order for the actor registered under h. The task
// may be nil.
func NewMoveOrder(h collision.Handle, actor Actor, nav Navigator, destination geom.Point, task Task) *MoveOrder {
	return &MoveOrder{
		handle:      h,
		actor:       actor,
		nav:         nav,
		task:        task,
		destination: destination,
		log: logging.For("movement").WithFields(logrus.Fields{
			"actor": h,
			"dest":  destination,
		}),
	}
}

// SetMonitor attaches a performance monitor for reroute and arrival counts
func (o *MoveOrder) SetMonitor(m *monitoring.PerformanceMonitor) {
	o.monitor = m
}

func (o *MoveOrder) Handle() collision.Handle { return o.handle }
func (o *MoveOrder) Actor() Actor              { return o.actor }
func (o *MoveOrder) Destination() geom.Point   { return o.destination }
func (o *MoveOrder) State() State              { return o.state }
func (o *MoveOrder) Reroutes() int             { return o.reroutes }

// Remaining returns a copy of the waypoints still ahead
func (o *MoveOrder) Remaining() []geom.Point {
	return o.path.Waypoints()
}

// Perform advances the order by one frame. It returns true once the order
// has finished and should be released.
func (o *MoveOrder) Perform(elapsed time.Duration) bool {
	switch {
	case o.state.Finished():
		return true
	case !o.pathInitialized:
		return o.plan()
	default:
		return o.follow(elapsed)
	}
}

func (o *MoveOrder) plan() bool {
	o.state = StatePlanning
	loc := o.actor.Location()
	o.lastWaypoint = loc
	o.nextWaypoint = loc
	o.path = o.nav.FindBestPath(loc, o.destination)
	o.pathInitialized = true

	if o.path.Empty() {
		o.log.WithField("from", loc).Debug("no ideal path, order ends in place")
		o.complete()
		return true
	}
	o.state = StateFollowing
	return false
}

func (o *MoveOrder) follow(elapsed time.Duration) bool {
	o.distanceBudget += o.actor.Speed() * elapsed.Seconds()
	rerouted := false

	for {
		wp, ok := o.path.Front()
		if !ok {
			if o.actor.Location() == o.destination {
				o.complete()
				return true
			}
			if rerouted {
				break
			}
			o.reroute()
			rerouted = true
			continue
		}

		if !o.movementBegun {
			if !o.nav.BeginMovement(o.handle, wp) {
				if o.monitor != nil {
					o.monitor.RecordReservationFailure()
				}
				if rerouted {
					break
				}
				o.path.Clear()
				o.reroute()
				rerouted = true
				continue
			}
			o.movementBegun = true
			o.nextWaypoint = wp
			if dir, ok := geom.DirectionTo(o.actor.Location(), wp); ok {
				o.actor.SetDirection(dir)
			}
			o.actor.SetAnimation(AnimWalking)
		}

		if !o.advance(wp) {
			return false
		}

		o.nav.EndMovement(o.handle, o.lastWaypoint, wp)
		o.lastWaypoint = wp
		o.movementBegun = false
		o.path.Pop()
	}

	// Waiting for a reroute next frame; a stalled actor does not bank
	// distance.
	o.distanceBudget = 0
	o.actor.SetAnimation(AnimIdle)
	return false
}

// advance moves the actor one pixel at a time toward wp while the budget
// allows. A lateral pixel costs 1 and a diagonal pixel costs √2.
func (o *MoveOrder) advance(wp geom.Point) bool {
	loc := o.actor.Location()
	for loc != wp {
		step := geom.Point{X: mathutil.IntSign(wp.X - loc.X), Y: mathutil.IntSign(wp.Y - loc.Y)}
		cost := 1.0
		if step.X != 0 && step.Y != 0 {
			cost = math.Sqrt2
		}
		if o.distanceBudget < cost {
			break
		}
		o.distanceBudget -= cost
		loc = loc.Add(step)
	}
	o.actor.SetLocation(loc)
	return loc == wp
}

func (o *MoveOrder) reroute() {
	o.state = StateRerouting
	loc := o.actor.Location()
	o.path = o.nav.FindReroutedPath(o.handle, loc, o.destination)
	o.reroutes++
	if o.monitor != nil {
		o.monitor.RecordReroute()
	}
	o.log.WithFields(logrus.Fields{
		"from":      loc,
		"waypoints": o.path.Len(),
		"reroutes":  o.reroutes,
	}).Debug("rerouted")
	o.state = StateFollowing
}

func (o *MoveOrder) complete() {
	o.state = StateCompleted
	o.distanceBudget = 0
	o.actor.SetAnimation(AnimIdle)

	if o.actor.Location() != o.destination {
		return
	}
	if o.monitor != nil {
		o.monitor.RecordArrival()
	}
	if o.task != nil && !o.taskNotified {
		o.taskNotified = true
		o.task.Complete()
	}
}

// Release ends the order. An in-flight step is undone: the reservation is
// aborted and the actor snaps back to the last waypoint it reached. Safe to
// call more than once.
func (o *MoveOrder) Release() {
	if o.movementBegun {
		o.nav.AbortMovement(o.handle, o.lastWaypoint, o.nextWaypoint)
		o.actor.SetLocation(o.lastWaypoint)
		o.movementBegun = false
		o.log.WithField("at", o.lastWaypoint).Debug("in-flight step aborted")
	}
	if o.state != StateCompleted {
		o.state = StateAborted
	}
	o.path.Clear()
	o.distanceBudget = 0
	o.actor.SetAnimation(AnimIdle)
}
