package movement

import (
	"time"

	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
)

// Scheduler owns the live move orders and advances each of them once per
// frame, in the order they were commanded.
type Scheduler struct {
	nav           Navigator
	monitor       *monitoring.PerformanceMonitor
	maxFrameDelta time.Duration
	log           *logrus.Entry

	orders   []*MoveOrder
	byHandle map[collision.Handle]*MoveOrder
}

// NewScheduler creates a scheduler. maxFrameDelta caps the elapsed time fed
// to orders in one tick; zero disables the cap.
func NewScheduler(nav Navigator, monitor *monitoring.PerformanceMonitor, maxFrameDelta time.Duration) *Scheduler {
	return &Scheduler{
		nav:           nav,
		monitor:       monitor,
		maxFrameDelta: maxFrameDelta,
		log:           logging.For("scheduler"),
		byHandle:      make(map[collision.Handle]*MoveOrder),
	}
}

// Command orders the actor to walk to dest (top-left pixel of the footprint).
// Destinations whose footprint leaves the map are refused; others are snapped
// to their tile's top-left pixel, since waypoints only ever land there. A
// previous order for the same actor is released first.
func (s *Scheduler) Command(h collision.Handle, actor Actor, dest geom.Point, task Task) bool {
	size := actor.Size()
	area := geom.Rect{X: dest.X, Y: dest.Y, W: size.W, H: size.H}
	if !s.nav.WithinMap(area) {
		s.log.WithFields(logrus.Fields{
			"actor": h,
			"dest":  dest,
			"size":  size,
		}).Warn("move refused: destination outside map")
		return false
	}
	if snapped := s.nav.TileOrigin(dest); snapped != dest {
		s.log.WithFields(logrus.Fields{
			"actor":   h,
			"dest":    dest,
			"snapped": snapped,
		}).Debug("destination snapped to tile")
		dest = snapped
	}

	if prev, ok := s.byHandle[h]; ok {
		s.remove(prev)
		prev.Release()
	}

	order := NewMoveOrder(h, actor, s.nav, dest, task)
	order.SetMonitor(s.monitor)
	s.orders = append(s.orders, order)
	s.byHandle[h] = order
	return true
}

// Tick performs every order commanded before the tick started. Orders that
// finish are released and dropped. Orders commanded from inside a task
// callback start on the next tick.
func (s *Scheduler) Tick(elapsed time.Duration) {
	if s.maxFrameDelta > 0 && elapsed > s.maxFrameDelta {
		elapsed = s.maxFrameDelta
	}
	var timer *monitoring.FrameTimer
	if s.monitor != nil {
		timer = s.monitor.StartFrame()
	}

	snapshot := make([]*MoveOrder, len(s.orders))
	copy(snapshot, s.orders)
	for _, order := range snapshot {
		if s.byHandle[order.handle] != order {
			continue
		}
		if order.Perform(elapsed) {
			s.remove(order)
			order.Release()
		}
	}

	if s.monitor != nil {
		s.monitor.SetActiveOrders(len(s.orders))
		timer.EndFrame()
	}
}

// Cancel releases the actor's order, if any
func (s *Scheduler) Cancel(h collision.Handle) bool {
	order, ok := s.byHandle[h]
	if !ok {
		return false
	}
	s.remove(order)
	order.Release()
	return true
}

// CancelAll releases every order
func (s *Scheduler) CancelAll() {
	orders := s.orders
	s.orders = nil
	s.byHandle = make(map[collision.Handle]*MoveOrder)
	for _, order := range orders {
		order.Release()
	}
}

// Moving reports whether the actor has a live order
func (s *Scheduler) Moving(h collision.Handle) bool {
	_, ok := s.byHandle[h]
	return ok
}

// Order returns the actor's live order
func (s *Scheduler) Order(h collision.Handle) (*MoveOrder, bool) {
	order, ok := s.byHandle[h]
	return order, ok
}

// Active returns the number of live orders
func (s *Scheduler) Active() int {
	return len(s.orders)
}

// Orders returns the live orders in tick order
func (s *Scheduler) Orders() []*MoveOrder {
	out := make([]*MoveOrder, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Scheduler) remove(order *MoveOrder) {
	if s.byHandle[order.handle] == order {
		delete(s.byHandle, order.handle)
	}
	kept := s.orders[:0]
	for _, o := range s.orders {
		if o != order {
			kept = append(kept, o)
		}
	}
	for i := len(kept); i < len(s.orders); i++ {
		s.orders[i] = nil
	}
	s.orders = kept
}
