package app

import (
	"context"
	"math/rand"
	"time"

	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/movement"
	"gridwalk/internal/telemetry"
	"gridwalk/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
)

// destinationAttempts bounds the random picks for one new destination
const destinationAttempts = 16

// Report summarises a headless run
type Report struct {
	Ticks         uint64
	SimulatedTime time.Duration
	Arrivals      int
	Actors        int
	Metrics       monitoring.Metrics
}

// Simulator runs the world without a window. Every actor wanders between
// random walkable tiles: when one arrives it is sent somewhere else.
type Simulator struct {
	rt    *Runtime
	rng   *rand.Rand
	hub   *telemetry.Hub
	frame time.Duration

	tick     uint64
	arrivals int
	log      *logrus.Entry
}

// NewSimulator creates a simulator; the seed fixes the wander destinations
func NewSimulator(rt *Runtime, seed int64) *Simulator {
	return &Simulator{
		rt:    rt,
		rng:   rand.New(rand.NewSource(seed)),
		frame: rt.Config.GetFrameDuration(),
		log:   logging.For("simulator"),
	}
}

// SetHub publishes snapshots to hub every telemetry.broadcast_every ticks
func (s *Simulator) SetHub(hub *telemetry.Hub) {
	s.hub = hub
}

// Tick returns the number of ticks run so far
func (s *Simulator) Tick() uint64 {
	return s.tick
}

// Arrivals returns how many wander legs ended at their destination
func (s *Simulator) Arrivals() int {
	return s.arrivals
}

// Wander gives every idle actor a random destination
func (s *Simulator) Wander() {
	wm := s.rt.World
	for _, h := range wm.Handles() {
		if !wm.Scheduler.Moving(h) {
			s.sendSomewhere(h)
		}
	}
}

func (s *Simulator) sendSomewhere(h collision.Handle) bool {
	wm := s.rt.World
	md, err := wm.CurrentMap()
	if err != nil {
		return false
	}
	for i := 0; i < destinationAttempts; i++ {
		x, y := s.rng.Intn(md.Width), s.rng.Intn(md.Height)
		if !md.IsPassable(x, y) {
			continue
		}
		dest := wm.Nav.RenderTileToPixel(x, y)
		task := movement.TaskFunc(func() {
			s.arrivals++
			s.sendSomewhere(h)
		})
		if wm.Command(h, dest, task) {
			return true
		}
	}
	s.log.WithField("actor", h).Debug("no destination found")
	return false
}

// Step advances the world by one fixed frame
func (s *Simulator) Step() {
	s.rt.World.Update(s.frame)
	s.tick++

	every := uint64(s.rt.Config.Telemetry.BroadcastEvery)
	if s.hub != nil && every > 0 && s.tick%every == 0 {
		if err := s.hub.Broadcast(telemetry.Capture(s.tick, s.rt.World, s.rt.Monitor)); err != nil {
			s.log.WithError(err).Warn("telemetry broadcast failed")
		}
	}
}

// Run steps the world ticks times, or until ctx is done. In realtime mode
// each tick waits for the frame period so telemetry viewers see live motion.
func (s *Simulator) Run(ctx context.Context, ticks int, realtime bool) (Report, error) {
	s.Wander()

	var pace <-chan time.Time
	if realtime {
		ticker := time.NewTicker(s.frame)
		defer ticker.Stop()
		pace = ticker.C
	}

	start := time.Now()
	var err error
loop:
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break loop
			case <-pace:
			}
		} else if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
		s.Step()
		// Actors that found no destination try again
		if s.tick%uint64(s.rt.Config.GetTPS()) == 0 {
			s.Wander()
		}
	}

	report := s.Report()
	s.log.WithFields(logrus.Fields{
		"ticks":    report.Ticks,
		"arrivals": report.Arrivals,
		"reroutes": report.Metrics.Reroutes,
		"wall":     time.Since(start).Round(time.Millisecond),
	}).Info("simulation finished")
	return report, err
}

// Report returns the current totals
func (s *Simulator) Report() Report {
	return Report{
		Ticks:         s.tick,
		SimulatedTime: time.Duration(s.tick) * s.frame,
		Arrivals:      s.arrivals,
		Actors:        len(s.rt.World.Handles()),
		Metrics:       s.rt.Monitor.Snapshot(),
	}
}

// ActorPositions returns each actor's pixel location, keyed by handle
func (s *Simulator) ActorPositions() map[collision.Handle]geom.Point {
	out := make(map[collision.Handle]geom.Point)
	for _, h := range s.rt.World.Handles() {
		if w, ok := s.rt.World.Walker(h); ok {
			out[h] = w.Location()
		}
	}
	return out
}
