package telemetry

import (
	"fmt"

	"gridwalk/internal/geom"
	"gridwalk/internal/threading/monitoring"
	"gridwalk/internal/world"

	"github.com/vmihailenco/msgpack/v5"
)

// Point is a pixel position on the wire
type Point struct {
	X int `msgpack:"x"`
	Y int `msgpack:"y"`
}

// ActorState is one actor as seen by debug viewers
type ActorState struct {
	Handle    uint32  `msgpack:"handle"`
	Key       string  `msgpack:"key"`
	Position  Point   `msgpack:"pos"`
	Width     int     `msgpack:"w"`
	Height    int     `msgpack:"h"`
	Direction string  `msgpack:"dir"`
	Order     string  `msgpack:"order,omitempty"` // move order state, empty when idle
	Path      []Point `msgpack:"path,omitempty"`
}

// MetricsState is the subset of monitor counters streamed every frame
type MetricsState struct {
	FPS              float64 `msgpack:"fps"`
	ActiveOrders     int32   `msgpack:"active_orders"`
	IdealSearches    uint64  `msgpack:"ideal_searches"`
	ReroutedSearches uint64  `msgpack:"rerouted_searches"`
	FailedSearches   uint64  `msgpack:"failed_searches"`
	Reroutes         uint64  `msgpack:"reroutes"`
	Arrivals         uint64  `msgpack:"arrivals"`
	AvgSearchMicros  int64   `msgpack:"avg_search_us"`
}

// FrameSnapshot is the message broadcast to telemetry clients
type FrameSnapshot struct {
	Tick    uint64       `msgpack:"tick"`
	Map     string       `msgpack:"map"`
	Actors  []ActorState `msgpack:"actors"`
	Metrics MetricsState `msgpack:"metrics"`
}

func toPoint(p geom.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

// Capture copies the world's actors and the monitor's counters into a
// snapshot. monitor may be nil.
func Capture(tick uint64, wm *world.WorldManager, monitor *monitoring.PerformanceMonitor) *FrameSnapshot {
	snap := &FrameSnapshot{Tick: tick, Map: wm.CurrentMapKey}

	for _, h := range wm.Handles() {
		w, ok := wm.Walker(h)
		if !ok {
			continue
		}
		loc := w.Location()
		size := w.Size()
		state := ActorState{
			Handle:    uint32(h),
			Key:       w.Key,
			Position:  toPoint(loc),
			Width:     size.W,
			Height:    size.H,
			Direction: w.Direction().String(),
		}
		if order, ok := wm.Scheduler.Order(h); ok {
			state.Order = order.State().String()
			for _, wp := range order.Remaining() {
				state.Path = append(state.Path, toPoint(wp))
			}
		}
		snap.Actors = append(snap.Actors, state)
	}

	if monitor != nil {
		m := monitor.Snapshot()
		snap.Metrics = MetricsState{
			FPS:              m.FramesPerSecond,
			ActiveOrders:     m.ActiveOrders,
			IdealSearches:    m.IdealSearches,
			ReroutedSearches: m.ReroutedSearches,
			FailedSearches:   m.FailedSearches,
			Reroutes:         m.Reroutes,
			Arrivals:         m.Arrivals,
			AvgSearchMicros:  m.AvgSearchTime.Microseconds(),
		}
	}
	return snap
}

// Encode serializes a snapshot with msgpack
func Encode(snap *FrameSnapshot) ([]byte, error) {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot produced by Encode
func Decode(data []byte) (*FrameSnapshot, error) {
	var snap FrameSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
