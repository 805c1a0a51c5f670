package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// PerformanceMonitor collects timing and counters for the navigation core.
// All recording methods are safe to call from any goroutine.
type PerformanceMonitor struct {
	// Frame metrics
	frameCount     atomic.Uint64
	frameTime      atomic.Uint64 // nanoseconds, last frame
	totalFrameTime atomic.Uint64 // nanoseconds, all frames

	// Planner metrics
	planCount atomic.Uint64
	planTime  atomic.Uint64 // nanoseconds, last compute
	planTiles atomic.Uint64

	// Search metrics
	idealSearches    atomic.Uint64
	reroutedSearches atomic.Uint64
	failedSearches   atomic.Uint64
	nodesExpanded    atomic.Uint64
	searchTime       atomic.Uint64 // nanoseconds, all searches
	peakSearchTime   atomic.Uint64

	// Movement metrics
	reroutes         atomic.Uint64
	reservationFails atomic.Uint64
	arrivals         atomic.Uint64
	activeOrders     atomic.Int32

	mutex     sync.RWMutex
	startTime time.Time

	searchAlertThreshold time.Duration
}

// NewPerformanceMonitor creates a monitor with default alert thresholds
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{
		startTime:            time.Now(),
		searchAlertThreshold: 8 * time.Millisecond,
	}
}

// FrameTimer measures one scheduler tick
type FrameTimer struct {
	monitor   *PerformanceMonitor
	startTime time.Time
}

// StartFrame begins frame timing
func (pm *PerformanceMonitor) StartFrame() *FrameTimer {
	return &FrameTimer{monitor: pm, startTime: time.Now()}
}

// EndFrame completes frame timing
func (ft *FrameTimer) EndFrame() {
	ft.monitor.RecordFrame(time.Since(ft.startTime))
}

// RecordFrame records the duration of one frame
func (pm *PerformanceMonitor) RecordFrame(d time.Duration) {
	ns := uint64(d.Nanoseconds())
	pm.frameTime.Store(ns)
	pm.totalFrameTime.Add(ns)
	pm.frameCount.Add(1)
}

// RecordPlan records one all-pairs precomputation over the given tile count
func (pm *PerformanceMonitor) RecordPlan(d time.Duration, tiles int) {
	pm.planCount.Add(1)
	pm.planTime.Store(uint64(d.Nanoseconds()))
	pm.planTiles.Store(uint64(tiles))
}

// SearchKind distinguishes the two path queries
type SearchKind int

const (
	SearchIdeal SearchKind = iota
	SearchRerouted
)

// RecordSearch records one path query
func (pm *PerformanceMonitor) RecordSearch(kind SearchKind, d time.Duration, expanded int, found bool) {
	switch kind {
	case SearchIdeal:
		pm.idealSearches.Add(1)
	case SearchRerouted:
		pm.reroutedSearches.Add(1)
	}
	if !found {
		pm.failedSearches.Add(1)
	}
	pm.nodesExpanded.Add(uint64(expanded))

	ns := uint64(d.Nanoseconds())
	pm.searchTime.Add(ns)
	for {
		peak := pm.peakSearchTime.Load()
		if ns <= peak || pm.peakSearchTime.CompareAndSwap(peak, ns) {
			break
		}
	}
}

// RecordReroute counts a reroute issued by a move order
func (pm *PerformanceMonitor) RecordReroute() {
	pm.reroutes.Add(1)
}

// RecordReservationFailure counts a BeginMovement that lost its tile
func (pm *PerformanceMonitor) RecordReservationFailure() {
	pm.reservationFails.Add(1)
}

// RecordArrival counts a move order that reached its destination
func (pm *PerformanceMonitor) RecordArrival() {
	pm.arrivals.Add(1)
}

// SetActiveOrders stores the number of orders alive after a tick
func (pm *PerformanceMonitor) SetActiveOrders(n int) {
	pm.activeOrders.Store(int32(n))
}

// Metrics is a point-in-time copy of the counters
type Metrics struct {
	Frames            uint64
	LastFrameTime     time.Duration
	AvgFrameTime      time.Duration
	FramesPerSecond   float64
	Plans             uint64
	LastPlanTime      time.Duration
	PlanTiles         uint64
	IdealSearches     uint64
	ReroutedSearches  uint64
	FailedSearches    uint64
	NodesExpanded     uint64
	AvgSearchTime     time.Duration
	PeakSearchTime    time.Duration
	Reroutes          uint64
	ReservationFails  uint64
	Arrivals          uint64
	ActiveOrders      int32
	MemoryUsageMB     uint64
	UptimeSeconds     float64
	GoroutinesRunning int
}

// Snapshot returns the current metrics
func (pm *PerformanceMonitor) Snapshot() Metrics {
	pm.mutex.RLock()
	start := pm.startTime
	pm.mutex.RUnlock()

	frames := pm.frameCount.Load()
	lastFrame := time.Duration(pm.frameTime.Load())
	var avgFrame time.Duration
	if frames > 0 {
		avgFrame = time.Duration(pm.totalFrameTime.Load() / frames)
	}
	fps := 0.0
	if lastFrame > 0 {
		fps = float64(time.Second) / float64(lastFrame)
	}

	searches := pm.idealSearches.Load() + pm.reroutedSearches.Load()
	var avgSearch time.Duration
	if searches > 0 {
		avgSearch = time.Duration(pm.searchTime.Load() / searches)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return Metrics{
		Frames:            frames,
		LastFrameTime:     lastFrame,
		AvgFrameTime:      avgFrame,
		FramesPerSecond:   fps,
		Plans:             pm.planCount.Load(),
		LastPlanTime:      time.Duration(pm.planTime.Load()),
		PlanTiles:         pm.planTiles.Load(),
		IdealSearches:     pm.idealSearches.Load(),
		ReroutedSearches:  pm.reroutedSearches.Load(),
		FailedSearches:    pm.failedSearches.Load(),
		NodesExpanded:     pm.nodesExpanded.Load(),
		AvgSearchTime:     avgSearch,
		PeakSearchTime:    time.Duration(pm.peakSearchTime.Load()),
		Reroutes:          pm.reroutes.Load(),
		ReservationFails:  pm.reservationFails.Load(),
		Arrivals:          pm.arrivals.Load(),
		ActiveOrders:      pm.activeOrders.Load(),
		MemoryUsageMB:     memStats.Alloc / 1024 / 1024,
		UptimeSeconds:     time.Since(start).Seconds(),
		GoroutinesRunning: runtime.NumGoroutine(),
	}
}

// GetDetailedStats returns the metrics as a flat map for printing
func (pm *PerformanceMonitor) GetDetailedStats() map[string]interface{} {
	m := pm.Snapshot()
	return map[string]interface{}{
		"uptime_seconds":       m.UptimeSeconds,
		"frame_count":          m.Frames,
		"avg_frame_time_ms":    float64(m.AvgFrameTime) / float64(time.Millisecond),
		"current_fps":          m.FramesPerSecond,
		"plans":                m.Plans,
		"last_plan_time_ms":    float64(m.LastPlanTime) / float64(time.Millisecond),
		"plan_tiles":           m.PlanTiles,
		"ideal_searches":       m.IdealSearches,
		"rerouted_searches":    m.ReroutedSearches,
		"failed_searches":      m.FailedSearches,
		"nodes_expanded":       m.NodesExpanded,
		"avg_search_time_us":   float64(m.AvgSearchTime) / float64(time.Microsecond),
		"peak_search_time_us":  float64(m.PeakSearchTime) / float64(time.Microsecond),
		"reroutes":             m.Reroutes,
		"reservation_failures": m.ReservationFails,
		"arrivals":             m.Arrivals,
		"active_orders":        m.ActiveOrders,
		"memory_alloc_mb":      m.MemoryUsageMB,
		"goroutines":           m.GoroutinesRunning,
	}
}

// PerformanceAlert represents a performance warning
type PerformanceAlert struct {
	Type      string
	Message   string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

// CheckPerformanceAlerts reports low frame rate and search latency spikes.
// A long search is a frame hitch because searches are never split across
// frames.
func (pm *PerformanceMonitor) CheckPerformanceAlerts() []PerformanceAlert {
	alerts := make([]PerformanceAlert, 0)
	now := time.Now()

	if frameTime := pm.frameTime.Load(); frameTime > 0 {
		fps := float64(time.Second) / float64(frameTime)
		if fps < 30 {
			alerts = append(alerts, PerformanceAlert{
				Type:      "low_fps",
				Message:   "Frame rate is below 30 FPS",
				Value:     fps,
				Threshold: 30,
				Timestamp: now,
			})
		}
	}

	pm.mutex.RLock()
	threshold := pm.searchAlertThreshold
	pm.mutex.RUnlock()

	if peak := time.Duration(pm.peakSearchTime.Load()); threshold > 0 && peak > threshold {
		alerts = append(alerts, PerformanceAlert{
			Type:      "search_spike",
			Message:   "A path search exceeded the frame budget",
			Value:     float64(peak) / float64(time.Millisecond),
			Threshold: float64(threshold) / float64(time.Millisecond),
			Timestamp: now,
		})
	}

	return alerts
}

// SetSearchAlertThreshold changes the search duration that raises an alert
func (pm *PerformanceMonitor) SetSearchAlertThreshold(d time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.searchAlertThreshold = d
}

// Reset clears all counters
func (pm *PerformanceMonitor) Reset() {
	pm.frameCount.Store(0)
	pm.frameTime.Store(0)
	pm.totalFrameTime.Store(0)
	pm.planCount.Store(0)
	pm.planTime.Store(0)
	pm.planTiles.Store(0)
	pm.idealSearches.Store(0)
	pm.reroutedSearches.Store(0)
	pm.failedSearches.Store(0)
	pm.nodesExpanded.Store(0)
	pm.searchTime.Store(0)
	pm.peakSearchTime.Store(0)
	pm.reroutes.Store(0)
	pm.reservationFails.Store(0)
	pm.arrivals.Store(0)
	pm.activeOrders.Store(0)

	pm.mutex.Lock()
	pm.startTime = time.Now()
	pm.mutex.Unlock()
}
