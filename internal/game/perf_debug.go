package game

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

const (
	perfLowFpsThreshold = 50.0
	perfLowFpsDuration  = 3 * time.Second
	perfLogInterval     = 3 * time.Second
)

func (gl *GameLoop) maybeLogPerfDrop() {
	g := gl.game
	if !g.perfDebugEnabled {
		return
	}

	fps := ebiten.ActualFPS()
	if fps >= perfLowFpsThreshold {
		g.perfLowFpsSince = time.Time{}
		g.perfLastPerfLog = time.Time{}
		return
	}

	now := time.Now()
	if g.perfLowFpsSince.IsZero() {
		g.perfLowFpsSince = now
		return
	}
	if now.Sub(g.perfLowFpsSince) < perfLowFpsDuration {
		return
	}
	if !g.perfLastPerfLog.IsZero() && now.Sub(g.perfLastPerfLog) < perfLogInterval {
		return
	}

	g.perfLastPerfLog = now
	gl.logPerfSnapshot(fps)
}

func (gl *GameLoop) logPerfSnapshot(fps float64) {
	g := gl.game
	fields := logrus.Fields{
		"fps":       fps,
		"tps":       ebiten.ActualTPS(),
		"update_ms": float64(gl.lastUpdateDuration.Microseconds()) / 1000.0,
		"draw_ms":   float64(gl.lastDrawDuration.Microseconds()) / 1000.0,
		"actors":    len(g.world.Handles()),
	}
	if g.monitor != nil {
		for k, v := range g.monitor.GetDetailedStats() {
			fields[k] = v
		}
		for _, alert := range g.monitor.CheckPerformanceAlerts() {
			g.log.WithFields(logrus.Fields{
				"alert":     alert.Type,
				"value":     alert.Value,
				"threshold": alert.Threshold,
			}).Warn(alert.Message)
		}
	}
	g.log.WithFields(fields).Warn("frame rate dropped")
}
