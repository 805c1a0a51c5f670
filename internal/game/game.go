package game

import (
	"time"

	"gridwalk/internal/collision"
	"gridwalk/internal/config"
	"gridwalk/internal/logging"
	"gridwalk/internal/telemetry"
	"gridwalk/internal/threading/monitoring"
	"gridwalk/internal/world"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

const (
	mapPadding   = 16
	sidebarWidth = 280
	statusTTL    = 3 * time.Second
)

// Game is the interactive viewer: it draws the active map with its actors,
// reservations and paths, and turns mouse clicks into move orders.
type Game struct {
	config  *config.Config
	world   *world.WorldManager
	monitor *monitoring.PerformanceMonitor
	hub     *telemetry.Hub
	loop    *GameLoop

	selected  collision.Handle
	showGrid  bool
	showPaths bool
	showHelp  bool

	tick       uint64
	lastUpdate time.Time

	mouseLeftClicks  []queuedClick
	mouseRightClicks []queuedClick

	status      string
	statusUntil time.Time

	perfDebugEnabled bool
	perfLowFpsSince  time.Time
	perfLastPerfLog  time.Time

	log *logrus.Entry
}

// NewGame creates the viewer over an activated world. hub may be nil.
func NewGame(cfg *config.Config, wm *world.WorldManager, monitor *monitoring.PerformanceMonitor, hub *telemetry.Hub) *Game {
	g := &Game{
		config:    cfg,
		world:     wm,
		monitor:   monitor,
		hub:       hub,
		showGrid:  cfg.Display.ShowGrid,
		showPaths: cfg.Display.ShowPaths,
		showHelp:  true,
		log:       logging.For("viewer"),
	}
	if handles := wm.Handles(); len(handles) > 0 {
		g.selected = handles[0]
	}
	g.loop = NewGameLoop(g)
	return g
}

// Update implements ebiten.Game
func (g *Game) Update() error {
	return g.loop.Update()
}

// Draw implements ebiten.Game
func (g *Game) Draw(screen *ebiten.Image) {
	g.loop.Draw(screen)
}

// Layout implements ebiten.Game
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.config.GetScreenWidth(), g.config.GetScreenHeight()
}

// setStatus shows a short message in the sidebar
func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusUntil = time.Now().Add(statusTTL)
}

func (g *Game) currentStatus(now time.Time) string {
	if now.After(g.statusUntil) {
		return ""
	}
	return g.status
}

// mapOrigin is the screen position of map pixel (0,0)
func (g *Game) mapOrigin() (int, int) {
	return mapPadding, mapPadding
}

// sidebarX is where the sidebar starts, right of the map
func (g *Game) sidebarX() int {
	x, _ := g.mapOrigin()
	if md, err := g.world.CurrentMap(); err == nil {
		x += md.Width * g.config.GetRenderTileSize()
	}
	return x + mapPadding
}
