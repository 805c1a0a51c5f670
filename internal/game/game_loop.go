package game

import (
	"time"

	"gridwalk/internal/telemetry"

	"github.com/hajimehoshi/ebiten/v2"
)

// GameLoop manages the update and render cycle
type GameLoop struct {
	game         *Game
	inputHandler *InputHandler
	renderer     *Renderer
	ui           *UISystem

	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
}

// NewGameLoop creates a new game loop manager
func NewGameLoop(game *Game) *GameLoop {
	return &GameLoop{
		game:         game,
		inputHandler: NewInputHandler(game),
		renderer:     NewRenderer(game),
		ui:           NewUISystem(game),
	}
}

// Update reads input, advances every move order by the wall-clock time since
// the previous frame and publishes a telemetry snapshot when due.
func (gl *GameLoop) Update() error {
	start := time.Now()
	defer func() { gl.lastUpdateDuration = time.Since(start) }()

	if err := gl.inputHandler.HandleInput(); err != nil {
		return err
	}

	g := gl.game
	elapsed := g.config.GetFrameDuration()
	if !g.lastUpdate.IsZero() {
		elapsed = start.Sub(g.lastUpdate)
	}
	g.lastUpdate = start

	g.world.Update(elapsed)
	g.tick++

	gl.publish()
	gl.maybeLogPerfDrop()
	return nil
}

func (gl *GameLoop) publish() {
	g := gl.game
	every := uint64(g.config.Telemetry.BroadcastEvery)
	if g.hub == nil || every == 0 || g.tick%every != 0 {
		return
	}
	if err := g.hub.Broadcast(telemetry.Capture(g.tick, g.world, g.monitor)); err != nil {
		g.log.WithError(err).Warn("telemetry broadcast failed")
	}
}

// Draw renders the map and the sidebar
func (gl *GameLoop) Draw(screen *ebiten.Image) {
	start := time.Now()
	gl.renderer.Draw(screen)
	gl.ui.Draw(screen)
	gl.lastDrawDuration = time.Since(start)
}
