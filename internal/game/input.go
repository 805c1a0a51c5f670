package game

import (
	"context"
	"fmt"

	"gridwalk/internal/geom"
	"gridwalk/internal/movement"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"
)

// InputHandler turns keys and clicks into world commands
type InputHandler struct {
	game *Game
}

// NewInputHandler creates a new input handler
func NewInputHandler(game *Game) *InputHandler {
	return &InputHandler{game: game}
}

// HandleInput processes one frame of input. It returns ebiten.Termination
// when the viewer should close.
func (ih *InputHandler) HandleInput() error {
	g := ih.game
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.showGrid = !g.showGrid
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.showPaths = !g.showPaths
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHelp = !g.showHelp
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.perfDebugEnabled = !g.perfDebugEnabled
		g.setStatus(fmt.Sprintf("perf debug: %v", g.perfDebugEnabled))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.selected = nextHandle(g.world.Handles(), g.selected)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.world.Scheduler.Cancel(g.selected) {
			g.setStatus("order cancelled")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		ih.switchMap()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		ih.spawnAtCursor()
	}

	g.queueClicks()
	ih.handleMapClicks()
	return nil
}

// mapBounds returns the screen rectangle covered by the map
func (ih *InputHandler) mapBounds() (x1, y1, x2, y2 int) {
	g := ih.game
	ox, oy := g.mapOrigin()
	md, err := g.world.CurrentMap()
	if err != nil {
		return ox, oy, ox, oy
	}
	tile := g.config.GetRenderTileSize()
	return ox, oy, ox + md.Width*tile, oy + md.Height*tile
}

func (ih *InputHandler) handleMapClicks() {
	g := ih.game
	x1, y1, x2, y2 := ih.mapBounds()
	ox, oy := g.mapOrigin()
	tile := g.config.GetMovementTileSize()

	for {
		click, ok := g.consumeLeftClickIn(x1, y1, x2, y2)
		if !ok {
			break
		}
		p := screenToWorld(click.x, click.y, ox, oy)
		if h, hit := actorAt(g.world, p); hit {
			g.selected = h
			continue
		}
		ih.commandSelected(snapToCell(p, tile))
	}

	for {
		click, ok := g.consumeRightClickIn(x1, y1, x2, y2)
		if !ok {
			break
		}
		cell := snapToCell(screenToWorld(click.x, click.y, ox, oy), tile)
		area := geom.NewRect(cell, geom.Size{W: tile, H: tile})
		if g.world.Nav.AddObstacle(area) {
			g.setStatus(fmt.Sprintf("obstacle at %s", cell))
		} else {
			g.setStatus("cell is taken")
		}
	}
}

func (ih *InputHandler) commandSelected(dest geom.Point) {
	g := ih.game
	h := g.selected
	if _, ok := g.world.Walker(h); !ok {
		g.setStatus("no actor selected")
		return
	}
	task := movement.TaskFunc(func() {
		g.log.WithFields(logrus.Fields{"actor": h, "dest": dest}).Info("arrived")
	})
	if !g.world.Command(h, dest, task) {
		g.setStatus("destination refused")
		return
	}
	g.setStatus(fmt.Sprintf("actor %d -> %s", h, dest))
}

func (ih *InputHandler) switchMap() {
	g := ih.game
	key := nextMapKey(g.world.GetAvailableMaps(), g.world.CurrentMapKey)
	if key == "" {
		return
	}
	if err := g.world.Activate(context.Background(), key); err != nil {
		g.log.WithError(err).Error("map switch failed")
		g.setStatus("map switch failed")
		return
	}
	g.selected = nextHandle(g.world.Handles(), 0)
	g.setStatus("map: " + key)
}

func (ih *InputHandler) spawnAtCursor() {
	g := ih.game
	keys := g.world.ArchetypeKeys()
	if len(keys) == 0 {
		return
	}
	ox, oy := g.mapOrigin()
	cx, cy := ebiten.CursorPosition()
	at := snapToCell(screenToWorld(cx, cy, ox, oy), g.config.GetMovementTileSize())

	h, err := g.world.SpawnActor(keys[0], at)
	if err != nil {
		g.setStatus("cannot spawn here")
		return
	}
	g.selected = h
	g.setStatus(fmt.Sprintf("spawned %s", keys[0]))
}
