package game

import (
	"image/color"

	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/world"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	colorBackground  = color.RGBA{15, 15, 22, 255}
	colorGridLine    = color.RGBA{0, 0, 0, 40}
	colorObstacle    = color.RGBA{120, 85, 50, 255}
	colorPath        = color.RGBA{255, 255, 255, 160}
	colorDestination = color.RGBA{255, 220, 0, 255}
	colorSelected    = color.RGBA{255, 255, 255, 255}
)

// Renderer draws the active map
type Renderer struct {
	game *Game
}

// NewRenderer creates a new renderer
func NewRenderer(game *Game) *Renderer {
	return &Renderer{game: game}
}

// Draw renders tiles, placed obstacles, reservations, paths and actors
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	g := r.game
	md, err := g.world.CurrentMap()
	if err != nil {
		ebitenutil.DebugPrintAt(screen, "no active map", mapPadding, mapPadding)
		return
	}

	ox, oy := g.mapOrigin()
	r.drawTiles(screen, md, ox, oy)
	r.drawCells(screen, md, ox, oy)
	if g.showGrid {
		r.drawGrid(screen, md, ox, oy)
	}
	if g.showPaths {
		r.drawPaths(screen, ox, oy)
	}
	r.drawActors(screen, ox, oy)
}

func (r *Renderer) drawTiles(screen *ebiten.Image, md *world.MapData, ox, oy int) {
	tiles := r.game.world.Tiles()
	size := float32(r.game.config.GetRenderTileSize())
	for y := 0; y < md.Height; y++ {
		for x := 0; x < md.Width; x++ {
			clr := colorFromRGB(tiles.GetColor(md.Tiles[y][x]), 255)
			vector.DrawFilledRect(screen, float32(ox)+float32(x)*size, float32(oy)+float32(y)*size, size, size, clr, false)
		}
	}
}

// drawCells shows obstacles placed on walkable tiles and the cells reserved by
// each actor
func (r *Renderer) drawCells(screen *ebiten.Image, md *world.MapData, ox, oy int) {
	g := r.game
	grid := g.world.Nav.Grid()
	if !grid.Loaded() {
		return
	}
	width := grid.Width()
	ratio := g.config.GetTileRatio()
	size := float32(grid.TileSize())

	for i, cell := range grid.Snapshot() {
		x, y := i%width, i/width
		fx := float32(ox) + float32(x)*size
		fy := float32(oy) + float32(y)*size

		switch {
		case cell.IsObstacle() && md.IsPassable(x/ratio, y/ratio):
			vector.DrawFilledRect(screen, fx+1, fy+1, size-2, size-2, colorObstacle, false)
		case cell.IsActor():
			clr := color.RGBA{255, 255, 255, 50}
			if w, ok := g.world.Walker(cell.Actor); ok {
				clr = colorFromRGB(w.Color, 70)
			}
			vector.DrawFilledRect(screen, fx, fy, size, size, clr, false)
		}
	}
}

func (r *Renderer) drawGrid(screen *ebiten.Image, md *world.MapData, ox, oy int) {
	step := r.game.config.GetMovementTileSize()
	w := md.Width * r.game.config.GetRenderTileSize()
	h := md.Height * r.game.config.GetRenderTileSize()
	for x := 0; x <= w; x += step {
		vector.StrokeLine(screen, float32(ox+x), float32(oy), float32(ox+x), float32(oy+h), 1, colorGridLine, false)
	}
	for y := 0; y <= h; y += step {
		vector.StrokeLine(screen, float32(ox), float32(oy+y), float32(ox+w), float32(oy+y), 1, colorGridLine, false)
	}
}

func (r *Renderer) drawPaths(screen *ebiten.Image, ox, oy int) {
	g := r.game
	for _, order := range g.world.Scheduler.Orders() {
		size := order.Actor().Size()
		centre := func(p geom.Point) (float32, float32) {
			return float32(ox + p.X + size.W/2), float32(oy + p.Y + size.H/2)
		}

		px, py := centre(order.Actor().Location())
		for _, wp := range order.Remaining() {
			nx, ny := centre(wp)
			vector.StrokeLine(screen, px, py, nx, ny, 2, colorPath, true)
			vector.DrawFilledCircle(screen, nx, ny, 2, colorPath, true)
			px, py = nx, ny
		}

		dx, dy := centre(order.Destination())
		vector.StrokeCircle(screen, dx, dy, float32(size.W)/2, 2, colorDestination, true)
	}
}

func (r *Renderer) drawActors(screen *ebiten.Image, ox, oy int) {
	g := r.game
	for _, h := range g.world.Handles() {
		w, ok := g.world.Walker(h)
		if !ok {
			continue
		}
		b := w.Bounds()
		x, y := float32(ox+b.X), float32(oy+b.Y)
		vector.DrawFilledRect(screen, x+2, y+2, float32(b.W)-4, float32(b.H)-4, colorFromRGB(w.Color, 255), false)
		if h == g.selected {
			vector.StrokeRect(screen, x+1, y+1, float32(b.W)-2, float32(b.H)-2, 2, colorSelected, false)
		}

		// facing marker
		d := w.Direction().Delta()
		cx, cy := x+float32(b.W)/2, y+float32(b.H)/2
		reach := float32(b.W) / 2
		vector.StrokeLine(screen, cx, cy, cx+float32(d.X)*reach, cy+float32(d.Y)*reach, 2, color.Black, false)

		if state, blocked := g.world.Nav.AdjacentOccupant(h); blocked && state.Kind == collision.KindActor {
			vector.DrawFilledCircle(screen, cx, cy, 3, color.RGBA{230, 80, 80, 255}, true)
		}
	}
}
