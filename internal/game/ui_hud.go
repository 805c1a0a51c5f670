package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	ebitext "github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var (
	hudText      = color.RGBA{220, 220, 230, 255}
	hudHeading   = color.RGBA{120, 200, 255, 255}
	hudDim       = color.RGBA{140, 140, 160, 255}
	hudStatus    = color.RGBA{255, 220, 0, 255}
	hudPanel     = color.RGBA{18, 18, 26, 255}
	hudPanelEdge = color.RGBA{70, 70, 90, 255}
)

const hudLineHeight = 16

var helpLines = []string{
	"Left click: select / move",
	"Right click: place obstacle",
	"Tab: next actor  Space: stop",
	"A: spawn at cursor  N: next map",
	"G: grid  P: paths  H: help",
	"F3: perf log  Esc: quit",
}

// UISystem draws the sidebar
type UISystem struct {
	game *Game
	face font.Face
}

// NewUISystem creates a new UI system
func NewUISystem(game *Game) *UISystem {
	return &UISystem{game: game, face: basicfont.Face7x13}
}

type hudLine struct {
	text  string
	color color.Color
}

// Draw renders the sidebar panel
func (ui *UISystem) Draw(screen *ebiten.Image) {
	g := ui.game
	x := g.sidebarX()
	y := mapPadding
	h := screen.Bounds().Dy() - mapPadding*2
	w := sidebarWidth
	if maxW := screen.Bounds().Dx() - x - mapPadding; maxW < w {
		w = maxW
	}
	if w <= 0 {
		return
	}

	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), hudPanel, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 2, hudPanelEdge, false)

	row := y + 12
	for _, line := range ui.lines(time.Now()) {
		if line.text != "" {
			ui.drawText(screen, line.text, x+12, row, line.color)
		}
		row += hudLineHeight
	}
}

func (ui *UISystem) drawText(screen *ebiten.Image, s string, x, y int, clr color.Color) {
	ebitext.Draw(screen, s, ui.face, x, y+ui.face.Metrics().Ascent.Round(), clr)
}

func (ui *UISystem) lines(now time.Time) []hudLine {
	g := ui.game
	wm := g.world
	var lines []hudLine
	add := func(clr color.Color, format string, args ...interface{}) {
		lines = append(lines, hudLine{text: fmt.Sprintf(format, args...), color: clr})
	}

	title := wm.CurrentMapKey
	if mc := wm.GetCurrentMapConfig(); mc != nil && mc.Name != "" {
		title = fmt.Sprintf("%s (%s)", mc.Name, wm.CurrentMapKey)
	}
	add(hudHeading, "%s", title)
	add(hudDim, "tick %d  fps %.0f", g.tick, ebiten.ActualFPS())
	add(hudText, "actors %d  orders %d", len(wm.Handles()), wm.Scheduler.Active())
	lines = append(lines, hudLine{})

	add(hudHeading, "Selected")
	if w, ok := wm.Walker(g.selected); ok {
		add(hudText, "#%d %s", g.selected, w.Name)
		add(hudText, "at %s facing %s", w.Location(), w.Direction())
		if order, ok := wm.Scheduler.Order(g.selected); ok {
			add(hudText, "order %s -> %s", order.State(), order.Destination())
			add(hudText, "waypoints %d  reroutes %d", len(order.Remaining()), order.Reroutes())
		} else {
			add(hudDim, "idle")
		}
	} else {
		add(hudDim, "none")
	}
	lines = append(lines, hudLine{})

	if g.monitor != nil {
		m := g.monitor.Snapshot()
		add(hudHeading, "Pathing")
		add(hudText, "plan %s (%d cells)", m.LastPlanTime.Round(time.Microsecond), m.PlanTiles)
		add(hudText, "ideal %d  rerouted %d", m.IdealSearches, m.ReroutedSearches)
		add(hudText, "failed %d  reroutes %d", m.FailedSearches, m.Reroutes)
		add(hudText, "avg search %s", m.AvgSearchTime.Round(time.Microsecond))
		add(hudText, "arrivals %d  conflicts %d", m.Arrivals, m.ReservationFails)
		if g.hub != nil {
			add(hudDim, "telemetry clients %d", g.hub.ClientCount())
		}
		lines = append(lines, hudLine{})
	}

	if g.showHelp {
		add(hudHeading, "Controls")
		for _, l := range helpLines {
			add(hudDim, "%s", l)
		}
		lines = append(lines, hudLine{})
	}

	if status := g.currentStatus(now); status != "" {
		add(hudStatus, "%s", status)
	}
	return lines
}
