package game

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type queuedClick struct {
	x, y int
	at   int64
}

// Clicks older than this are dropped unhandled
const clickBufferMs = 500

// queueClicks records the mouse presses of this frame
func (g *Game) queueClicks() {
	now := time.Now().UnixMilli()
	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.mouseLeftClicks = append(g.mouseLeftClicks, queuedClick{x: x, y: y, at: now})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		g.mouseRightClicks = append(g.mouseRightClicks, queuedClick{x: x, y: y, at: now})
	}
	g.pruneClickQueues(now)
}

// consumeLeftClickIn consumes the oldest queued left-click inside the bounds.
// Bounds are inclusive-exclusive: [x1,x2) and [y1,y2).
func (g *Game) consumeLeftClickIn(x1, y1, x2, y2 int) (queuedClick, bool) {
	return consumeClickIn(&g.mouseLeftClicks, x1, y1, x2, y2)
}

// consumeRightClickIn is consumeLeftClickIn for the right button
func (g *Game) consumeRightClickIn(x1, y1, x2, y2 int) (queuedClick, bool) {
	return consumeClickIn(&g.mouseRightClicks, x1, y1, x2, y2)
}

func consumeClickIn(queue *[]queuedClick, x1, y1, x2, y2 int) (queuedClick, bool) {
	for i, click := range *queue {
		if click.x >= x1 && click.x < x2 && click.y >= y1 && click.y < y2 {
			*queue = append((*queue)[:i], (*queue)[i+1:]...)
			return click, true
		}
	}
	return queuedClick{}, false
}

func (g *Game) pruneClickQueues(now int64) {
	g.mouseLeftClicks = pruneClicks(g.mouseLeftClicks, now)
	g.mouseRightClicks = pruneClicks(g.mouseRightClicks, now)
}

func pruneClicks(clicks []queuedClick, now int64) []queuedClick {
	if len(clicks) == 0 {
		return clicks
	}
	keep := clicks[:0]
	for _, click := range clicks {
		if now-click.at <= clickBufferMs {
			keep = append(keep, click)
		}
	}
	return keep
}
