package game

import (
	"image/color"

	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/world"
)

// screenToWorld converts a cursor position to map pixels
func screenToWorld(sx, sy, originX, originY int) geom.Point {
	return geom.Point{X: sx - originX, Y: sy - originY}
}

// snapToCell returns the top-left pixel of the movement tile holding p
func snapToCell(p geom.Point, tileSize int) geom.Point {
	return geom.Point{
		X: mathutil.FloorDiv(p.X, tileSize) * tileSize,
		Y: mathutil.FloorDiv(p.Y, tileSize) * tileSize,
	}
}

// actorAt returns the actor whose footprint covers p
func actorAt(wm *world.WorldManager, p geom.Point) (collision.Handle, bool) {
	for _, h := range wm.Handles() {
		if w, ok := wm.Walker(h); ok && w.Bounds().Contains(p) {
			return h, true
		}
	}
	return collision.NoHandle, false
}

// nextHandle cycles through handles after current, wrapping around
func nextHandle(handles []collision.Handle, current collision.Handle) collision.Handle {
	if len(handles) == 0 {
		return collision.NoHandle
	}
	for i, h := range handles {
		if h == current {
			return handles[(i+1)%len(handles)]
		}
	}
	return handles[0]
}

// nextMapKey returns the map after current in sorted order
func nextMapKey(keys []string, current string) string {
	if len(keys) == 0 {
		return ""
	}
	for i, k := range keys {
		if k == current {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

func colorFromRGB(rgb [3]int, a uint8) color.RGBA {
	return color.RGBA{uint8(rgb[0]), uint8(rgb[1]), uint8(rgb[2]), a}
}
