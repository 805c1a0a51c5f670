package actor

import (
	"fmt"

	"gridwalk/internal/geom"
	"gridwalk/internal/movement"
)

// Walker is a plain actor with a fixed footprint and speed
type Walker struct {
	Key   string
	Name  string
	Color [3]int

	location  geom.Point
	direction geom.Direction
	speed     float64
	size      geom.Size
	animation movement.Animation
}

// NewWalker creates a walker at a pixel location. Footprint dimensions of
// zero become one movement tile.
func NewWalker(key string, arch *Archetype, at geom.Point, movementTileSize int, defaultSpeed float64) *Walker {
	w, h := arch.Width, arch.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	speed := arch.Speed
	if speed <= 0 {
		speed = defaultSpeed
	}
	name := arch.Name
	if name == "" {
		name = key
	}
	return &Walker{
		Key:       key,
		Name:      name,
		Color:     arch.Color,
		location:  at,
		direction: geom.DirDown,
		speed:     speed,
		size:      geom.Size{W: w * movementTileSize, H: h * movementTileSize},
	}
}

func (w *Walker) Location() geom.Point              { return w.location }
func (w *Walker) SetLocation(p geom.Point)          { w.location = p }
func (w *Walker) Direction() geom.Direction         { return w.direction }
func (w *Walker) SetDirection(d geom.Direction)     { w.direction = d }
func (w *Walker) Speed() float64                    { return w.speed }
func (w *Walker) Size() geom.Size                   { return w.size }
func (w *Walker) SetAnimation(a movement.Animation) { w.animation = a }
func (w *Walker) Animation() movement.Animation     { return w.animation }

// SetSpeed changes the walking speed in pixels per second
func (w *Walker) SetSpeed(s float64) { w.speed = s }

// Bounds returns the footprint in pixels
func (w *Walker) Bounds() geom.Rect {
	return geom.NewRect(w.location, w.size)
}

func (w *Walker) String() string {
	return fmt.Sprintf("%s@%s", w.Name, w.location)
}
