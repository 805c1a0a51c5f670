package geom

import "fmt"

// Point is an integer coordinate. Depending on context it is measured in
// pixels or in movement tiles.
type Point struct {
	X, Y int
}

// Add returns p translated by o
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns the offset from o to p
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Scale multiplies both components by k
func (p Point) Scale(k int) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Size is a width/height pair
type Size struct {
	W, H int
}

// Empty reports whether the size covers no area
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
// The right and bottom edges are exclusive.
type Rect struct {
	X, Y, W, H int
}

// NewRect builds a rectangle from an origin and a size
func NewRect(origin Point, size Size) Rect {
	return Rect{X: origin.X, Y: origin.Y, W: size.W, H: size.H}
}

// Origin returns the top-left corner
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the rectangle dimensions
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// MaxX returns the exclusive right edge
func (r Rect) MaxX() int {
	return r.X + r.W
}

// MaxY returns the exclusive bottom edge
func (r Rect) MaxY() int {
	return r.Y + r.H
}

// Empty reports whether the rectangle covers no area
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether p lies inside r
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// ContainsRect reports whether o lies entirely inside r
func (r Rect) ContainsRect(o Rect) bool {
	if o.Empty() {
		return false
	}
	return o.X >= r.X && o.Y >= r.Y && o.MaxX() <= r.MaxX() && o.MaxY() <= r.MaxY()
}

// Intersects reports whether the two rectangles share any area
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.MaxX() && o.X < r.MaxX() && r.Y < o.MaxY() && o.Y < r.MaxY()
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.W, r.H)
}
