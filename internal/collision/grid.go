package collision

import (
	"errors"
	"fmt"

	"gridwalk/internal/geom"
	"gridwalk/internal/mathutil"
)

// ErrInvalidState is raised (via panic) when the grid is used before a map
// has been loaded into it. It always indicates a bug in the caller.
var ErrInvalidState = errors.New("invalid state")

// Grid is the occupancy map over movement tiles. Cells are stored in one
// contiguous slice addressed by y*width+x.
//
// Area writes are transactional: Occupy either updates every cell of the
// rectangle or none of them.
type Grid struct {
	tileSize int // movement tile size in pixels
	width    int
	height   int
	cells    []TileState
	loaded   bool
}

// NewGrid creates an empty grid. Nothing can be occupied until Reset is
// called with the dimensions of a map.
func NewGrid(movementTileSize int) *Grid {
	if movementTileSize <= 0 {
		movementTileSize = 1
	}
	return &Grid{tileSize: movementTileSize}
}

// Reset discards all occupancy and resizes the grid. Every cell becomes Free.
func (g *Grid) Reset(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g.width = width
	g.height = height
	g.cells = make([]TileState, width*height)
	g.loaded = true
}

// Loaded reports whether a map has been loaded into the grid
func (g *Grid) Loaded() bool {
	return g.loaded
}

func (g *Grid) mustBeLoaded(op string) {
	if !g.loaded {
		panic(fmt.Errorf("%w: collision grid %s called before any map was loaded", ErrInvalidState, op))
	}
}

// Width returns the grid width in movement tiles. Panics if no map is loaded.
func (g *Grid) Width() int {
	g.mustBeLoaded("Width")
	return g.width
}

// Height returns the grid height in movement tiles. Panics if no map is loaded.
func (g *Grid) Height() int {
	g.mustBeLoaded("Height")
	return g.height
}

// Dimensions returns width and height in movement tiles. Panics if no map is loaded.
func (g *Grid) Dimensions() (int, int) {
	g.mustBeLoaded("Dimensions")
	return g.width, g.height
}

// TileSize returns the movement tile size in pixels
func (g *Grid) TileSize() int {
	return g.tileSize
}

// Bounds returns the grid extent in tiles
func (g *Grid) Bounds() geom.Rect {
	return geom.Rect{W: g.width, H: g.height}
}

// PixelBounds returns the grid extent in pixels
func (g *Grid) PixelBounds() geom.Rect {
	return geom.Rect{W: g.width * g.tileSize, H: g.height * g.tileSize}
}

// InBounds reports whether the tile lies inside the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *Grid) index(x, y int) int {
	return y*g.width + x
}

// At returns the state of a tile. Tiles outside the grid read as obstacles.
func (g *Grid) At(x, y int) TileState {
	if !g.InBounds(x, y) {
		return ObstacleTile
	}
	return g.cells[g.index(x, y)]
}

// Blocked reports whether a tile is a static obstacle. Actors do not block.
func (g *Grid) Blocked(x, y int) bool {
	return g.At(x, y).Kind == KindObstacle
}

// TileOf converts a pixel position to the tile containing it
func (g *Grid) TileOf(p geom.Point) geom.Point {
	return geom.Point{X: mathutil.FloorDiv(p.X, g.tileSize), Y: mathutil.FloorDiv(p.Y, g.tileSize)}
}

// PixelOf returns the top-left pixel of a tile
func (g *Grid) PixelOf(t geom.Point) geom.Point {
	return t.Scale(g.tileSize)
}

// TileRect converts a pixel rectangle to the tiles it touches: the minimum
// edge is floored and the maximum edge is ceiled.
func (g *Grid) TileRect(r geom.Rect) geom.Rect {
	if r.Empty() {
		return geom.Rect{}
	}
	minX := mathutil.FloorDiv(r.X, g.tileSize)
	minY := mathutil.FloorDiv(r.Y, g.tileSize)
	maxX := mathutil.CeilDiv(r.MaxX(), g.tileSize)
	maxY := mathutil.CeilDiv(r.MaxY(), g.tileSize)
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// CanOccupy reports whether every cell touched by the pixel rectangle is Free
// or already holds state. Rectangles reaching outside the grid are rejected.
func (g *Grid) CanOccupy(r geom.Rect, state TileState) bool {
	return g.CanOccupyTiles(g.TileRect(r), state)
}

// Occupy writes state to every cell of the pixel rectangle if CanOccupy
// allows it. On false the grid is unchanged.
func (g *Grid) Occupy(r geom.Rect, state TileState) bool {
	return g.OccupyTiles(g.TileRect(r), state)
}

// Free clears every cell of the pixel rectangle regardless of its occupant
func (g *Grid) Free(r geom.Rect) {
	g.FreeTiles(g.TileRect(r))
}

// IsFree reports whether every cell of the pixel rectangle is Free. Unlike
// CanOccupy no occupant is tolerated, not even the caller itself.
func (g *Grid) IsFree(r geom.Rect) bool {
	return g.IsFreeTiles(g.TileRect(r))
}

// CanOccupyTiles is CanOccupy on a rectangle already expressed in tiles
func (g *Grid) CanOccupyTiles(tr geom.Rect, state TileState) bool {
	if !g.loaded || !g.Bounds().ContainsRect(tr) {
		return false
	}
	for y := tr.Y; y < tr.MaxY(); y++ {
		row := y * g.width
		for x := tr.X; x < tr.MaxX(); x++ {
			cell := g.cells[row+x]
			if cell.Kind != KindFree && cell != state {
				return false
			}
		}
	}
	return true
}

// OccupyTiles is Occupy on a rectangle already expressed in tiles
func (g *Grid) OccupyTiles(tr geom.Rect, state TileState) bool {
	if !g.CanOccupyTiles(tr, state) {
		return false
	}
	g.fill(tr, state)
	return true
}

// FreeTiles clears a tile rectangle. Parts outside the grid are ignored.
func (g *Grid) FreeTiles(tr geom.Rect) {
	g.fill(g.clip(tr), FreeTile)
}

// ReleaseTiles clears only the cells of the rectangle that still hold state,
// leaving cells taken by anyone else untouched.
func (g *Grid) ReleaseTiles(tr geom.Rect, state TileState) {
	tr = g.clip(tr)
	for y := tr.Y; y < tr.MaxY(); y++ {
		row := y * g.width
		for x := tr.X; x < tr.MaxX(); x++ {
			if g.cells[row+x] == state {
				g.cells[row+x] = FreeTile
			}
		}
	}
}

// IsFreeTiles is IsFree on a rectangle already expressed in tiles
func (g *Grid) IsFreeTiles(tr geom.Rect) bool {
	if !g.loaded || !g.Bounds().ContainsRect(tr) {
		return false
	}
	for y := tr.Y; y < tr.MaxY(); y++ {
		row := y * g.width
		for x := tr.X; x < tr.MaxX(); x++ {
			if g.cells[row+x].Kind != KindFree {
				return false
			}
		}
	}
	return true
}

// AdjacentOccupant probes the single cell just beyond the footprint (pixels)
// in the given direction, on the centre line of the leading edge. The second
// result is false when that cell is free or outside the grid.
func (g *Grid) AdjacentOccupant(footprint geom.Rect, dir geom.Direction) (TileState, bool) {
	tr := g.TileRect(footprint)
	if tr.Empty() {
		return FreeTile, false
	}
	cx := tr.X + (tr.W-1)/2
	cy := tr.Y + (tr.H-1)/2

	var probe geom.Point
	switch dir {
	case geom.DirUp:
		probe = geom.Point{X: cx, Y: tr.Y - 1}
	case geom.DirDown:
		probe = geom.Point{X: cx, Y: tr.MaxY()}
	case geom.DirLeft:
		probe = geom.Point{X: tr.X - 1, Y: cy}
	case geom.DirRight:
		probe = geom.Point{X: tr.MaxX(), Y: cy}
	default:
		return FreeTile, false
	}

	if !g.InBounds(probe.X, probe.Y) {
		return FreeTile, false
	}
	state := g.cells[g.index(probe.X, probe.Y)]
	return state, !state.IsFree()
}

// Snapshot returns a copy of all cells in row-major order
func (g *Grid) Snapshot() []TileState {
	out := make([]TileState, len(g.cells))
	copy(out, g.cells)
	return out
}

// Count returns how many cells hold the given kind of occupant
func (g *Grid) Count(kind OccupantKind) int {
	n := 0
	for _, c := range g.cells {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (g *Grid) fill(tr geom.Rect, state TileState) {
	for y := tr.Y; y < tr.MaxY(); y++ {
		row := y * g.width
		for x := tr.X; x < tr.MaxX(); x++ {
			g.cells[row+x] = state
		}
	}
}

func (g *Grid) clip(tr geom.Rect) geom.Rect {
	minX := mathutil.IntMax(tr.X, 0)
	minY := mathutil.IntMax(tr.Y, 0)
	maxX := mathutil.IntMin(tr.MaxX(), g.width)
	maxY := mathutil.IntMin(tr.MaxY(), g.height)
	if maxX <= minX || maxY <= minY {
		return geom.Rect{}
	}
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
