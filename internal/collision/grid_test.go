package collision

import (
	"errors"
	"testing"

	"gridwalk/internal/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTile = 16

func newLoadedGrid(w, h int) *Grid {
	g := NewGrid(testTile)
	g.Reset(w, h)
	return g
}

// tileRect is a pixel rectangle covering whole tiles
func tileRect(x, y, w, h int) geom.Rect {
	return geom.Rect{X: x * testTile, Y: y * testTile, W: w * testTile, H: h * testTile}
}

func TestGridPanicsBeforeLoad(t *testing.T) {
	g := NewGrid(testTile)

	for name, fn := range map[string]func(){
		"Width":      func() { g.Width() },
		"Height":     func() { g.Height() },
		"Dimensions": func() { g.Dimensions() },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected panic")
				err, ok := r.(error)
				require.True(t, ok, "panic value should be an error, got %T", r)
				assert.True(t, errors.Is(err, ErrInvalidState))
			}()
			fn()
		})
	}
}

func TestTileRectFloorsAndCeils(t *testing.T) {
	g := newLoadedGrid(10, 10)

	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 1, H: 1}, g.TileRect(geom.Rect{X: 0, Y: 0, W: 16, H: 16}))
	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 2, H: 1}, g.TileRect(geom.Rect{X: 8, Y: 0, W: 16, H: 16}))
	assert.Equal(t, geom.Rect{X: 1, Y: 1, W: 1, H: 1}, g.TileRect(geom.Rect{X: 17, Y: 20, W: 4, H: 4}))
	assert.Equal(t, geom.Rect{X: -1, Y: 0, W: 1, H: 1}, g.TileRect(geom.Rect{X: -3, Y: 0, W: 2, H: 2}))
}

func TestCanOccupyRules(t *testing.T) {
	g := newLoadedGrid(10, 10)
	a := ActorTile(1)
	b := ActorTile(2)

	require.True(t, g.Occupy(tileRect(2, 2, 1, 1), a))

	assert.True(t, g.CanOccupy(tileRect(2, 2, 1, 1), a), "own cell is acceptable")
	assert.False(t, g.CanOccupy(tileRect(2, 2, 1, 1), b), "another actor's cell is not")
	assert.True(t, g.CanOccupy(tileRect(3, 3, 2, 2), b))
	assert.False(t, g.CanOccupy(tileRect(1, 1, 2, 2), b), "any blocked cell rejects the area")

	require.True(t, g.Occupy(tileRect(5, 5, 1, 1), ObstacleTile))
	assert.True(t, g.CanOccupy(tileRect(5, 5, 1, 1), ObstacleTile), "obstacles may overlap obstacles")
	assert.False(t, g.CanOccupy(tileRect(5, 5, 1, 1), a))
}

func TestOutOfBoundsRejectedNotClamped(t *testing.T) {
	g := newLoadedGrid(4, 4)

	assert.False(t, g.CanOccupy(tileRect(3, 3, 2, 1), ActorTile(1)))
	assert.False(t, g.CanOccupy(tileRect(-1, 0, 2, 1), ActorTile(1)))
	assert.False(t, g.Occupy(tileRect(3, 0, 2, 2), ActorTile(1)))
	assert.Equal(t, 0, g.Count(KindActor), "rejected write must not touch in-bounds cells")
	assert.False(t, g.IsFree(tileRect(0, 3, 1, 2)))
}

func TestOccupyIsAtomic(t *testing.T) {
	g := newLoadedGrid(8, 8)
	require.True(t, g.Occupy(tileRect(4, 4, 1, 1), ActorTile(9)))
	require.True(t, g.Occupy(tileRect(0, 0, 1, 1), ObstacleTile))

	before := g.Snapshot()
	ok := g.Occupy(tileRect(2, 2, 3, 3), ActorTile(1))

	assert.False(t, ok)
	assert.Equal(t, before, g.Snapshot(), "failed occupy must leave the grid unchanged")
}

func TestFreeIsIdempotent(t *testing.T) {
	g := newLoadedGrid(6, 6)
	require.True(t, g.Occupy(tileRect(1, 1, 3, 2), ActorTile(3)))
	require.True(t, g.Occupy(tileRect(4, 4, 1, 1), ObstacleTile))

	g.Free(tileRect(1, 1, 2, 2))
	once := g.Snapshot()
	g.Free(tileRect(1, 1, 2, 2))

	assert.Equal(t, once, g.Snapshot())
	assert.Equal(t, ActorTile(3), g.At(3, 1))
	assert.Equal(t, FreeTile, g.At(1, 1))
}

func TestFreeIgnoresCellsOutsideGrid(t *testing.T) {
	g := newLoadedGrid(3, 3)
	require.True(t, g.Occupy(tileRect(0, 0, 3, 3), ObstacleTile))

	g.Free(tileRect(-2, -2, 3, 3))

	assert.Equal(t, FreeTile, g.At(0, 0))
	assert.Equal(t, ObstacleTile, g.At(1, 1))
}

func TestIsFreeIsStrict(t *testing.T) {
	g := newLoadedGrid(5, 5)
	require.True(t, g.Occupy(tileRect(1, 1, 1, 1), ActorTile(1)))

	assert.False(t, g.IsFree(tileRect(1, 1, 1, 1)), "self-occupied cell is not free")
	assert.True(t, g.IsFree(tileRect(2, 2, 2, 2)))
}

func TestReleaseTilesOnlyClearsMatchingState(t *testing.T) {
	g := newLoadedGrid(4, 4)
	require.True(t, g.Occupy(tileRect(0, 0, 2, 1), ActorTile(1)))
	require.True(t, g.Occupy(tileRect(2, 0, 1, 1), ActorTile(2)))

	g.ReleaseTiles(geom.Rect{X: 0, Y: 0, W: 3, H: 1}, ActorTile(1))

	assert.Equal(t, FreeTile, g.At(0, 0))
	assert.Equal(t, FreeTile, g.At(1, 0))
	assert.Equal(t, ActorTile(2), g.At(2, 0))
}

func TestAdjacentOccupant(t *testing.T) {
	g := newLoadedGrid(6, 6)
	require.True(t, g.Occupy(tileRect(2, 2, 2, 2), ActorTile(1)))
	require.True(t, g.Occupy(tileRect(2, 1, 1, 1), ActorTile(7)))
	require.True(t, g.Occupy(tileRect(4, 2, 1, 1), ObstacleTile))

	footprint := tileRect(2, 2, 2, 2)

	state, ok := g.AdjacentOccupant(footprint, geom.DirUp)
	assert.True(t, ok)
	assert.Equal(t, ActorTile(7), state)

	state, ok = g.AdjacentOccupant(footprint, geom.DirRight)
	assert.True(t, ok)
	assert.Equal(t, ObstacleTile, state)

	_, ok = g.AdjacentOccupant(footprint, geom.DirDown)
	assert.False(t, ok)

	_, ok = g.AdjacentOccupant(tileRect(0, 0, 1, 1), geom.DirLeft)
	assert.False(t, ok, "probe outside the grid reports nothing")
}

func TestOutOfBoundsReadsAsObstacle(t *testing.T) {
	g := newLoadedGrid(2, 2)
	assert.True(t, g.Blocked(-1, 0))
	assert.True(t, g.Blocked(2, 1))
	assert.False(t, g.Blocked(1, 1))
}
