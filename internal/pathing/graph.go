package pathing

import (
	"math"

	"gridwalk/internal/geom"
)

// Graph is the static tile graph the planner and finder walk. Tiles report
// Blocked when they hold a static obstacle; anything outside
// [0,width)×[0,height) is never visited.
type Graph interface {
	Dimensions() (width, height int)
	Blocked(x, y int) bool
}

// Step costs for the 8-connected tile graph
const (
	LateralCost  = 1.0
	DiagonalCost = math.Sqrt2
)

type neighbourOffset struct {
	delta geom.Point
	cost  float64
}

// Lateral neighbours come first; the finder relies on this order.
var neighbourOffsets = [...]neighbourOffset{
	{geom.Point{X: 1, Y: 0}, LateralCost},
	{geom.Point{X: -1, Y: 0}, LateralCost},
	{geom.Point{X: 0, Y: 1}, LateralCost},
	{geom.Point{X: 0, Y: -1}, LateralCost},
	{geom.Point{X: 1, Y: 1}, DiagonalCost},
	{geom.Point{X: -1, Y: 1}, DiagonalCost},
	{geom.Point{X: 1, Y: -1}, DiagonalCost},
	{geom.Point{X: -1, Y: -1}, DiagonalCost},
}

// StepCost is the cost of moving between two adjacent tiles
func StepCost(from, to geom.Point) float64 {
	if from.X != to.X && from.Y != to.Y {
		return DiagonalCost
	}
	return LateralCost
}
