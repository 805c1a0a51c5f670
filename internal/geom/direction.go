package geom

// Direction is the facing of an actor. Sprites only exist for the four
// cardinal directions.
type Direction uint8

const (
	DirDown Direction = iota
	DirUp
	DirLeft
	DirRight
)

var directionNames = [...]string{"down", "up", "left", "right"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// Delta returns the unit offset for the direction (screen coordinates, +Y down)
func (d Direction) Delta() Point {
	switch d {
	case DirUp:
		return Point{X: 0, Y: -1}
	case DirDown:
		return Point{X: 0, Y: 1}
	case DirLeft:
		return Point{X: -1, Y: 0}
	case DirRight:
		return Point{X: 1, Y: 0}
	}
	return Point{}
}

// DirectionTo returns the facing used when stepping from one point towards
// another. When both axes differ the vertical axis wins, so a diagonal step
// faces up or down. The second result is false if the points are equal.
func DirectionTo(from, to Point) (Direction, bool) {
	switch {
	case to.Y < from.Y:
		return DirUp, true
	case to.Y > from.Y:
		return DirDown, true
	case to.X < from.X:
		return DirLeft, true
	case to.X > from.X:
		return DirRight, true
	}
	return DirDown, false
}

// ParseDirection maps a lowercase name back to a Direction
func ParseDirection(name string) (Direction, bool) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), true
		}
	}
	return DirDown, false
}
