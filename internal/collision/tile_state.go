package collision

import "fmt"

// OccupantKind is what currently holds a grid cell
type OccupantKind uint8

const (
	KindFree OccupantKind = iota
	KindObstacle
	KindActor
)

func (k OccupantKind) String() string {
	switch k {
	case KindFree:
		return "free"
	case KindObstacle:
		return "obstacle"
	case KindActor:
		return "actor"
	default:
		return "unknown"
	}
}

// Handle identifies an actor in the actor table. It is an index, not an owning
// reference: holding a Handle does not keep the actor alive and a stale
// handle may later be reused.
type Handle uint32

// NoHandle is the zero handle; it never names an actor
const NoHandle Handle = 0

// TileState is the value stored in every grid cell. Two states are the same
// occupant when they compare equal.
type TileState struct {
	Kind  OccupantKind
	Actor Handle // only meaningful when Kind == KindActor
}

var (
	// FreeTile is the state of an unoccupied cell
	FreeTile = TileState{Kind: KindFree}
	// ObstacleTile marks static map geometry and registered obstacles
	ObstacleTile = TileState{Kind: KindObstacle}
)

// ActorTile returns the state written by an actor holding a cell
func ActorTile(h Handle) TileState {
	return TileState{Kind: KindActor, Actor: h}
}

func (s TileState) IsFree() bool     { return s.Kind == KindFree }
func (s TileState) IsObstacle() bool { return s.Kind == KindObstacle }
func (s TileState) IsActor() bool    { return s.Kind == KindActor }

func (s TileState) String() string {
	if s.Kind == KindActor {
		return fmt.Sprintf("actor#%d", s.Actor)
	}
	return s.Kind.String()
}
