package world

import (
	"gridwalk/internal/collision"
	"gridwalk/internal/movement"
)

// ActorTable is an arena of actors addressed by 1-based handles. Removed
// slots are reused, so a handle only identifies an actor while it is live.
type ActorTable struct {
	slots []movement.Actor
	free  []collision.Handle
	count int
}

func NewActorTable() *ActorTable {
	return &ActorTable{}
}

// Insert stores an actor and returns its handle
func (t *ActorTable) Insert(a movement.Actor) collision.Handle {
	t.count++
	if n := len(t.free); n > 0 {
		h := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[h-1] = a
		return h
	}
	t.slots = append(t.slots, a)
	return collision.Handle(len(t.slots))
}

// Remove drops the actor behind h
func (t *ActorTable) Remove(h collision.Handle) bool {
	if _, ok := t.Get(h); !ok {
		return false
	}
	t.slots[h-1] = nil
	t.free = append(t.free, h)
	t.count--
	return true
}

// Get returns the live actor behind h
func (t *ActorTable) Get(h collision.Handle) (movement.Actor, bool) {
	if h == collision.NoHandle || int(h) > len(t.slots) {
		return nil, false
	}
	a := t.slots[h-1]
	return a, a != nil
}

// Len returns the number of live actors
func (t *ActorTable) Len() int {
	return t.count
}

// Each visits live actors in handle order
func (t *ActorTable) Each(fn func(h collision.Handle, a movement.Actor)) {
	for i, a := range t.slots {
		if a != nil {
			fn(collision.Handle(i+1), a)
		}
	}
}

// Clear removes every actor
func (t *ActorTable) Clear() {
	t.slots = nil
	t.free = nil
	t.count = 0
}
