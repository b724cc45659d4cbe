package core

import "github.com/dkeye/Lobby/internal/domain"

// actorPool hands out per-room actor ids. Slot i is taken iff used[i];
// Acquire always returns the lowest free one, so ids are reused.
type actorPool struct {
	used []bool
}

func newActorPool(capacity int) *actorPool {
	return &actorPool{used: make([]bool, capacity+1)}
}

func (p *actorPool) Acquire() (domain.ActorID, bool) {
	for i := 1; i < len(p.used); i++ {
		if !p.used[i] {
			p.used[i] = true
			return domain.ActorID(i), true
		}
	}
	return domain.NoActor, false
}

func (p *actorPool) Release(id domain.ActorID) {
	if id > domain.NoActor && int(id) < len(p.used) {
		p.used[id] = false
	}
}
