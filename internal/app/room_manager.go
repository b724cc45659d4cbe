package app

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

const (
	genNameMin      = 1000
	genNameMax      = 9999
	genNameAttempts = 64
)

// RoomManagerImpl is the room registry. Name check-and-insert happens under
// one write lock; everything else about a room is the room's own business.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]core.RoomService
	gen   atomic.Uint64
	intn  func(n int) int
}

func NewRoomManager() core.RoomManager {
	return newRoomManager(rand.IntN)
}

func newRoomManager(intn func(n int) int) *RoomManagerImpl {
	return &RoomManagerImpl{
		rooms: make(map[domain.RoomName]core.RoomService),
		intn:  intn,
	}
}

// Create registers a new room. An empty name gets a generated "Room NNNN" one.
func (f *RoomManagerImpl) Create(name domain.RoomName, capacity int, props map[string]string) (core.RoomService, error) {
	if err := domain.ValidateCapacity(capacity); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if name == "" {
		generated, err := f.freeNameLocked()
		if err != nil {
			return nil, err
		}
		name = generated
	}
	if _, taken := f.rooms[name]; taken {
		return nil, fmt.Errorf("%w: %s", domain.ErrNameTaken, name)
	}
	meta, err := domain.NewRoom(name, capacity, props)
	if err != nil {
		return nil, err
	}
	room := core.NewRoomService(meta, f.bump)
	f.rooms[name] = room
	f.bump()

	log.Info().Str("module", "app.rooms").Str("room", string(name)).Int("capacity", capacity).Msg("room created")
	return room, nil
}

func (f *RoomManagerImpl) freeNameLocked() (domain.RoomName, error) {
	span := genNameMax - genNameMin + 1
	for range genNameAttempts {
		name := roomName(genNameMin + f.intn(span))
		if _, taken := f.rooms[name]; !taken {
			return name, nil
		}
	}
	// Crowded registry: fall back to a scan so we never report a false collision.
	for n := genNameMin; n <= genNameMax; n++ {
		if _, taken := f.rooms[roomName(n)]; !taken {
			return roomName(n), nil
		}
	}
	return "", fmt.Errorf("%w: generated names exhausted", domain.ErrNameTaken)
}

func roomName(n int) domain.RoomName {
	return domain.RoomName(fmt.Sprintf("Room %d", n))
}

func (f *RoomManagerImpl) GetRoom(name domain.RoomName) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	return room, ok
}

// Joinable returns the rooms a random join may try, shuffled.
func (f *RoomManagerImpl) Joinable() []core.RoomService {
	f.mu.RLock()
	out := make([]core.RoomService, 0, len(f.rooms))
	for _, r := range f.rooms {
		if r.Info().Joinable() {
			out = append(out, r)
		}
	}
	f.mu.RUnlock()
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Snapshot returns every registered room, listed or not.
func (f *RoomManagerImpl) Snapshot() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for _, r := range f.rooms {
		out = append(out, r.Info())
	}
	return out
}

// List returns the public directory sorted by name.
func (f *RoomManagerImpl) List() []core.RoomInfo {
	snap := f.Snapshot()
	out := snap[:0]
	for _, info := range snap {
		if info.Listed() {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RemoveIfEmpty drops the room once nobody is left in it.
func (f *RoomManagerImpl) RemoveIfEmpty(name domain.RoomName) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[name]
	if !ok || !room.Retire() {
		return false
	}
	delete(f.rooms, name)
	f.bump()
	log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room removed")
	return true
}

// Generation changes whenever any room is created, removed or mutated.
func (f *RoomManagerImpl) Generation() uint64 {
	return f.gen.Load()
}

func (f *RoomManagerImpl) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}

func (f *RoomManagerImpl) bump() uint64 {
	return f.gen.Add(1)
}
