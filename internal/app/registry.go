package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/app/directory"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

type sessionEntry struct {
	User     *domain.User
	Conn     core.SignalConnection
	State    core.ConnState
	RoomName domain.RoomName
	Lobby    *directory.Cache
	Cancel   context.CancelFunc
}

// Registry tracks connected sessions: who they are, where they are and
// whether they listen to the lobby.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// Bind registers a connected session.
func (r *Registry) Bind(sid core.SessionID, user *domain.User, conn core.SignalConnection, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; ok {
		return domain.ErrAlreadyConnected
	}
	r.sessions[sid] = &sessionEntry{
		User:   user,
		Conn:   conn,
		State:  core.StateConnected,
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", user.Username).Msg("bound session")
	return nil
}

// Unbind forgets the session and closes its lobby cache, if any.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	var cache *directory.Cache
	if e, ok := r.sessions[sid]; ok {
		cache = e.Lobby
	}
	delete(r.sessions, sid)
	r.mu.Unlock()

	// Caches are closed outside r.mu: a cache sync may call back into the registry.
	if cache != nil {
		cache.Close()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) GetUser(sid core.SessionID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.User, true
	}
	return nil, false
}

func (r *Registry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// State is StateDisconnected for unknown sessions.
func (r *Registry) State(sid core.SessionID) core.ConnState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.State
	}
	return core.StateDisconnected
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomName == "" {
		return "", false
	}
	return entry.RoomName, true
}

// UpdateRoom moves the session into a room.
func (r *Registry) UpdateRoom(sid core.SessionID, name domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.RoomName = name
	entry.State = core.StateInRoom
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(name)).Msg("updated room")
	return true
}

func (r *Registry) RemoveRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sid]; ok {
		entry.RoomName = ""
		entry.State = core.StateConnected
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed room association")
}

// EnterLobby attaches a fresh directory cache. Sessions inside a room may
// not subscribe.
func (r *Registry) EnterLobby(sid core.SessionID) (*directory.Cache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, domain.ErrNotConnected
	}
	if e.RoomName != "" {
		return nil, domain.ErrAlreadyInRoom
	}
	if e.Lobby == nil {
		e.Lobby = directory.NewCache()
		e.State = core.StateInLobby
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("entered lobby")
	}
	return e.Lobby, nil
}

// LeaveLobby closes the session's cache. It reports whether the session was
// subscribed.
func (r *Registry) LeaveLobby(sid core.SessionID) bool {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	if !ok || e.Lobby == nil {
		r.mu.Unlock()
		return false
	}
	cache := e.Lobby
	e.Lobby = nil
	if e.State == core.StateInLobby {
		e.State = core.StateConnected
	}
	r.mu.Unlock()

	cache.Close()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("left lobby")
	return true
}

type lobbySnap struct {
	SID   core.SessionID
	Conn  core.SignalConnection
	Cache *directory.Cache
}

func (r *Registry) LobbySessions() []lobbySnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]lobbySnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.Lobby != nil {
			out = append(out, lobbySnap{SID: sid, Conn: e.Conn, Cache: e.Lobby})
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel tears down the session's transport; the adapter then disconnects it.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
