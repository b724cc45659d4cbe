package core

import (
	"maps"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
//
// Every mutation and every fan-out runs under mu (write lock), so the
// events of one room reach each member in the order they were generated.
type roomImpl struct {
	room     *domain.Room
	onChange func() uint64

	mu      sync.Mutex
	open    bool
	visible bool
	removed bool
	version uint64
	actors  *actorPool
	bySID   map[SessionID]*memberSession
	byActor map[domain.ActorID]*memberSession
}

// NewRoomService returns an open, visible, empty room. onChange is called
// (under the room lock) after every mutation and must not block; its result
// becomes the room version, so a registry-wide counter keeps versions unique
// across rooms that reuse a name.
func NewRoomService(room *domain.Room, onChange func() uint64) RoomService {
	return &roomImpl{
		room:     room,
		onChange: onChange,
		open:     true,
		visible:  true,
		actors:   newActorPool(room.Capacity),
		bySID:    make(map[SessionID]*memberSession),
		byActor:  make(map[domain.ActorID]*memberSession),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySID)
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked("")
}

func (r *roomImpl) IsMaster(sid SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[sid]
	return ok && ms.meta.Master
}

func (r *roomImpl) Join(sid SessionID, user *domain.User, conn SignalConnection) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.removed:
		return JoinResult{}, domain.ErrRoomNotFound
	case r.bySID[sid] != nil:
		return JoinResult{}, domain.ErrAlreadyInRoom
	case len(r.bySID) >= r.room.Capacity:
		return JoinResult{}, domain.ErrRoomFull
	case !r.open:
		return JoinResult{}, domain.ErrRoomClosed
	}
	id, ok := r.actors.Acquire()
	if !ok {
		return JoinResult{}, domain.ErrRoomFull
	}

	ms := &memberSession{
		sid:  sid,
		meta: &domain.Member{ID: id, User: user, Master: len(r.bySID) == 0},
		conn: conn,
	}
	r.bySID[sid] = ms
	r.byActor[id] = ms
	r.touch()

	res := JoinResult{Member: *ms.meta, Info: r.infoLocked()}
	res.Published.merge(r.sendLocked(ms, Event{Type: EventConnectionState, State: StateInRoom}))
	res.Published.merge(r.sendLocked(ms, Event{
		Type:        EventJoinedRoom,
		Room:        r.room.Name,
		Members:     r.membersLocked(sid),
		PlayerCount: len(r.bySID),
		MaxPlayers:  r.room.Capacity,
	}))
	entered := ms.dto("")
	res.Published.merge(r.broadcastLocked(sid, Event{
		Type:   EventPlayerEntered,
		Room:   r.room.Name,
		Member: &entered,
	}))

	log.Info().
		Str("module", "core.room").
		Str("room", string(r.room.Name)).
		Str("sid", string(sid)).
		Int("actor", int(id)).
		Bool("master", ms.meta.Master).
		Msg("member added")
	return res, nil
}

func (r *roomImpl) Leave(sid SessionID) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms, ok := r.bySID[sid]
	if !ok {
		return LeaveResult{}, domain.ErrNotInRoom
	}
	delete(r.bySID, sid)
	delete(r.byActor, ms.meta.ID)
	r.actors.Release(ms.meta.ID)

	res := LeaveResult{Member: *ms.meta}
	ms.meta.Master = false

	logger := log.With().
		Str("module", "core.room").
		Str("room", string(r.room.Name)).
		Str("sid", string(sid)).
		Int("actor", int(res.Member.ID)).
		Logger()

	if len(r.bySID) == 0 {
		r.removed = true
		r.touch()
		res.Empty = true
		logger.Info().Msg("last member removed, room is empty")
		return res, nil
	}

	if res.Member.Master {
		next := r.lowestLocked()
		next.meta.Master = true
		nm := *next.meta
		res.NewMaster = &nm
		logger.Info().Int("new_master", int(nm.ID)).Msg("master switched")
	}
	r.touch()

	res.Published.merge(r.broadcastLocked("", Event{
		Type:     EventPlayerLeft,
		Room:     r.room.Name,
		MemberID: res.Member.ID,
	}))
	if res.NewMaster != nil {
		dto := MemberDTO{ID: res.NewMaster.ID, Name: res.NewMaster.User.Username, IsMaster: true}
		res.Published.merge(r.broadcastLocked("", Event{
			Type:     EventMasterSwitched,
			Room:     r.room.Name,
			MemberID: dto.ID,
			Member:   &dto,
		}))
	}
	logger.Info().Msg("member removed")
	return res, nil
}

// Retire marks an empty room as removed so no late join can revive it.
func (r *roomImpl) Retire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bySID) > 0 {
		return false
	}
	if !r.removed {
		r.removed = true
		r.touch()
	}
	return true
}

func (r *roomImpl) SetOpen(open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open == open || r.removed {
		return
	}
	r.open = open
	r.touch()
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Bool("open", open).Msg("room open flag changed")
}

func (r *roomImpl) SetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visible == visible || r.removed {
		return
	}
	r.visible = visible
	r.touch()
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Bool("visible", visible).Msg("room visibility changed")
}

// Broadcast sends ev to every member except from. An empty from reaches everybody.
func (r *roomImpl) Broadcast(from SessionID, ev Event) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcastLocked(from, ev)
}

func (r *roomImpl) touch() {
	if r.onChange != nil {
		r.version = r.onChange()
		return
	}
	r.version++
}

func (r *roomImpl) infoLocked() RoomInfo {
	return RoomInfo{
		Name:        r.room.Name,
		PlayerCount: len(r.bySID),
		MaxPlayers:  r.room.Capacity,
		Open:        r.open,
		Visible:     r.visible,
		Removed:     r.removed,
		Master:      r.masterLocked(),
		Properties:  maps.Clone(r.room.Properties),
		Version:     r.version,
	}
}

// membersLocked lists members by ascending actor id; local marks the
// receiving session.
func (r *roomImpl) membersLocked(local SessionID) []MemberDTO {
	out := make([]MemberDTO, 0, len(r.bySID))
	for _, ms := range r.bySID {
		out = append(out, ms.dto(local))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *roomImpl) masterLocked() domain.ActorID {
	for id, ms := range r.byActor {
		if ms.meta.Master {
			return id
		}
	}
	return domain.NoActor
}

func (r *roomImpl) lowestLocked() *memberSession {
	var low *memberSession
	for id, ms := range r.byActor {
		if low == nil || id < low.meta.ID {
			low = ms
		}
	}
	return low
}

func (r *roomImpl) sendLocked(ms *memberSession, ev Event) PublishResult {
	res := PublishResult{}
	if err := Send(ms.conn, ev); err != nil {
		res.Dropped = append(res.Dropped, ms)
		return res
	}
	res.SendTo++
	return res
}

func (r *roomImpl) broadcastLocked(from SessionID, ev Event) PublishResult {
	res := PublishResult{}
	for sid, ms := range r.bySID {
		if sid == from {
			continue
		}
		res.merge(r.sendLocked(ms, ev))
	}
	log.Debug().
		Str("module", "core.room").
		Str("room", string(r.room.Name)).
		Str("event", string(ev.Type)).
		Int("sent_to", res.SendTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}
