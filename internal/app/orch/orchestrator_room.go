package orch

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Connect registers the session under a display name.
func (o *Orchestrator) Connect(sid core.SessionID, name string, conn core.SignalConnection, cancel func()) (*domain.User, error) {
	user, err := domain.NewUser(name)
	if err != nil {
		return nil, err
	}
	if err := o.Registry.Bind(sid, user, conn, cancel); err != nil {
		return nil, err
	}
	o.notify(sid, core.Event{Type: core.EventConnected})
	o.notify(sid, core.Event{Type: core.EventConnectedToMaster, Username: user.Username})
	o.notifyState(sid, core.StateConnected)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("username", user.Username).Msg("connected")
	return user, nil
}

// CreateRoom registers a room and puts the creator in it as master.
// An empty name is generated by the registry.
func (o *Orchestrator) CreateRoom(sid core.SessionID, name domain.RoomName, capacity int, props map[string]string) (core.RoomService, error) {
	if err := o.canJoin(sid); err != nil {
		return nil, err
	}
	room, err := o.Rooms.Create(name, capacity, props)
	if err != nil {
		return nil, err
	}
	o.notify(sid, core.Event{Type: core.EventRoomCreated, Room: room.Room().Name})
	if err := o.join(sid, room); err != nil {
		o.Rooms.RemoveIfEmpty(room.Room().Name)
		return nil, err
	}
	return room, nil
}

// Join puts the session into the named room.
func (o *Orchestrator) Join(sid core.SessionID, name domain.RoomName) (core.RoomService, error) {
	if err := o.canJoin(sid); err != nil {
		return nil, err
	}
	room, ok := o.Rooms.GetRoom(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, name)
	}
	if err := o.join(sid, room); err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRandom tries every open, listed room with spare seats and gives up
// immediately with ErrNoOpenRoomsFound when none takes the session.
func (o *Orchestrator) JoinRandom(sid core.SessionID) (core.RoomService, error) {
	if err := o.canJoin(sid); err != nil {
		return nil, err
	}
	for _, room := range o.Rooms.Joinable() {
		err := o.join(sid, room)
		if err == nil {
			return room, nil
		}
		if !lostRace(err) {
			return nil, err
		}
	}
	return nil, domain.ErrNoOpenRoomsFound
}

// lostRace reports errors meaning the candidate changed after it was picked.
func lostRace(err error) bool {
	return errors.Is(err, domain.ErrRoomFull) ||
		errors.Is(err, domain.ErrRoomClosed) ||
		errors.Is(err, domain.ErrRoomNotFound)
}

func (o *Orchestrator) canJoin(sid core.SessionID) error {
	switch o.Registry.State(sid) {
	case core.StateDisconnected:
		return domain.ErrNotConnected
	case core.StateInRoom:
		return domain.ErrAlreadyInRoom
	}
	return nil
}

func (o *Orchestrator) join(sid core.SessionID, room core.RoomService) error {
	user, ok := o.Registry.GetUser(sid)
	if !ok {
		return domain.ErrNotConnected
	}
	conn, _ := o.Registry.Conn(sid)

	// Entering a room always ends the lobby subscription.
	o.UnsubscribeLobby(sid)

	res, err := room.Join(sid, user, conn)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Room().Name)).Msg("join rejected")
		return err
	}
	// The in_room state event went out with the room's own fan-out.
	o.Registry.UpdateRoom(sid, room.Room().Name)
	o.handlePublish(room, res.Published)
	return nil
}

// Leave takes the session out of its room. The room disappears with its
// last member.
func (o *Orchestrator) Leave(sid core.SessionID) error {
	name, ok := o.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	o.Registry.RemoveRoom(sid)

	room, ok := o.Rooms.GetRoom(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, name)
	}
	res, err := room.Leave(sid)
	if err != nil {
		return err
	}
	if res.Empty {
		o.Rooms.RemoveIfEmpty(name)
	}
	o.notify(sid, core.Event{Type: core.EventLeftRoom, Room: name})
	o.notifyState(sid, core.StateConnected)
	o.handlePublish(room, res.Published)
	return nil
}

// Disconnect is an immediate leave plus unsubscribe; there is no grace period.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	if _, ok := o.Registry.RoomOf(sid); ok {
		if err := o.Leave(sid); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("leave on disconnect")
		}
	}
	if o.Registry.State(sid) == core.StateDisconnected {
		return
	}
	o.Registry.LeaveLobby(sid)
	o.notifyState(sid, core.StateDisconnected)
	o.Registry.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}

// masterRoom returns the caller's room if the caller holds its master flag.
func (o *Orchestrator) masterRoom(sid core.SessionID) (core.RoomService, bool) {
	name, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, false
	}
	room, ok := o.Rooms.GetRoom(name)
	if !ok || !room.IsMaster(sid) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("not master, ignored")
		return nil, false
	}
	return room, true
}

// Start tells everyone in the caller's room the game begins. Only the master
// may do it; for anybody else it is a silent no-op.
func (o *Orchestrator) Start(sid core.SessionID) bool {
	room, ok := o.masterRoom(sid)
	if !ok {
		return false
	}
	res := room.Broadcast("", core.Event{Type: core.EventGameStarted, Room: room.Room().Name})
	o.handlePublish(room, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Room().Name)).Msg("game started")
	return true
}

// SetRoomOpen lets the master close its room to new joins (or reopen it).
func (o *Orchestrator) SetRoomOpen(sid core.SessionID, open bool) bool {
	room, ok := o.masterRoom(sid)
	if !ok {
		return false
	}
	room.SetOpen(open)
	return true
}

// SetRoomVisible lets the master hide its room from the directory.
func (o *Orchestrator) SetRoomVisible(sid core.SessionID, visible bool) bool {
	room, ok := o.masterRoom(sid)
	if !ok {
		return false
	}
	room.SetVisible(visible)
	return true
}

// CloseRoom closes a room for new joins on behalf of an operator.
func (o *Orchestrator) CloseRoom(name domain.RoomName) error {
	room, ok := o.Rooms.GetRoom(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, name)
	}
	room.SetOpen(false)
	return nil
}

// MarkVisible lists or unlists a room on behalf of an operator.
func (o *Orchestrator) MarkVisible(name domain.RoomName, visible bool) error {
	room, ok := o.Rooms.GetRoom(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, name)
	}
	room.SetVisible(visible)
	return nil
}
