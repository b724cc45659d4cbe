package orch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
)

// SubscribeLobby starts directory updates for the session and sends the
// full current list right away.
func (o *Orchestrator) SubscribeLobby(sid core.SessionID) error {
	if o.Registry.State(sid) == core.StateInLobby {
		return nil
	}
	cache, err := o.Registry.EnterLobby(sid)
	if err != nil {
		return err
	}
	conn, _ := o.Registry.Conn(sid)
	o.notify(sid, core.Event{Type: core.EventJoinedLobby})
	o.notifyState(sid, core.StateInLobby)
	cache.Sync(o.Rooms.Snapshot(), func(diff core.RoomListDiff) {
		o.notifyConn(sid, conn, core.Event{Type: core.EventRoomListUpdated, Rooms: &diff})
	})
	return nil
}

// UnsubscribeLobby stops directory updates and drops the session's cache.
// Not being subscribed is fine.
func (o *Orchestrator) UnsubscribeLobby(sid core.SessionID) {
	if !o.Registry.LeaveLobby(sid) {
		return
	}
	o.notify(sid, core.Event{Type: core.EventLeftLobby})
	o.notifyState(sid, core.StateConnected)
}

// PublishDirectory pushes a diff to every lobby subscriber whose view is
// stale. It does nothing while the registry is unchanged.
func (o *Orchestrator) PublishDirectory() int {
	gen := o.Rooms.Generation()
	if o.publishedGen.Load() == gen {
		return 0
	}
	snapshot := o.Rooms.Snapshot()
	sent := 0
	for _, s := range o.Registry.LobbySessions() {
		s.Cache.Sync(snapshot, func(diff core.RoomListDiff) {
			if diff.Empty() {
				return
			}
			o.notifyConn(s.SID, s.Conn, core.Event{Type: core.EventRoomListUpdated, Rooms: &diff})
			sent++
		})
	}
	o.publishedGen.Store(gen)
	if sent > 0 {
		log.Debug().Str("module", "orch.lobby").Uint64("gen", gen).Int("sent_to", sent).Msg("directory published")
	}
	return sent
}

// RunDirectory publishes on every tick until ctx is done.
func (o *Orchestrator) RunDirectory(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	log.Info().Str("module", "orch.lobby").Dur("tick", tick).Msg("directory loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.lobby").Msg("directory loop stopped")
			return
		case <-t.C:
			o.PublishDirectory()
		}
	}
}
