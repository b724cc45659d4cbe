package orch

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Orchestrator coordinates membership: it is the only writer of both the
// session registry and the room registry. Every call names the session it
// acts for; nothing is read from ambient state.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	// DefaultMaxPlayers is the capacity of rooms created when a random
	// join finds nothing.
	DefaultMaxPlayers int

	publishedGen atomic.Uint64
}

func (o *Orchestrator) defaultMaxPlayers() int {
	if o.DefaultMaxPlayers == 0 {
		return domain.DefaultCapacity
	}
	return o.DefaultMaxPlayers
}

// notify sends ev straight to one session.
func (o *Orchestrator) notify(sid core.SessionID, ev core.Event) {
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return
	}
	o.notifyConn(sid, conn, ev)
}

func (o *Orchestrator) notifyConn(sid core.SessionID, conn core.SignalConnection, ev core.Event) {
	if err := core.Send(conn, ev); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("event", string(ev.Type)).Msg("notify failed")
		o.onBackPressure(nil, sid, domain.NoActor)
	}
}

func (o *Orchestrator) notifyState(sid core.SessionID, state core.ConnState) {
	o.notify(sid, core.Event{Type: core.EventConnectionState, State: state})
}

// handlePublish applies the back-pressure policy to whoever missed a fan-out.
func (o *Orchestrator) handlePublish(room core.RoomService, res core.PublishResult) {
	for _, slow := range res.Dropped {
		o.onBackPressure(room, slow.SID(), slow.Meta().ID)
	}
}

func (o *Orchestrator) onBackPressure(room core.RoomService, sid core.SessionID, actor domain.ActorID) {
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(room, sid) {
	case app.KickMember:
		ev := log.Warn().Str("module", "orch").Str("sid", string(sid))
		if room != nil {
			ev = ev.Str("room", string(room.Room().Name)).Int("actor", int(actor))
		}
		ev.Msg("kicking slow session")
		o.Registry.Cancel(sid)
	case app.DropEvent, app.NoAction:
	}
}
