package app

import (
	"strings"

	"github.com/dkeye/Lobby/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropEvent
)

// Policy decides what happens to a session whose outbound buffer is full.
// room is nil when the event was not a room fan-out.
type Policy interface {
	OnBackPressure(room core.RoomService, sid core.SessionID) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(room core.RoomService, sid core.SessionID) BackpressureAction {
	return p.Action
}

// PolicyFromString maps the config value; anything unknown kicks.
func PolicyFromString(s string) Policy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop":
		return SimplePolicy{Action: DropEvent}
	case "none":
		return SimplePolicy{Action: NoAction}
	default:
		return SimplePolicy{Action: KickMember}
	}
}
