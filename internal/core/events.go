package core

import (
	"github.com/goccy/go-json"

	"github.com/dkeye/Lobby/internal/domain"
)

type EventType string

const (
	EventConnected         EventType = "connected"
	EventConnectedToMaster EventType = "connected_to_master"
	EventConnectionState   EventType = "connection_state_changed"
	EventRoomCreated       EventType = "room_created"
	EventJoinedRoom        EventType = "joined_room"
	EventJoinedLobby       EventType = "joined_lobby"
	EventLeftLobby         EventType = "left_lobby"
	EventRoomListUpdated   EventType = "room_list_updated"
	EventPlayerEntered     EventType = "player_entered"
	EventPlayerLeft        EventType = "player_left"
	EventMasterSwitched    EventType = "master_switched"
	EventLeftRoom          EventType = "left_room"
	EventJoinRandomFailed  EventType = "join_random_failed"
	EventGameStarted       EventType = "game_started"
	EventError             EventType = "error"
)

// ConnState is the per-session state pushed with EventConnectionState.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnected    ConnState = "connected"
	StateInLobby      ConnState = "in_lobby"
	StateInRoom       ConnState = "in_room"
)

// RoomListDiff is the directory delta for one lobby subscriber.
type RoomListDiff struct {
	Added   []RoomInfo        `json:"added"`
	Updated []RoomInfo        `json:"updated"`
	Removed []domain.RoomName `json:"removed"`
}

func (d RoomListDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Event is one entry of the outbound stream. Only the fields relevant
// to Type are set.
type Event struct {
	Type        EventType       `json:"type"`
	State       ConnState       `json:"state,omitempty"`
	Username    string          `json:"username,omitempty"`
	Room        domain.RoomName `json:"room,omitempty"`
	Members     []MemberDTO     `json:"members,omitempty"`
	PlayerCount int             `json:"player_count,omitempty"`
	MaxPlayers  int             `json:"max_players,omitempty"`
	Member      *MemberDTO      `json:"member,omitempty"`
	MemberID    domain.ActorID  `json:"member_id,omitempty"`
	Rooms       *RoomListDiff   `json:"rooms,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func Encode(ev Event) (Frame, error) {
	return json.Marshal(ev)
}

func Decode(f Frame) (Event, error) {
	var ev Event
	err := json.Unmarshal(f, &ev)
	return ev, err
}

// Send encodes ev and hands it to conn without blocking.
func Send(conn SignalConnection, ev Event) error {
	f, err := Encode(ev)
	if err != nil {
		return err
	}
	return conn.TrySend(f)
}
