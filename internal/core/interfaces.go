package core

import "github.com/dkeye/Lobby/internal/domain"

// Frame is a raw encoded payload (one event on the wire).
type Frame []byte

type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	SID() SessionID
	Meta() *domain.Member
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

func (p *PublishResult) merge(o PublishResult) {
	p.SendTo += o.SendTo
	p.Dropped = append(p.Dropped, o.Dropped...)
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.ActorID `json:"id"`
	Name     string         `json:"name"`
	IsLocal  bool           `json:"is_local"`
	IsMaster bool           `json:"is_master"`
}

// RoomInfo is a point-in-time view of a room as the directory sees it.
// Version changes on every mutation of the room.
type RoomInfo struct {
	Name        domain.RoomName   `json:"name"`
	PlayerCount int               `json:"player_count"`
	MaxPlayers  int               `json:"max_players"`
	Open        bool              `json:"open"`
	Visible     bool              `json:"visible"`
	Removed     bool              `json:"removed,omitempty"`
	Master      domain.ActorID    `json:"master,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Version     uint64            `json:"-"`
}

// Listed reports whether the room belongs in the public directory.
func (i RoomInfo) Listed() bool {
	return i.Open && i.Visible && !i.Removed
}

// Joinable reports whether a random join may pick this room.
func (i RoomInfo) Joinable() bool {
	return i.Listed() && i.PlayerCount < i.MaxPlayers
}

type JoinResult struct {
	Member    domain.Member
	Info      RoomInfo
	Published PublishResult
}

type LeaveResult struct {
	Member domain.Member
	// NewMaster is set when the leaving member held the master flag
	// and somebody is left to inherit it.
	NewMaster *domain.Member
	// Empty means the room is dead and must be dropped from the registry.
	Empty     bool
	Published PublishResult
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
// All mutations of one room are serialized.
type RoomService interface {
	Room() *domain.Room
	Info() RoomInfo
	MemberCount() int
	MembersSnapshot() []MemberDTO
	IsMaster(sid SessionID) bool

	Join(sid SessionID, user *domain.User, conn SignalConnection) (JoinResult, error)
	Leave(sid SessionID) (LeaveResult, error)
	Retire() bool
	SetOpen(open bool)
	SetVisible(visible bool)
	Broadcast(from SessionID, ev Event) PublishResult
}

// RoomManager is the room registry: the authoritative name -> room map.
type RoomManager interface {
	Create(name domain.RoomName, capacity int, props map[string]string) (RoomService, error)
	GetRoom(name domain.RoomName) (RoomService, bool)
	// Joinable returns rooms a random join may pick, in no particular order.
	Joinable() []RoomService
	Snapshot() []RoomInfo
	List() []RoomInfo
	RemoveIfEmpty(name domain.RoomName) bool
	Generation() uint64
	Len() int
}
