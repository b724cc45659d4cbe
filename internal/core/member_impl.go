package core

import "github.com/dkeye/Lobby/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	sid  SessionID
	meta *domain.Member
	conn SignalConnection
}

func (m *memberSession) SID() SessionID       { return m.sid }
func (m *memberSession) Meta() *domain.Member { return m.meta }

func (m *memberSession) dto(local SessionID) MemberDTO {
	return MemberDTO{
		ID:       m.meta.ID,
		Name:     m.meta.User.Username,
		IsLocal:  m.sid == local,
		IsMaster: m.meta.Master,
	}
}
