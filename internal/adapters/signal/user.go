package signal

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

func (ctl *SignalWSController) handleConnect(s *wsSession, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad connect payload")
		ctl.sendError(s.conn, errBadPayload)
		return
	}
	name := p.Name
	if name == "" {
		name = s.profile
	}
	log.Info().Str("module", "signal").Str("sid", string(s.client.SID())).Str("name", name).Msg("connect")
	if err := s.client.Connect(name); err != nil {
		ctl.sendError(s.conn, err)
	}
}

func (ctl *SignalWSController) handleWhoAmI(s *wsSession) {
	resp := struct {
		Type     string          `json:"type"`
		Username string          `json:"username,omitempty"`
		State    core.ConnState  `json:"state"`
		Room     domain.RoomName `json:"room,omitempty"`
	}{
		Type:  "whoami",
		State: s.client.State(),
		Room:  s.client.Room(),
	}
	if u := s.client.User(); u != nil {
		resp.Username = u.Username
	}
	ctl.sendJSON(s.conn, resp)
}

func (ctl *SignalWSController) handleJoinLobby(s *wsSession) {
	if err := s.client.SubscribeLobby(); err != nil {
		ctl.sendError(s.conn, err)
	}
}

func (ctl *SignalWSController) handleLeaveLobby(s *wsSession) {
	s.client.UnsubscribeLobby()
}
