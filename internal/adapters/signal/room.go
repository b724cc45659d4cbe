package signal

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/domain"
)

// parseMaxPlayers accepts 4 as well as "4": typed-in forms send strings.
func parseMaxPlayers(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, domain.ErrInvalidCapacity
	}
	s := string(raw)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	return domain.ParseCapacity(s)
}

func (ctl *SignalWSController) allow(s *wsSession) bool {
	if ctl.Limiter.Allow(s.client.SID()) {
		return true
	}
	log.Warn().Str("module", "signal").Str("sid", string(s.client.SID())).Msg("rate limited")
	ctl.sendError(s.conn, errRateLimited)
	return false
}

func (ctl *SignalWSController) handleCreateRoom(s *wsSession, data []byte) {
	var p struct {
		Type       string            `json:"type"`
		Name       string            `json:"name"`
		MaxPlayers json.RawMessage   `json:"max_players"`
		Properties map[string]string `json:"properties,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create_room payload")
		ctl.sendError(s.conn, errBadPayload)
		return
	}
	if !ctl.allow(s) {
		return
	}
	capacity, err := parseMaxPlayers(p.MaxPlayers)
	if err != nil {
		ctl.sendError(s.conn, err)
		return
	}
	if err := s.client.CreateRoom(p.Name, capacity, p.Properties); err != nil {
		ctl.sendError(s.conn, err)
	}
}

func (ctl *SignalWSController) handleJoin(s *wsSession, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(s.conn, errBadPayload)
		return
	}
	if !ctl.allow(s) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(s.client.SID())).Str("room", p.Room).Msg("join")
	if err := s.client.JoinRoom(p.Room); err != nil {
		ctl.sendError(s.conn, err)
	}
}

func (ctl *SignalWSController) handleJoinRandom(s *wsSession) {
	if !ctl.allow(s) {
		return
	}
	if err := s.client.JoinRandomRoom(); err != nil {
		ctl.sendError(s.conn, err)
	}
}

// handleLeave leaves the current room; the connection stays up.
func (ctl *SignalWSController) handleLeave(s *wsSession) {
	log.Info().Str("module", "signal").Str("sid", string(s.client.SID())).Msg("leave")
	if err := s.client.LeaveRoom(); err != nil {
		ctl.sendError(s.conn, err)
	}
}

func (ctl *SignalWSController) handleStart(s *wsSession) {
	s.client.RequestStart()
}

func (ctl *SignalWSController) handleSetOpen(s *wsSession, data []byte) {
	var p struct {
		Open bool `json:"open"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(s.conn, errBadPayload)
		return
	}
	s.client.SetRoomOpen(p.Open)
}

func (ctl *SignalWSController) handleSetVisible(s *wsSession, data []byte) {
	var p struct {
		Visible bool `json:"visible"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(s.conn, errBadPayload)
		return
	}
	s.client.SetRoomVisible(p.Visible)
}
