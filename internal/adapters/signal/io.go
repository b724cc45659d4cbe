package signal

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.pingPeriod * 10 / 9
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ping := time.NewTicker(ctl.pingPeriod)
	defer func() {
		ping.Stop()
		// Unblocks readPump, which then disconnects the session.
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, s *wsSession) {
	sid := s.client.SID()
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		s.client.Disconnect()
		ctl.Limiter.Forget(sid)
		cancel()
		s.conn.Close()
	}()

	s.conn.conn.SetReadLimit(ctl.readLimit)
	_ = s.conn.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	s.conn.conn.SetPongHandler(func(string) error {
		return s.conn.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := s.conn.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleSignal(s, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(s *wsSession, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(s.conn, errBadPayload)
		return
	}

	switch env.Type {
	case "connect":
		ctl.handleConnect(s, data)
	case "whoami":
		ctl.handleWhoAmI(s)
	case "ping":
		ctl.handlePing(s.conn)
	case "create_room":
		ctl.handleCreateRoom(s, data)
	case "join_room":
		ctl.handleJoin(s, data)
	case "join_random":
		ctl.handleJoinRandom(s)
	case "leave_room":
		ctl.handleLeave(s)
	case "join_lobby":
		ctl.handleJoinLobby(s)
	case "leave_lobby":
		ctl.handleLeaveLobby(s)
	case "start":
		ctl.handleStart(s)
	case "set_room_open":
		ctl.handleSetOpen(s, data)
	case "set_room_visible":
		ctl.handleSetVisible(s, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(s.conn, errUnknownType)
	}
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c core.SignalConnection, err error) {
	ctl.sendJSON(c, core.Event{Type: core.EventError, Error: reason(err)})
}

func reason(err error) string {
	switch err {
	case errBadPayload:
		return "bad_payload"
	case errUnknownType:
		return "unknown_type"
	case errRateLimited:
		return "rate_limited"
	}
	return domain.Reason(err)
}
