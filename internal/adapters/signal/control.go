package signal

import "errors"

var (
	errBadPayload  = errors.New("bad payload")
	errUnknownType = errors.New("unknown message type")
	errRateLimited = errors.New("rate limited")
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
