package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/app/orch"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/dkeye/Lobby/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *RoomRateLimiter

	sendBuffer int
	readLimit  int64
	pingPeriod time.Duration
}

const (
	defaultSendBuffer = 64
	defaultPingPeriod = 54 * time.Second
)

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	ctl := &SignalWSController{
		Orch:       o,
		Limiter:    NewRoomRateLimiter(cfg.RateLimit, cfg.RateInterval),
		sendBuffer: cfg.SendBuffer,
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
	}
	if ctl.sendBuffer <= 0 {
		ctl.sendBuffer = defaultSendBuffer
	}
	if ctl.pingPeriod <= 0 {
		ctl.pingPeriod = defaultPingPeriod
	}
	return ctl
}

// WsSignalConn is the websocket side of core.SignalConnection.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// wsSession is what the pumps carry around for one connection.
type wsSession struct {
	client *orch.Client
	conn   *WsSignalConn
	// profile is the display name remembered in the cookie session.
	profile string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, profile string) {
	token := c.GetString("client_token")
	// One browser may hold several tabs, so the session id is per connection.
	sid := core.SessionID(token + "/" + uuid.NewString()[:8])
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.sendBuffer),
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &wsSession{
		client:  orch.NewClient(ctl.Orch, sid, conn, cancel),
		conn:    conn,
		profile: profile,
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, s)
}
