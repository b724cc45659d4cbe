package orch

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Client is the per-connection facade the presentation side talks to.
// Calls on one Client are serialized; results arrive on conn as events.
type Client struct {
	mu     sync.Mutex
	o      *Orchestrator
	sid    core.SessionID
	conn   core.SignalConnection
	cancel context.CancelFunc
}

func NewClient(o *Orchestrator, sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) *Client {
	return &Client{o: o, sid: sid, conn: conn, cancel: cancel}
}

func (c *Client) SID() core.SessionID { return c.sid }

func (c *Client) Connect(displayName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.o.Connect(c.sid, displayName, c.conn, c.cancel)
	return err
}

// User is nil before Connect.
func (c *Client) User() *domain.User {
	u, _ := c.o.Registry.GetUser(c.sid)
	return u
}

func (c *Client) State() core.ConnState {
	return c.o.Registry.State(c.sid)
}

// Room returns the current room name, empty outside a room.
func (c *Client) Room() domain.RoomName {
	name, _ := c.o.Registry.RoomOf(c.sid)
	return name
}

func (c *Client) CreateRoom(name string, maxPlayers int, props map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.o.CreateRoom(c.sid, domain.RoomName(name), maxPlayers, props)
	return err
}

func (c *Client) JoinRoom(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.o.Join(c.sid, domain.RoomName(name))
	return err
}

// JoinRandomRoom joins any open room. When there is none it reports
// JoinRandomFailed and creates a room with a generated name instead.
func (c *Client) JoinRandomRoom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.o.JoinRandom(c.sid)
	if !errors.Is(err, domain.ErrNoOpenRoomsFound) {
		return err
	}
	c.o.notify(c.sid, core.Event{Type: core.EventJoinRandomFailed, Reason: domain.Reason(err)})
	log.Info().Str("module", "orch.client").Str("sid", string(c.sid)).Msg("no open rooms, creating one")
	_, err = c.o.CreateRoom(c.sid, "", c.o.defaultMaxPlayers(), nil)
	return err
}

func (c *Client) LeaveRoom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.o.Leave(c.sid)
}

func (c *Client) SubscribeLobby() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.o.SubscribeLobby(c.sid)
}

func (c *Client) UnsubscribeLobby() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.o.UnsubscribeLobby(c.sid)
}

// RequestStart reports whether the start went out; non-masters get false.
func (c *Client) RequestStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.o.Start(c.sid)
}

func (c *Client) SetRoomOpen(open bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.o.SetRoomOpen(c.sid, open)
}

func (c *Client) SetRoomVisible(visible bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.o.SetRoomVisible(c.sid, visible)
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.o.Disconnect(c.sid)
}
