package orch

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/core/coretest"
	"github.com/dkeye/Lobby/internal/domain"
)

type testClient struct {
	*Client
	rec      *coretest.Recorder
	canceled bool
}

func newOrch() *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.SimplePolicy{Action: app.KickMember},
	}
}

func connect(t *testing.T, o *Orchestrator, name string) *testClient {
	t.Helper()
	tc := &testClient{rec: coretest.NewRecorder()}
	tc.Client = NewClient(o, core.SessionID("sid-"+name), tc.rec, func() { tc.canceled = true })
	require.NoError(t, tc.Connect(name))
	return tc
}

func members(t *testing.T, o *Orchestrator, room string) []core.MemberDTO {
	t.Helper()
	r, ok := o.Rooms.GetRoom(domain.RoomName(room))
	require.True(t, ok, "room %s exists", room)
	return r.MembersSnapshot()
}

func TestConnectEvents(t *testing.T) {
	o := newOrch()
	a := connect(t, o, "alice")

	assert.Equal(t, []core.EventType{
		core.EventConnected,
		core.EventConnectedToMaster,
		core.EventConnectionState,
	}, a.rec.Types())
	ev, _ := a.rec.Last(core.EventConnectedToMaster)
	assert.Equal(t, "alice", ev.Username)
	assert.Equal(t, core.StateConnected, a.State())

	assert.ErrorIs(t, a.Connect("alice"), domain.ErrAlreadyConnected)

	b := NewClient(o, "sid-empty", coretest.NewRecorder(), nil)
	assert.ErrorIs(t, b.Connect("  "), domain.ErrUsernameEmpty)
	assert.Equal(t, core.StateDisconnected, b.State())
}

func TestOperationsRequireConnect(t *testing.T) {
	o := newOrch()
	c := NewClient(o, "ghost", coretest.NewRecorder(), nil)

	assert.ErrorIs(t, c.CreateRoom("Alpha", 2, nil), domain.ErrNotConnected)
	assert.ErrorIs(t, c.JoinRoom("Alpha"), domain.ErrNotConnected)
	assert.ErrorIs(t, c.JoinRandomRoom(), domain.ErrNotConnected)
	assert.ErrorIs(t, c.SubscribeLobby(), domain.ErrNotConnected)
	assert.ErrorIs(t, c.LeaveRoom(), domain.ErrNotInRoom)
	assert.False(t, c.RequestStart())
}

func TestAlphaScenario(t *testing.T) {
	o := newOrch()
	a, b, c := connect(t, o, "A"), connect(t, o, "B"), connect(t, o, "C")

	require.NoError(t, a.CreateRoom("Alpha", 2, nil))
	created, ok := a.rec.Last(core.EventRoomCreated)
	require.True(t, ok)
	assert.Equal(t, domain.RoomName("Alpha"), created.Room)
	joined, ok := a.rec.Last(core.EventJoinedRoom)
	require.True(t, ok)
	require.Len(t, joined.Members, 1)
	assert.True(t, joined.Members[0].IsMaster)
	assert.True(t, joined.Members[0].IsLocal)

	require.NoError(t, b.JoinRoom("Alpha"))
	err := c.JoinRoom("Alpha")
	assert.ErrorIs(t, err, domain.ErrRoomFull)
	assert.Equal(t, core.StateConnected, c.State())

	ms := members(t, o, "Alpha")
	require.Len(t, ms, 2)
	assert.True(t, ms[0].IsMaster)
	assert.Equal(t, "A", ms[0].Name)
}

func TestBetaScenario(t *testing.T) {
	o := newOrch()
	a, b := connect(t, o, "A"), connect(t, o, "B")
	require.NoError(t, a.CreateRoom("Beta", 4, nil))
	require.NoError(t, b.JoinRoom("Beta"))

	require.NoError(t, a.LeaveRoom())
	assert.Equal(t, core.StateConnected, a.State())
	_, ok := a.rec.Last(core.EventLeftRoom)
	assert.True(t, ok)

	ms := members(t, o, "Beta")
	require.Len(t, ms, 1)
	assert.Equal(t, "B", ms[0].Name)
	assert.True(t, ms[0].IsMaster)
	sw, ok := b.rec.Last(core.EventMasterSwitched)
	require.True(t, ok)
	assert.Equal(t, ms[0].ID, sw.MemberID)

	require.NoError(t, b.LeaveRoom())
	_, ok = o.Rooms.GetRoom("Beta")
	assert.False(t, ok, "room is gone with its last member")
	assert.Zero(t, o.Rooms.Len())
}

func TestJoinUnknownRoom(t *testing.T) {
	o := newOrch()
	a := connect(t, o, "A")
	assert.ErrorIs(t, a.JoinRoom("nope"), domain.ErrRoomNotFound)
}

func TestCannotJoinTwoRooms(t *testing.T) {
	o := newOrch()
	a := connect(t, o, "A")
	require.NoError(t, a.CreateRoom("One", 4, nil))
	assert.ErrorIs(t, a.CreateRoom("Two", 4, nil), domain.ErrAlreadyInRoom)
	_, ok := o.Rooms.GetRoom("Two")
	assert.False(t, ok)
}

func TestCreateRoomNameTaken(t *testing.T) {
	o := newOrch()
	a, b := connect(t, o, "A"), connect(t, o, "B")
	require.NoError(t, a.CreateRoom("Alpha", 4, nil))
	assert.ErrorIs(t, b.CreateRoom("Alpha", 4, nil), domain.ErrNameTaken)
	assert.ErrorIs(t, b.CreateRoom("Other", 0, nil), domain.ErrInvalidCapacity)
}

func TestCreateRoomGeneratesName(t *testing.T) {
	o := newOrch()
	a := connect(t, o, "A")
	require.NoError(t, a.CreateRoom("", 4, nil))
	assert.True(t, strings.HasPrefix(string(a.Room()), "Room "))
}

func TestJoinRandomFallsBackToCreate(t *testing.T) {
	o := newOrch()
	a := connect(t, o, "A")

	require.NoError(t, a.JoinRandomRoom())

	failed, ok := a.rec.Last(core.EventJoinRandomFailed)
	require.True(t, ok)
	assert.Equal(t, "no_open_rooms_found", failed.Reason)

	joined, ok := a.rec.Last(core.EventJoinedRoom)
	require.True(t, ok)
	assert.Equal(t, 20, joined.MaxPlayers)
	assert.True(t, strings.HasPrefix(string(joined.Room), "Room "))
	assert.Equal(t, core.StateInRoom, a.State())
}

func TestJoinRandomCoordinatorFailsFast(t *testing.T) {
	o := newOrch()
	a := connect(t, o, "A")
	_, err := o.JoinRandom(a.SID())
	assert.ErrorIs(t, err, domain.ErrNoOpenRoomsFound)
	assert.Zero(t, o.Rooms.Len(), "coordinator itself never creates")
}

func TestJoinRandomPicksEligibleRoom(t *testing.T) {
	o := newOrch()
	host, other, closer, hider := connect(t, o, "H"), connect(t, o, "O"), connect(t, o, "C"), connect(t, o, "V")
	require.NoError(t, host.CreateRoom("Open", 4, nil))
	require.NoError(t, closer.CreateRoom("Closed", 4, nil))
	require.NoError(t, hider.CreateRoom("Hidden", 4, nil))
	require.True(t, closer.SetRoomOpen(false))
	require.True(t, hider.SetRoomVisible(false))

	require.NoError(t, other.JoinRandomRoom())
	assert.Equal(t, domain.RoomName("Open"), other.Room())
	assert.Zero(t, other.rec.Count(core.EventJoinRandomFailed))
}

func TestStartOnlyForMaster(t *testing.T) {
	o := newOrch()
	a, b := connect(t, o, "A"), connect(t, o, "B")
	require.NoError(t, a.CreateRoom("Alpha", 4, nil))
	require.NoError(t, b.JoinRoom("Alpha"))

	assert.False(t, b.RequestStart())
	assert.Zero(t, a.rec.Count(core.EventGameStarted))
	assert.False(t, b.SetRoomOpen(false))

	assert.True(t, a.RequestStart())
	assert.Equal(t, 1, a.rec.Count(core.EventGameStarted))
	assert.Equal(t, 1, b.rec.Count(core.EventGameStarted))
}

func TestLobbySubscription(t *testing.T) {
	o := newOrch()
	host, watcher := connect(t, o, "H"), connect(t, o, "W")
	require.NoError(t, host.CreateRoom("Alpha", 4, nil))

	require.NoError(t, watcher.SubscribeLobby())
	assert.Equal(t, core.StateInLobby, watcher.State())
	first, ok := watcher.rec.Last(core.EventRoomListUpdated)
	require.True(t, ok)
	require.Len(t, first.Rooms.Added, 1)
	assert.Equal(t, domain.RoomName("Alpha"), first.Rooms.Added[0].Name)

	// Nothing changed: the tick stays quiet.
	o.PublishDirectory()
	watcher.rec.Reset()
	assert.Zero(t, o.PublishDirectory())
	assert.Empty(t, watcher.rec.Events())

	require.True(t, host.SetRoomVisible(false))
	assert.Equal(t, 1, o.PublishDirectory())
	diff, ok := watcher.rec.Last(core.EventRoomListUpdated)
	require.True(t, ok)
	assert.Equal(t, []domain.RoomName{"Alpha"}, diff.Rooms.Removed)

	// A subscriber inside a room is refused.
	assert.ErrorIs(t, host.SubscribeLobby(), domain.ErrAlreadyInRoom)
}

func TestLobbyResubscribeGetsFullList(t *testing.T) {
	o := newOrch()
	h1, h2, w := connect(t, o, "H1"), connect(t, o, "H2"), connect(t, o, "W")
	require.NoError(t, h1.CreateRoom("Alpha", 4, nil))
	require.NoError(t, w.SubscribeLobby())
	require.NoError(t, h2.CreateRoom("Beta", 4, nil))
	o.PublishDirectory()

	w.UnsubscribeLobby()
	_, ok := w.rec.Last(core.EventLeftLobby)
	assert.True(t, ok)
	assert.Equal(t, core.StateConnected, w.State())

	w.rec.Reset()
	require.NoError(t, w.SubscribeLobby())
	ev, ok := w.rec.Last(core.EventRoomListUpdated)
	require.True(t, ok)
	require.Len(t, ev.Rooms.Added, 2)
	assert.Empty(t, ev.Rooms.Updated)
	assert.Empty(t, ev.Rooms.Removed)
}

func TestJoiningRoomLeavesLobby(t *testing.T) {
	o := newOrch()
	h, w := connect(t, o, "H"), connect(t, o, "W")
	require.NoError(t, h.CreateRoom("Alpha", 4, nil))
	require.NoError(t, w.SubscribeLobby())

	require.NoError(t, w.JoinRoom("Alpha"))
	assert.Equal(t, core.StateInRoom, w.State())
	assert.Equal(t, 1, w.rec.Count(core.EventLeftLobby))
	assert.Empty(t, o.Registry.LobbySessions())
}

func TestDisconnectLeavesRoom(t *testing.T) {
	o := newOrch()
	a, b := connect(t, o, "A"), connect(t, o, "B")
	require.NoError(t, a.CreateRoom("Alpha", 4, nil))
	require.NoError(t, b.JoinRoom("Alpha"))

	a.Disconnect()
	assert.Equal(t, core.StateDisconnected, a.State())
	ms := members(t, o, "Alpha")
	require.Len(t, ms, 1)
	assert.True(t, ms[0].IsMaster)

	b.Disconnect()
	assert.Zero(t, o.Rooms.Len())
	assert.Zero(t, o.Registry.Len())

	// Disconnecting twice is harmless.
	b.Disconnect()
}

func TestSlowMemberIsKicked(t *testing.T) {
	o := newOrch()
	a, b := connect(t, o, "A"), connect(t, o, "B")
	require.NoError(t, a.CreateRoom("Alpha", 4, nil))

	a.rec.SetFull(true)
	require.NoError(t, b.JoinRoom("Alpha"))
	assert.True(t, a.canceled, "a missed player_entered")
	assert.False(t, b.canceled)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	o := newOrch()
	host := connect(t, o, "host")
	require.NoError(t, host.CreateRoom("Rush", 4, nil))

	clients := make([]*testClient, 30)
	for i := range clients {
		clients[i] = connect(t, o, fmt.Sprintf("p%d", i))
	}
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.JoinRoom("Rush")
		}()
	}
	wg.Wait()

	ms := members(t, o, "Rush")
	assert.Len(t, ms, 4)
	inRoom := 0
	for _, c := range clients {
		if c.State() == core.StateInRoom {
			inRoom++
		}
	}
	assert.Equal(t, 3, inRoom)
}
