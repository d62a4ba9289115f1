package session

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/catanclient/events"
	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/network"
)

func init() {
	logger.Init()
}

// fakeConn records outbound frames and serves scripted inbound ones. A
// join for stallOn blocks until stallGate closes, for races against a
// slow write.
type fakeConn struct {
	mutex   sync.Mutex
	sent    []network.Frame
	inbound chan *network.Frame
	closed  chan struct{}
	once    sync.Once

	stallOn   string
	stalled   chan struct{}
	stallGate chan struct{}
	stallOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan *network.Frame, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) SendFrame(frame network.Frame) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	if c.stallGate != nil && frame.Event == network.EventRoomJoin && frame.Room == c.stallOn {
		c.stallOnce.Do(func() { close(c.stalled) })
		<-c.stallGate
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sent = append(c.sent, frame)
	return nil
}

func (c *fakeConn) ReadFrame() (*network.Frame, error) {
	select {
	case frame := <-c.inbound:
		return frame, nil
	case <-c.closed:
		return nil, errors.New("connection closed")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (c *fakeConn) SetPingPeriod(interval time.Duration) {}

// drop simulates a transport failure.
func (c *fakeConn) drop() { c.Close() }

func (c *fakeConn) frames() []network.Frame {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := make([]network.Frame, len(c.sent))
	copy(out, c.sent)
	return out
}

// fakeDialer hands out one fakeConn per attempt. prepare, when set, is
// applied to the next dialed conn only.
type fakeDialer struct {
	mutex   sync.Mutex
	conns   []*fakeConn
	prepare func(*fakeConn)
}

func (d *fakeDialer) Dial(ctx context.Context, url, accessToken string) (network.Conn, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	conn := newFakeConn()
	if d.prepare != nil {
		d.prepare(conn)
		d.prepare = nil
	}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) onDial(fn func(*fakeConn)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.prepare = fn
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func (d *fakeDialer) dials() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.conns)
}

func newTestSession(dialer network.Dialer) *Session {
	return NewSession(Config{
		URL:               "ws://test/ws",
		Namespace:         "catan",
		ReconnectInterval: 10 * time.Millisecond,
	}, dialer, func() string { return "token" }, events.NewDispatcher(), nil)
}

func waitConnected(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State() == StateConnected
	}, time.Second, time.Millisecond)
}

func TestConnectHandshakesNamespace(t *testing.T) {
	dialer := &fakeDialer{}
	sess := newTestSession(dialer)
	defer sess.Close()

	var connectedFlags []bool
	var mu sync.Mutex
	sess.OnConnected(func(reconnected bool) {
		mu.Lock()
		connectedFlags = append(connectedFlags, reconnected)
		mu.Unlock()
	})

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)

	frames := dialer.conn(0).frames()
	require.NotEmpty(t, frames)
	assert.Equal(t, network.EventNamespaceConnect, frames[0].Event)
	assert.Equal(t, "catan", frames[0].Namespace)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, connectedFlags, 1)
	assert.False(t, connectedFlags[0], "first connect is not a reconnect")
}

func TestConnectTwiceFails(t *testing.T) {
	sess := newTestSession(&fakeDialer{})
	defer sess.Close()

	require.NoError(t, sess.Connect(context.Background()))
	assert.ErrorIs(t, sess.Connect(context.Background()), ErrAlreadyStarted)
}

func TestSwitchRoomLeavesBeforeJoining(t *testing.T) {
	dialer := &fakeDialer{}
	sess := newTestSession(dialer)
	defer sess.Close()

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)

	require.NoError(t, sess.SwitchRoom("g1"))
	assert.Equal(t, "g1", sess.CurrentRoom())

	require.NoError(t, sess.SwitchRoom("g2"))
	assert.Equal(t, "g2", sess.CurrentRoom())

	var roomFrames []network.Frame
	for _, frame := range dialer.conn(0).frames() {
		if frame.Event == network.EventRoomJoin || frame.Event == network.EventRoomLeave {
			roomFrames = append(roomFrames, frame)
		}
	}

	require.Len(t, roomFrames, 3)
	assert.Equal(t, network.EventRoomJoin, roomFrames[0].Event)
	assert.Equal(t, "g1", roomFrames[0].Room)
	// The leave for g1 goes out strictly before the join for g2.
	assert.Equal(t, network.EventRoomLeave, roomFrames[1].Event)
	assert.Equal(t, "g1", roomFrames[1].Room)
	assert.Equal(t, network.EventRoomJoin, roomFrames[2].Event)
	assert.Equal(t, "g2", roomFrames[2].Room)
}

func TestLeaveAllEmptiesRoomSet(t *testing.T) {
	dialer := &fakeDialer{}
	sess := newTestSession(dialer)
	defer sess.Close()

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)

	require.NoError(t, sess.SwitchRoom("g1"))
	require.NoError(t, sess.LeaveAll())
	assert.Equal(t, "", sess.CurrentRoom())

	require.NoError(t, sess.SwitchRoom("g2"))
	assert.Equal(t, "g2", sess.CurrentRoom())

	var joins, leaves []string
	for _, frame := range dialer.conn(0).frames() {
		switch frame.Event {
		case network.EventRoomJoin:
			joins = append(joins, frame.Room)
		case network.EventRoomLeave:
			leaves = append(leaves, frame.Room)
		}
	}
	assert.Equal(t, []string{"g1", "g2"}, joins)
	assert.Equal(t, []string{"g1"}, leaves)
}

func TestReconnectRejoinsCurrentRoom(t *testing.T) {
	dialer := &fakeDialer{}
	sess := newTestSession(dialer)
	defer sess.Close()

	var flags []bool
	var mu sync.Mutex
	sess.OnConnected(func(reconnected bool) {
		mu.Lock()
		flags = append(flags, reconnected)
		mu.Unlock()
	})

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)
	require.NoError(t, sess.SwitchRoom("g1"))

	dialer.conn(0).drop()

	require.Eventually(t, func() bool {
		return dialer.dials() >= 2 && sess.State() == StateConnected
	}, time.Second, time.Millisecond)

	// Recovery announces the namespace again and restores membership.
	frames := dialer.conn(1).frames()
	require.NotEmpty(t, frames)
	assert.Equal(t, network.EventNamespaceConnect, frames[0].Event)
	require.Len(t, frames, 2)
	assert.Equal(t, network.EventRoomJoin, frames[1].Event)
	assert.Equal(t, "g1", frames[1].Room)
	assert.Equal(t, "g1", sess.CurrentRoom())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, flags, 2)
	assert.False(t, flags[0])
	assert.True(t, flags[1], "recovery fires the connected event with the reconnected flag")
}

func TestReconnectRejoinOrdersBeforeConcurrentRoomSwitch(t *testing.T) {
	dialer := &fakeDialer{}
	sess := newTestSession(dialer)
	defer sess.Close()

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)
	require.NoError(t, sess.SwitchRoom("g1"))

	// The next connection stalls its rejoin write for g1 so a room switch
	// can race it.
	stalled := make(chan struct{})
	gate := make(chan struct{})
	dialer.onDial(func(c *fakeConn) {
		c.stallOn = "g1"
		c.stalled = stalled
		c.stallGate = gate
	})

	dialer.conn(0).drop()

	select {
	case <-stalled:
	case <-time.After(time.Second):
		t.Fatal("reconnect never attempted the rejoin")
	}

	switched := make(chan error, 1)
	go func() { switched <- sess.SwitchRoom("g2") }()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	require.NoError(t, <-switched)
	waitConnected(t, sess)

	var rooms []string
	for _, frame := range dialer.conn(1).frames() {
		if frame.Event == network.EventRoomJoin || frame.Event == network.EventRoomLeave {
			rooms = append(rooms, frame.Event+" "+frame.Room)
		}
	}
	// The stale g1 rejoin lands strictly before the switch's leave/join
	// pair; membership never holds two rooms.
	require.Equal(t, []string{
		network.EventRoomJoin + " g1",
		network.EventRoomLeave + " g1",
		network.EventRoomJoin + " g2",
	}, rooms)
	assert.Equal(t, "g2", sess.CurrentRoom())
}

func TestRoomIntentSurvivesDisconnect(t *testing.T) {
	dialer := &fakeDialer{}
	sess := newTestSession(dialer)
	defer sess.Close()

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)

	dialer.conn(0).drop()
	require.Eventually(t, func() bool {
		return sess.State() != StateConnected
	}, time.Second, time.Millisecond)

	// Switching rooms while reconnecting records the intent; the next
	// handshake joins it.
	require.NoError(t, sess.SwitchRoom("g9"))

	require.Eventually(t, func() bool {
		conn := dialer.conn(dialer.dials() - 1)
		if conn == nil || sess.State() != StateConnected {
			return false
		}
		for _, frame := range conn.frames() {
			if frame.Event == network.EventRoomJoin && frame.Room == "g9" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestCloseIsTerminal(t *testing.T) {
	dialer := &fakeDialer{}
	sess := newTestSession(dialer)

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)

	sess.Close()
	assert.Equal(t, StateDisconnected, sess.State())

	dials := dialer.dials()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, dials, dialer.dials(), "a closed session never redials")

	assert.ErrorIs(t, sess.Connect(context.Background()), ErrClosed)
}

func TestInboundFramesReachDispatcher(t *testing.T) {
	dialer := &fakeDialer{}
	dispatcher := events.NewDispatcher()

	received := make(chan network.Frame, 1)
	dispatcher.Register(network.EventGameUpdated, func(frame network.Frame) {
		received <- frame
	})

	sess := NewSession(Config{
		URL:               "ws://test/ws",
		Namespace:         "catan",
		ReconnectInterval: 10 * time.Millisecond,
	}, dialer, func() string { return "" }, dispatcher, nil)
	defer sess.Close()

	require.NoError(t, sess.Connect(context.Background()))
	waitConnected(t, sess)

	dialer.conn(0).inbound <- &network.Frame{Event: network.EventGameUpdated, Room: "g1"}

	select {
	case frame := <-received:
		assert.Equal(t, "g1", frame.Room)
	case <-time.After(time.Second):
		t.Fatal("inbound frame never reached the dispatcher")
	}
}
