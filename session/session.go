// session/session.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/catanclient/events"
	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/monitor"
	"github.com/wfunc/catanclient/network"
)

// ConnState is the connection lifecycle of the session.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	}
	return "unknown"
}

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrClosed         = errors.New("session closed")
)

// ConnectedFunc is notified after every successful handshake. Reconnected
// distinguishes recovery from the first connect.
type ConnectedFunc func(reconnected bool)

// Config carries the session's transport parameters.
type Config struct {
	URL       string
	Namespace string
	// ReconnectInterval is the fixed delay between attempts; retries
	// continue indefinitely until Close.
	ReconnectInterval time.Duration
	PingInterval      time.Duration
}

// Session owns the single live realtime connection of this process. It
// redials on transport drop, re-joins the current room after recovery and
// feeds every inbound frame to the dispatcher. Room membership is a set of
// size at most one, mutated only here.
type Session struct {
	cfg         Config
	dialer      network.Dialer
	accessToken func() string
	dispatcher  *events.Dispatcher
	monitor     *monitor.Monitor

	mutex       sync.Mutex
	state       ConnState
	conn        network.Conn
	currentRoom string
	started     bool
	onConnected []ConnectedFunc

	closed    chan struct{}
	closeOnce sync.Once
}

func NewSession(cfg Config, dialer network.Dialer, accessToken func() string, dispatcher *events.Dispatcher, mon *monitor.Monitor) *Session {
	return &Session{
		cfg:         cfg,
		dialer:      dialer,
		accessToken: accessToken,
		dispatcher:  dispatcher,
		monitor:     mon,
		state:       StateDisconnected,
		closed:      make(chan struct{}),
	}
}

// OnConnected registers a handshake listener. Must be called before
// Connect.
func (s *Session) OnConnected(fn ConnectedFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onConnected = append(s.onConnected, fn)
}

// Connect starts the connection loop. It returns once the loop is running;
// connection progress is observable through State and OnConnected.
func (s *Session) Connect(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.state = StateConnecting

	go s.run(ctx)
	return nil
}

// run dials, reads until the transport drops, then redials forever at the
// fixed interval. One attempt in flight at a time.
func (s *Session) run(ctx context.Context) {
	everConnected := false

	for {
		select {
		case <-s.closed:
			return
		case <-ctx.Done():
			s.Close()
			return
		default:
		}

		conn, err := s.dialer.Dial(ctx, s.cfg.URL, s.accessToken())
		if err != nil {
			logger.Log.Warnf("Realtime dial failed, retrying in %v: %v", s.cfg.ReconnectInterval, err)
			if !s.sleep(ctx) {
				return
			}
			continue
		}

		if err := s.handshake(conn, everConnected); err != nil {
			logger.Log.Warnf("Realtime handshake failed: %v", err)
			conn.Close()
			s.mutex.Lock()
			s.conn = nil
			if everConnected {
				s.state = StateReconnecting
			} else {
				s.state = StateConnecting
			}
			s.mutex.Unlock()
			if !s.sleep(ctx) {
				return
			}
			continue
		}

		// Blocks until the transport drops.
		s.readLoop(conn)

		s.mutex.Lock()
		s.conn = nil
		s.state = StateReconnecting
		s.mutex.Unlock()

		everConnected = true
		if !s.sleep(ctx) {
			return
		}
	}
}

// handshake announces the namespace, restores room membership and flips the
// session to Connected.
func (s *Session) handshake(conn network.Conn, reconnected bool) error {
	if err := conn.SendFrame(network.Frame{
		Event:     network.EventNamespaceConnect,
		Namespace: s.cfg.Namespace,
	}); err != nil {
		return err
	}
	if s.cfg.PingInterval > 0 {
		conn.SetPingPeriod(s.cfg.PingInterval)
	}

	// The server forgets room membership across connections. The rejoin is
	// sent while holding the mutex that serializes SwitchRoom, so a
	// concurrent room switch orders strictly before or strictly after it;
	// a stale join can never land after a newer one.
	s.mutex.Lock()
	s.conn = conn
	room := s.currentRoom
	if room != "" {
		if err := conn.SendFrame(network.Frame{
			Event:     network.EventRoomJoin,
			Namespace: s.cfg.Namespace,
			Room:      room,
		}); err != nil {
			s.conn = nil
			s.mutex.Unlock()
			return err
		}
	}
	s.state = StateConnected
	listeners := make([]ConnectedFunc, len(s.onConnected))
	copy(listeners, s.onConnected)
	s.mutex.Unlock()

	if reconnected {
		logger.Log.Infof("Realtime connection recovered, room %q restored", room)
		if s.monitor != nil {
			s.monitor.IncReconnects()
		}
	} else {
		logger.Log.Infof("Realtime connection established")
	}

	for _, fn := range listeners {
		fn(reconnected)
	}
	return nil
}

func (s *Session) readLoop(conn network.Conn) {
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			select {
			case <-s.closed:
			default:
				logger.Log.Warnf("Realtime read failed: %v", err)
			}
			conn.Close()
			return
		}
		if s.monitor != nil {
			s.monitor.IncPushEvents()
		}
		s.dispatcher.Dispatch(*frame)
	}
}

// sleep waits one reconnect interval; false means the session closed.
func (s *Session) sleep(ctx context.Context) bool {
	timer := time.NewTimer(s.cfg.ReconnectInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		s.Close()
		return false
	case <-s.closed:
		return false
	}
}

// SwitchRoom leaves every joined room, strictly before joining the new one.
// The new membership is remembered as intent even while disconnected, so
// recovery rejoins it. An empty room means "no room" (game list context).
func (s *Session) SwitchRoom(room string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	conn := s.conn
	if s.currentRoom != "" && conn != nil {
		if err := conn.SendFrame(network.Frame{
			Event:     network.EventRoomLeave,
			Namespace: s.cfg.Namespace,
			Room:      s.currentRoom,
		}); err != nil {
			return err
		}
	}
	s.currentRoom = ""

	if room == "" {
		return nil
	}
	s.currentRoom = room
	if conn != nil {
		return conn.SendFrame(network.Frame{
			Event:     network.EventRoomJoin,
			Namespace: s.cfg.Namespace,
			Room:      room,
		})
	}
	return nil
}

// LeaveAll drops room membership, used when the client returns to the games
// list.
func (s *Session) LeaveAll() error {
	return s.SwitchRoom("")
}

// CurrentRoom returns the joined room, or empty when none.
func (s *Session) CurrentRoom() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.currentRoom
}

// State returns the connection lifecycle state.
func (s *Session) State() ConnState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	select {
	case <-s.closed:
		return StateDisconnected
	default:
	}
	return s.state
}

// Close tears the session down. Terminal: a closed session never redials,
// a new Session is created on the next login.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mutex.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.state = StateDisconnected
		s.mutex.Unlock()
		logger.Log.Info("Realtime session closed")
	})
}
