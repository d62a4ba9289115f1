// network/connection.go
package network

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the transport the session manager drives. An interface so tests
// can substitute a scripted connection.
type Conn interface {
	SendFrame(frame Frame) error
	ReadFrame() (*Frame, error)
	Close() error
	RemoteAddr() net.Addr
	SetPingPeriod(interval time.Duration)
}

// Dialer establishes connections; the production implementation wraps
// gorilla's dialer.
type Dialer interface {
	Dial(ctx context.Context, url, accessToken string) (Conn, error)
}

type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
	ping      time.Duration
	pingStop  chan struct{}
	pingOnce  sync.Once
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{
		conn:     conn,
		pingStop: make(chan struct{}),
	}
}

func (c *WSConnection) SendFrame(frame Frame) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	return c.conn.WriteJSON(frame)
}

func (c *WSConnection) ReadFrame() (*Frame, error) {
	var frame Frame
	if err := c.conn.ReadJSON(&frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

// SetPingPeriod starts the keepalive loop and arms the read deadline; the
// deadline is pushed forward on every pong.
func (c *WSConnection) SetPingPeriod(interval time.Duration) {
	c.ping = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sendMutex.Lock()
				err := c.conn.WriteMessage(websocket.PingMessage, nil)
				c.sendMutex.Unlock()
				if err != nil {
					return
				}
			case <-c.pingStop:
				return
			}
		}
	}()
}

func (c *WSConnection) Close() error {
	c.pingOnce.Do(func() { close(c.pingStop) })
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// WSDialer is the production Dialer.
type WSDialer struct{}

func (WSDialer) Dial(ctx context.Context, url, accessToken string) (Conn, error) {
	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return NewWSConnection(conn), nil
}
