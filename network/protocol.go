// network/protocol.go
package network

import (
	"encoding/json"
)

// client -> server control events
const (
	EventNamespaceConnect = "namespace:connect"
	EventRoomJoin         = "room:join"
	EventRoomLeave        = "room:leave"
)

// server -> client push events
const (
	EventGameCreated = "game:created"
	EventGameUpdated = "game:updated"
)

// Frame is the JSON envelope multiplexing namespaces and rooms over the
// single websocket.
type Frame struct {
	Event     string          `json:"event"`
	Namespace string          `json:"namespace,omitempty"`
	Room      string          `json:"room,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}
