// events/dispatcher.go
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/catanclient/cache"
	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/network"
)

// Handler consumes one inbound push frame.
type Handler func(frame network.Frame)

// Dispatcher fans inbound frames out to the handlers registered for their
// event name. Unknown events are dropped.
type Dispatcher struct {
	mutex    sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
	}
}

func (d *Dispatcher) Register(event string, handler Handler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
}

func (d *Dispatcher) Dispatch(frame network.Frame) {
	d.mutex.RLock()
	handlers := d.handlers[frame.Event]
	d.mutex.RUnlock()

	for _, handler := range handlers {
		handler(frame)
	}
}

// BindCache registers the cache-coherence handlers: a created game stales
// the list unconditionally; an updated game stales only its own tag, scoped
// by the room carried in the event. An update without a room produces no
// invalidation at all, rather than falling back to invalidate-everything.
func BindCache(d *Dispatcher, store *cache.Store) {
	d.Register(network.EventGameCreated, func(network.Frame) {
		store.Invalidate(cache.TagGames)
	})

	d.Register(network.EventGameUpdated, func(frame network.Frame) {
		if frame.Room == "" {
			return
		}
		id, err := uuid.Parse(frame.Room)
		if err != nil {
			logger.Log.Warnf("Ignoring game:updated with malformed room %q: %v", frame.Room, err)
			return
		}
		store.Invalidate(cache.TagGame(id))
	})
}
