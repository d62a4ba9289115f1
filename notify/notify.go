// notify/notify.go
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/catanclient/timer"
)

// Notification is one transient user-visible message, typically built from
// a rejected mutation's structured error details.
type Notification struct {
	ID        uuid.UUID
	Text      string
	CreatedAt time.Time
}

// Listener observes the queue; Dismissed fires on expiry as well as on
// explicit dismissal.
type Listener struct {
	Pushed    func(n Notification)
	Dismissed func(id uuid.UUID)
}

// Queue is the global auto-expiring notification queue. Every entry is
// dismissed automatically after the TTL.
type Queue struct {
	ttl       time.Duration
	timers    *timer.Manager
	mutex     sync.Mutex
	active    map[uuid.UUID]Notification
	order     []uuid.UUID
	listeners []Listener
}

func NewQueue(ttl time.Duration, timers *timer.Manager) *Queue {
	return &Queue{
		ttl:    ttl,
		timers: timers,
		active: make(map[uuid.UUID]Notification),
	}
}

func (q *Queue) Listen(l Listener) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.listeners = append(q.listeners, l)
}

// Push queues one message per text and schedules its expiry.
func (q *Queue) Push(texts ...string) {
	for _, text := range texts {
		n := Notification{
			ID:        uuid.New(),
			Text:      text,
			CreatedAt: time.Now(),
		}

		q.mutex.Lock()
		q.active[n.ID] = n
		q.order = append(q.order, n.ID)
		listeners := q.snapshot()
		q.mutex.Unlock()

		for _, l := range listeners {
			if l.Pushed != nil {
				l.Pushed(n)
			}
		}

		id := n.ID
		q.timers.AddTimer(q.ttl, 0, func() {
			q.Dismiss(id)
		})
	}
}

// Dismiss removes a notification; unknown ids are a no-op, so expiry and
// explicit dismissal can race safely.
func (q *Queue) Dismiss(id uuid.UUID) {
	q.mutex.Lock()
	_, exists := q.active[id]
	if exists {
		delete(q.active, id)
		for i, existing := range q.order {
			if existing == id {
				q.order = append(q.order[:i], q.order[i+1:]...)
				break
			}
		}
	}
	listeners := q.snapshot()
	q.mutex.Unlock()

	if !exists {
		return
	}
	for _, l := range listeners {
		if l.Dismissed != nil {
			l.Dismissed(id)
		}
	}
}

// Active returns the queued notifications in arrival order.
func (q *Queue) Active() []Notification {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	out := make([]Notification, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.active[id])
	}
	return out
}

func (q *Queue) snapshot() []Listener {
	out := make([]Listener, len(q.listeners))
	copy(out, q.listeners)
	return out
}
