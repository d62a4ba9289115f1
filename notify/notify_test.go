package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/catanclient/timer"
)

func TestPushAndAutoExpiry(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()

	queue := NewQueue(100*time.Millisecond, timers)

	var mutex sync.Mutex
	var dismissed []uuid.UUID
	queue.Listen(Listener{
		Dismissed: func(id uuid.UUID) {
			mutex.Lock()
			dismissed = append(dismissed, id)
			mutex.Unlock()
		},
	})

	queue.Push("insufficient resources")

	active := queue.Active()
	if len(active) != 1 {
		t.Fatalf("expected 1 active notification, got %d", len(active))
	}
	if active[0].Text != "insufficient resources" {
		t.Fatalf("unexpected text %q", active[0].Text)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(queue.Active()) == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(queue.Active()) != 0 {
		t.Fatal("notification should expire automatically")
	}

	mutex.Lock()
	defer mutex.Unlock()
	if len(dismissed) != 1 || dismissed[0] != active[0].ID {
		t.Fatalf("expected one dismissal for %s, got %v", active[0].ID, dismissed)
	}
}

func TestExplicitDismissBeforeExpiry(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()

	queue := NewQueue(time.Hour, timers)
	queue.Push("first", "second")

	active := queue.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active notifications, got %d", len(active))
	}

	queue.Dismiss(active[0].ID)

	remaining := queue.Active()
	if len(remaining) != 1 || remaining[0].Text != "second" {
		t.Fatalf("expected only the second notification, got %v", remaining)
	}

	// Dismissing an unknown id is a no-op.
	queue.Dismiss(uuid.New())
	if len(queue.Active()) != 1 {
		t.Fatal("unknown dismissal should not change the queue")
	}
}
