// Package eventbus carries small in-process notifications between the
// coordinator, the mention poller and the application shell.
package eventbus

import (
	"sync"
	"time"
)

// Event is an in-process notification. Data stays small; payloads are
// summaries, never live domain objects.
type Event struct {
	Type string
	Time time.Time
	Data any
}

// Well-known event types.
const (
	TypeScheduleCreated   = "schedule.created"
	TypeScheduleStep      = "schedule.step"
	TypeScheduleCompleted = "schedule.completed"
	TypeMentionReceived   = "mention.received"
	TypeConfigApplied     = "config.applied"
)

// Bus fans events out to subscribers. Publish never blocks; a subscriber
// whose buffer is full misses the event.
type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory bus. It owns no background goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]chan Event
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Sends are non-blocking, so holding the read lock here is cheap and
	// keeps Unsubscribe's close ordered after any in-flight send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			// Removing the entry under the write lock guarantees no
			// Publish still holds the channel when it is closed.
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}
