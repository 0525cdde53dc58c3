package eventbus

import (
	"testing"
	"time"
)

func TestFanout(t *testing.T) {
	t.Parallel()

	b := New()
	first, unsubFirst := b.Subscribe(1)
	second, unsubSecond := b.Subscribe(1)
	defer unsubFirst()
	defer unsubSecond()

	b.Publish(Event{Type: TypeScheduleCreated, Data: "s1"})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case e := <-ch:
			if e.Type != TypeScheduleCreated || e.Time.IsZero() {
				t.Fatalf("event = %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: TypeScheduleStep})
	b.Publish(Event{Type: TypeScheduleCompleted})

	if e := <-ch; e.Type != TypeScheduleStep {
		t.Fatalf("first event = %+v", e)
	}
	select {
	case e := <-ch:
		t.Fatalf("second event should have been dropped, got %+v", e)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub() // second call is a no-op

	b.Publish(Event{Type: TypeMentionReceived})

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed and empty")
	}
}
