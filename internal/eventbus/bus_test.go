package eventbus

import "testing"

func TestPublishFanout(t *testing.T) {
	b := New()
	a, unsubA := b.Subscribe(2)
	c, unsubC := b.Subscribe(2)
	defer unsubA()
	defer unsubC()

	b.Publish(Event{Type: "tick.delivered", Data: 1})

	for _, ch := range []<-chan Event{a, c} {
		ev := <-ch
		if ev.Type != "tick.delivered" || ev.Data != 1 {
			t.Fatalf("event = %+v", ev)
		}
		if ev.Time.IsZero() {
			t.Fatalf("publish should stamp time")
		}
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"})

	if got := (<-ch).Type; got != "a" {
		t.Fatalf("first event = %q", got)
	}
	if Dropped(b) != 1 {
		t.Fatalf("dropped = %d, want 1", Dropped(b))
	}
}

func TestUnsubscribeClosesAndIsIdempotent(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
	b.Publish(Event{Type: "after"})
}
