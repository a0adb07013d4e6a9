// Package notify carries best-effort change notifications between
// components. Subscribers that fall behind miss events; the bus is a
// refresh hint, not a log.
package notify

import (
	"sync"
	"time"
)

const subscriberBuffer = 16

type Event struct {
	Topic string
	At    time.Time
}

type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
	}
}

// Subscribe returns a receive channel and a cancel func. The channel is
// closed on cancel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking; a
// full subscriber buffer drops the event for that subscriber.
func (b *Bus) Publish(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev := Event{Topic: topic, At: time.Now()}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
