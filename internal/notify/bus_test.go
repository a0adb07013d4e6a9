package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberReceivesPublishedEvents(t *testing.T) {
	bus := NewBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish("catalog.changed")

	select {
	case ev := <-events:
		assert.Equal(t, "catalog.changed", ev.Topic)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// well past the subscriber buffer without anyone draining
		for i := 0; i < 100; i++ {
			bus.Publish("orders.changed")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	events, cancel := bus.Subscribe()

	cancel()

	select {
	case _, ok := <-events:
		require.False(t, ok, "channel must be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestIndependentSubscribers(t *testing.T) {
	bus := NewBus()
	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelSecond()

	cancelFirst()
	bus.Publish("catalog.changed")

	select {
	case ev := <-second:
		assert.Equal(t, "catalog.changed", ev.Topic)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber missed the event")
	}

	_, ok := <-first
	assert.False(t, ok)
}
