package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := NewBus(4)
	sub := b.Subscribe()

	b.Publish(Event{Category: "loadpattern", Type: "adaptive.observe"})

	select {
	case evt := <-sub.C():
		assert.Equal(t, "adaptive.observe", evt.Type)
	case <-time.After(time.Second):
		t.Fatal("expected event delivery")
	}
}

func TestPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	b := NewBus(1)
	sub := b.Subscribe()

	b.Publish(Event{Type: "first"})
	b.Publish(Event{Type: "second"})

	stats := b.Stats()
	assert.Equal(t, int64(2), stats.Published)
	assert.Equal(t, int64(1), stats.Dropped)

	evt := <-sub.C()
	assert.Equal(t, "first", evt.Type)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(4)
	sub := b.Subscribe()
	sub.Unsubscribe()

	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := NewBus(4)
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Type: "no-op"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish with no subscribers should not block")
	}
	require.Equal(t, int64(1), b.Stats().Published)
}
