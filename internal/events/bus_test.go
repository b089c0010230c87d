package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmercer/biosift/pkg/logger"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(TypeRankingCompleted, map[string]int{"tickers": 42})

	select {
	case event := <-ch:
		assert.Equal(t, TypeRankingCompleted, event.Type)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(logger.NewNop())

	first, cancelFirst := bus.Subscribe()
	defer cancelFirst()
	second, cancelSecond := bus.Subscribe()
	defer cancelSecond()

	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(TypeUniverseBuilt, nil)

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, TypeUniverseBuilt, event.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, cancel := bus.Subscribe()
	defer cancel()

	// Publishing never blocks, even well past the buffer size
	for i := 0; i < subscriberBuffer*3; i++ {
		bus.Publish(TypeIngestionCompleted, nil)
	}

	assert.Len(t, ch, subscriberBuffer, "overflow must be dropped, not queued")
}

func TestBus_CancelRemovesSubscriber(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, cancel := bus.Subscribe()
	cancel()

	assert.Zero(t, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open, "cancelled subscriber channel must be closed")

	// Cancelling twice is harmless
	require.NotPanics(t, func() { cancel() })

	// Publishing after cancellation must not panic either
	require.NotPanics(t, func() { bus.Publish(TypeJobFailed, nil) })
}
