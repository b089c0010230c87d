package events

import (
	"sync"
	"time"

	"github.com/dmercer/biosift/pkg/logger"
)

// Event types published by pipeline runs
const (
	TypeUniverseBuilt      = "universe_built"
	TypeIngestionCompleted = "ingestion_completed"
	TypeRankingCompleted   = "ranking_completed"
	TypeJobFailed          = "job_failed"
)

// Event is one pipeline run notification
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

const subscriberBuffer = 16

// Bus is an in-process publish/subscribe hub for pipeline events.
// Publish never blocks: a subscriber that cannot keep up loses events
// rather than stalling the pipeline.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	logger *logger.Logger
}

// NewBus creates a new event bus
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		subs:   make(map[chan Event]struct{}),
		logger: log.WithField("module", "events"),
	}
}

// Subscribe registers a new subscriber channel. The returned cancel
// function must be called to release it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers an event to all current subscribers, dropping it for
// any subscriber whose buffer is full
func (b *Bus) Publish(eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		b.logger.WithFields(map[string]interface{}{
			"type":    eventType,
			"dropped": dropped,
		}).Warn("Event dropped for slow subscribers")
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
