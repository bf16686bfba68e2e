// Package events fans pipeline events out to subscribers: the websocket hub,
// the event log and alert sinks.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

const defaultBufferSize = 100

// subscription is one consumer channel. A nil filter receives every type.
type subscription struct {
	ch     chan *models.Event
	filter map[models.EventType]struct{}
}

func (s *subscription) accepts(t models.EventType) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[t]
	return ok
}

// EventBus delivers each published event to every matching subscription
// without blocking. Events are dropped for subscribers whose buffer is full.
type EventBus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	closed     bool
	dropped    atomic.Int64
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving only the given event types.
func (b *EventBus) Subscribe(types ...models.EventType) <-chan *models.Event {
	filter := make(map[models.EventType]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	return b.add(filter)
}

// SubscribeAll returns a channel receiving every event.
func (b *EventBus) SubscribeAll() <-chan *models.Event {
	return b.add(nil)
}

func (b *EventBus) add(filter map[models.EventType]struct{}) <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{ch: make(chan *models.Event, b.bufferSize), filter: filter}
	if b.closed {
		close(sub.ch)
		return sub.ch
	}
	b.subs = append(b.subs, sub)
	return sub.ch
}

func (b *EventBus) Publish(event *models.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.accepts(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			logger.WithField("run_id", event.RunID).Warnf("Subscriber buffer full, dropped %s event", event.Type)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber
// was full.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are ignored and
// later subscriptions receive an already closed channel.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}
