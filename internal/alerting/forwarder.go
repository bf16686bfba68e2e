package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

// Forwarder drains alert events from the event bus into a sink.
type Forwarder struct {
	sink    Sink
	events  <-chan *models.Event
	timeout time.Duration

	mu     sync.Mutex
	sent   int
	failed int
	done   chan struct{}
}

func NewForwarder(sink Sink, events <-chan *models.Event) *Forwarder {
	return &Forwarder{
		sink:    sink,
		events:  events,
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}
}

// Start forwards until the event channel is closed.
func (f *Forwarder) Start() {
	go f.run()
}

func (f *Forwarder) Done() <-chan struct{} {
	return f.done
}

func (f *Forwarder) run() {
	defer close(f.done)

	for event := range f.events {
		alert, ok := FromEvent(event)
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		err := f.sink.Send(ctx, alert)
		cancel()

		f.mu.Lock()
		if err != nil {
			f.failed++
		} else {
			f.sent++
		}
		f.mu.Unlock()

		if err != nil {
			logger.WithVehicle(alert.VIN).Errorf("Failed to forward alert: %v", err)
		}
	}
}

func (f *Forwarder) Stats() (sent, failed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent, f.failed
}
