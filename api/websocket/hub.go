package websocket

import (
	"sync"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
)

type runMessage struct {
	runID string
	data  []byte
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan runMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	settings   Settings

	// OnCountChange, when set, receives the client count after every
	// change.
	OnCountChange func(n int)
}

func NewHub(cfg *config.WebSocketConfig) *Hub {
	settings := NewSettings(cfg)

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan runMessage, settings.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   settings,
	}
}

func (h *Hub) Settings() Settings {
	return h.settings
}

// Run serves registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.countChanged()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())
			h.countChanged()

		case client := <-h.unregister:
			h.remove(client)
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case msg := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for client := range h.clients {
				if !client.wants(msg.runID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logger.Warn("Dropping slow WebSocket client")
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	if ok {
		h.countChanged()
	}
}

func (h *Hub) countChanged() {
	if h.OnCountChange != nil {
		h.OnCountChange(h.ClientCount())
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast sends a message to every client.
func (h *Hub) Broadcast(message []byte) {
	h.BroadcastToRun("", message)
}

// BroadcastToRun sends a message about runID to clients following that run
// and to clients following all runs.
func (h *Hub) BroadcastToRun(runID string, message []byte) {
	select {
	case h.broadcast <- runMessage{runID: runID, data: message}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Full reports whether the hub is at its connection limit.
func (h *Hub) Full() bool {
	return h.ClientCount() >= h.settings.MaxConnections
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
