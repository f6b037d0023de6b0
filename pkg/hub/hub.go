// Package hub fans out messages to a set of websocket clients over
// channels. One hub serves one feed (camera frames, telemetry); clients
// that cannot keep up are dropped rather than allowed to apply
// backpressure to the feed.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/AdityaNG/ugv-cam/internal/log"
)

// broadcastDepth bounds the inbound broadcast queue.
const broadcastDepth = 256

// Hub maintains the active clients of one feed.
type Hub struct {
	name string

	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	stop     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex
}

// New creates a hub for the named feed.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastDepth),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run drives the hub's fan-out loop until Stop. Call it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.Debug("hub stopped", "feed", h.name)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("hub client connected", "feed", h.name, "client", client.id, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("hub client disconnected", "feed", h.name, "client", client.id, "remaining", count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer: evict instead of stalling the feed.
					close(client.send)
					delete(h.clients, client)
					log.Warn("hub dropped slow client", "feed", h.name, "client", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop terminates the fan-out loop and disconnects all clients.
// Idempotent; safe whether or not Run was ever started.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Broadcast queues a message for all clients. A full queue drops the
// message; frames and telemetry are both superseded by the next one.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Debug("hub broadcast queue full, dropping message", "feed", h.name)
	}
}

// BroadcastJSON encodes v and broadcasts it as a text message.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts raw bytes (camera frames).
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
