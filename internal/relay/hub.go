// Package relay fans committed station changes out to subscribers: the
// connected real-time clients and, optionally, a Pub/Sub topic.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/livecharge/livecharge/internal/station"
)

// Event names used on the real-time channel.
const (
	EventStationUpdated      = "stationUpdated"
	EventUpdateStationStatus = "updateStationStatus"
	EventStatusUpdated       = "statusUpdated"
	EventError               = "error"
)

// DefaultClientBuffer is the number of outbound messages queued per client.
const DefaultClientBuffer = 32

// Message is the envelope exchanged on the real-time channel.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an event and its payload into a message frame.
func Encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Message{Event: event, Data: raw})
}

// Client is one registered real-time connection.
type Client struct {
	id   string
	send chan []byte
}

// ID returns the client identifier.
func (c *Client) ID() string { return c.id }

// Messages returns the outbound queue drained by the connection writer.
// It is closed when the client is unregistered.
func (c *Client) Messages() <-chan []byte { return c.send }

// Hub is the registry of connected clients. Publish delivers to every client
// registered at that moment; nothing is queued for clients that join later.
type Hub struct {
	logger zerolog.Logger
	buffer int

	mu      sync.RWMutex
	clients map[*Client]struct{}
	dropped atomic.Uint64
}

// NewHub creates an empty hub. A non-positive buffer uses DefaultClientBuffer.
func NewHub(logger zerolog.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Hub{
		logger:  logger,
		buffer:  buffer,
		clients: make(map[*Client]struct{}),
	}
}

// Register adds a client and returns it.
func (h *Hub) Register(id string) *Client {
	c := &Client{id: id, send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	return c
}

// Unregister removes a client and closes its queue. It is safe to call more
// than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded because a client queue
// was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Publish broadcasts a stationUpdated message to all connected clients.
func (h *Hub) Publish(_ context.Context, update station.Update) error {
	frame, err := Encode(EventStationUpdated, update)
	if err != nil {
		return err
	}
	h.Broadcast(frame)
	return nil
}

// Broadcast queues frame on every client without blocking. A client whose
// queue is full misses the frame.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn().Str("client_id", c.id).Msg("client queue full, dropping message")
			h.dropped.Add(1)
		}
	}
}

// Send queues frame for a single client. It reports false when the client is
// gone or its queue is full.
func (h *Hub) Send(c *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// Ensure Hub implements station.Publisher.
var _ station.Publisher = (*Hub)(nil)
