// Package broadcast pushes "collection replaced" notifications to browser
// sessions subscribed over server-sent events.
//
// The store publishes one event per committed reload. A subscriber that
// receives one re-fetches its view; events carry no game or turf data.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Topics a client can subscribe to.
const (
	TopicGames = "games"
	TopicTurfs = "turfs"
)

// ErrClosed is returned by Register after Run has returned.
var ErrClosed = errors.New("broadcast hub closed")

// Event is the payload sent to subscribers.
type Event struct {
	Topic      string    `json:"topic"`
	Generation uint64    `json:"generation"`
	At         time.Time `json:"at"`
}

// Client is one subscribed browser session.
type Client struct {
	Topic string
	Send  chan []byte // closed by the hub on unregister or shutdown
}

// NewClient returns a client for topic with a small send buffer.
func NewClient(topic string) *Client {
	return &Client{Topic: topic, Send: make(chan []byte, 16)}
}

type message struct {
	topic string
	data  []byte
}

// Hub tracks clients by topic. All changes to the client set happen on the
// Run goroutine; mu lets Count read it from elsewhere.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "broadcast").Logger(),
	}
}

// Run processes registrations and broadcasts until ctx is done, then closes
// every client's Send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for topic, clients := range h.clients {
				for c := range clients {
					close(c.Send)
				}
				delete(h.clients, topic)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.Topic] == nil {
				h.clients[c.Topic] = make(map[*Client]bool)
			}
			h.clients[c.Topic][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for c := range h.clients[msg.topic] {
				select {
				case c.Send <- msg.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			// A client whose buffer is full is dropped; its stream ends and the
			// browser reconnects.
			for _, c := range slow {
				h.log.Debug().Str("topic", c.Topic).Msg("dropping slow subscriber")
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[c.Topic]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.Send)
	if len(clients) == 0 {
		delete(h.clients, c.Topic)
	}
}

// Register subscribes c. It fails once the hub has stopped.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrClosed
	}
}

// Closed reports whether Run has returned.
func (h *Hub) Closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Unregister removes c. Safe to call after the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues data for every client on topic. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Publish(topic string, data []byte) {
	select {
	case h.broadcast <- message{topic: topic, data: data}:
	default:
		h.log.Warn().Str("topic", topic).Msg("broadcast queue full, dropping event")
	}
}

// Notify publishes an Event for topic at generation.
func (h *Hub) Notify(topic string, generation uint64) {
	data, err := json.Marshal(Event{Topic: topic, Generation: generation, At: time.Now().UTC()})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode event")
		return
	}
	h.Publish(topic, data)
}

// Count returns the number of clients subscribed to topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
