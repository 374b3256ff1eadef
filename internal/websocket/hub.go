package websocket

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// TopicGlobal receives every lifecycle event regardless of sender.
const TopicGlobal = "global"

// Hub maintains the set of active clients and fans lifecycle events out
// to them. Clients subscribe to a sender topic ("user", "post") or to
// the global feed.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Broadcast delivers a message to every connected client.
	Broadcast chan []byte

	mu sync.RWMutex

	// Registered clients.
	clients map[*Client]bool

	// A map of topics to the set of clients subscribed to each.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Broadcast:     make(chan []byte),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if client.Topic != "" {
				if h.subscriptions[client.Topic] == nil {
					h.subscriptions[client.Topic] = make(map[*Client]bool)
				}
				h.subscriptions[client.Topic][client] = true
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("total_clients", total).Str("topic", client.Topic).Msg("Client connected")
		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropClientLocked(client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("total_clients", total).Msg("Client disconnected")
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				h.sendLocked(client, message)
			}
			h.mu.Unlock()
		}
	}
}

// Notify delivers a message to every client subscribed to the topic and
// to the global feed. Safe to call from any goroutine.
func (h *Hub) Notify(topic string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := make(map[*Client]bool)
	for _, t := range []string{topic, TopicGlobal} {
		for client := range h.subscriptions[t] {
			if !delivered[client] {
				delivered[client] = true
				h.sendLocked(client, message)
			}
		}
	}
}

// SendTo queues a message for a single client, silently dropping it
// when the client has already been unregistered. Safe to call from any
// goroutine; the hub never writes to a closed Send channel.
func (h *Hub) SendTo(client *Client, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client] {
		h.sendLocked(client, message)
	}
}

// sendLocked queues a message on a client, dropping the client when its
// send buffer is full. Callers must hold h.mu.
func (h *Hub) sendLocked(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.dropClientLocked(client)
		close(client.Send)
	}
}

func (h *Hub) dropClientLocked(client *Client) {
	delete(h.clients, client)
	for topic, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, topic)
			}
		}
	}
}
