package main

import (
	"sync"

	"github.com/lumacast/showrunner/common/logger"
)

// Hub maintains active display connections and fans commands out to
// every client subscribed to a channel
type Hub struct {
	// Map: channel number → []*Client
	connections map[int][]*Client
	mutex       sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	log *logger.Logger
}

// Message is one serialized graphics command bound for a channel
type Message struct {
	Channel int
	Data    []byte
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[int][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		log:         log,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.log.Info("hub started")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToChannel(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[client.channel] = append(h.connections[client.channel], client)
	h.log.Info("display client registered",
		"channel", client.channel,
		"total_for_channel", len(h.connections[client.channel]),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients := h.connections[client.channel]
	for i, c := range clients {
		if c == client {
			h.connections[client.channel] = append(clients[:i], clients[i+1:]...)
			close(client.send)

			if len(h.connections[client.channel]) == 0 {
				delete(h.connections, client.channel)
			}

			h.log.Info("display client unregistered",
				"channel", client.channel,
				"remaining_for_channel", len(h.connections[client.channel]),
			)
			break
		}
	}
}

// broadcastToChannel sends a message to every client on the channel.
// A client whose send buffer is full gets dropped; displays that fall
// this far behind are better off reconnecting fresh.
func (h *Hub) broadcastToChannel(message *Message) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := h.connections[message.Channel]
	if len(clients) == 0 {
		return
	}

	for _, client := range clients {
		select {
		case client.send <- message.Data:
		default:
			h.log.Warn("client send buffer full, closing connection",
				"channel", client.channel)
			close(client.send)
		}
	}
}

// ConnectionCount returns the total number of active connections
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.connections {
		count += len(clients)
	}
	return count
}

// ChannelCount returns the number of channels with at least one client
func (h *Hub) ChannelCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}
