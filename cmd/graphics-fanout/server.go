package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/lumacast/showrunner/common/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Displays run on arbitrary hosts (browser sources, signage)
		return true
	},
}

// Server handles display WebSocket connections
type Server struct {
	hub *Hub
	log *logger.Logger
}

// NewServer creates a new Server instance
func NewServer(hub *Hub, log *logger.Logger) *Server {
	return &Server{
		hub: hub,
		log: log,
	}
}

// HandleWebSocket upgrades a display connection and subscribes it to
// its graphics channel
// URL: /ws?channel=1
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	channel, err := strconv.Atoi(r.URL.Query().Get("channel"))
	if err != nil || channel < 0 {
		http.Error(w, "channel query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade error", "error", err)
		return
	}

	client := NewClient(s.hub, conn, channel)
	s.hub.register <- client

	s.log.Info("new display connection",
		"channel", channel,
		"remote", r.RemoteAddr,
	)

	go client.writePump()
	go client.readPump()
}

// HandleStats reports connection counts
// GET /stats
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"connections": s.hub.ConnectionCount(),
		"channels":    s.hub.ChannelCount(),
	})
}
