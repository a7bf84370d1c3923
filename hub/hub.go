package hub

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/c-oreills/ringoffire/domain"
	"github.com/c-oreills/ringoffire/logging"
)

// Hub is the set of live connections on the table, addressed by handle.
type Hub struct {
	clients map[string]domain.Connection
	mu      sync.RWMutex
}

func New() *Hub {
	return &Hub{
		clients: make(map[string]domain.Connection),
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	h.clients[conn.ID()] = conn
	count := len(h.clients)
	h.mu.Unlock()

	slog.Info("client connected", logging.Conn(conn.ID()), slog.Int("clients", count))
}

func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.Lock()
	current, exists := h.clients[conn.ID()]
	if exists && current == conn {
		delete(h.clients, conn.ID())
	}
	count := len(h.clients)
	h.mu.Unlock()

	if exists {
		slog.Info("client disconnected", logging.Conn(conn.ID()), slog.Int("clients", count))
	}
}

// Send delivers data to a single handle.
func (h *Hub) Send(id string, data []byte) error {
	h.mu.RLock()
	conn, exists := h.clients[id]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("send to %s: connection not found", id)
	}
	if err := conn.Send(data); err != nil {
		h.drop(conn, err)
		return fmt.Errorf("send to %s: %w", id, err)
	}
	return nil
}

// SendEach delivers data to every listed handle that is still live.
func (h *Hub) SendEach(ids []string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range ids {
		conn, exists := h.clients[id]
		if !exists {
			continue
		}
		if err := conn.Send(data); err != nil {
			go h.drop(conn, err)
		}
	}
}

// Broadcast delivers data to every live connection except sender.
func (h *Hub) Broadcast(sender domain.Connection, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, conn := range h.clients {
		if id == sender.ID() {
			continue
		}
		if err := conn.Send(data); err != nil {
			go h.drop(conn, err)
		}
	}
}

// BroadcastAll delivers data to every live connection.
func (h *Hub) BroadcastAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.clients {
		if err := conn.Send(data); err != nil {
			go h.drop(conn, err)
		}
	}
}

func (h *Hub) Stats() (clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// drop evicts a connection that can no longer keep up. Closing it ends its
// read loop, which runs the regular disconnect path.
func (h *Hub) drop(conn domain.Connection, err error) {
	slog.Warn("dropping slow client", logging.Conn(conn.ID()), logging.Err(err))
	h.Unregister(conn)
	conn.Close()
}
