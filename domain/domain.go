package domain

import (
	"encoding/json"
	"errors"
)

// Inbound events.
const (
	EventRegister     = "register"
	EventClientCursor = "client_cursor_update"
	EventClientCard   = "client_card_update"
	EventClientCards  = "client_cards_update"
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
)

// Outbound events.
const (
	EventDeregister   = "deregister"
	EventServerCursor = "server_cursor_update"
	EventServerCard   = "server_card_update"
	EventServerCards  = "server_cards_update"
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Message is the envelope carried by every websocket frame.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type Broadcaster interface {
	Register(conn Connection)
	Unregister(conn Connection)
	Send(id string, data []byte) error
	SendEach(ids []string, data []byte)
	Broadcast(sender Connection, data []byte)
	BroadcastAll(data []byte)
	Stats() (clients int)
}

type MessageHandler interface {
	Connect(conn Connection)
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}
