package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c-oreills/ringoffire/domain"
	"github.com/c-oreills/ringoffire/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Options struct {
	SendBuffer     int
	MaxMessageSize int64
}

type Conn struct {
	id          string
	ws          *websocket.Conn
	send        chan []byte
	maxSize     int64
	broadcaster domain.Broadcaster
	handler     domain.MessageHandler
	done        chan struct{}
	closeOnce   sync.Once
}

func NewConn(id string, ws *websocket.Conn, b domain.Broadcaster, h domain.MessageHandler, opts Options) *Conn {
	return &Conn{
		id:          id,
		ws:          ws,
		send:        make(chan []byte, opts.SendBuffer),
		maxSize:     opts.MaxMessageSize,
		broadcaster: b,
		handler:     h,
		done:        make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendBufferFull
	}
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// Start joins the table and runs the pumps. The connection counts as live
// before its first frame is read, so it receives broadcasts as a spectator
// until it registers.
func (c *Conn) Start() {
	c.broadcaster.Register(c)
	c.handler.Connect(c)
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.handler.Disconnect(c)
		c.broadcaster.Unregister(c)
		c.Close()
	}()

	c.ws.SetReadLimit(c.maxSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", logging.Conn(c.id), logging.Err(err))
			}
			return
		}

		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades the request and attaches the socket to the table under a
// fresh connection handle.
func Handler(b domain.Broadcaster, h domain.MessageHandler, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", logging.Err(err))
			return
		}

		NewConn(uuid.New().String(), ws, b, h, opts).Start()
	}
}
