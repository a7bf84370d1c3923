package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c-oreills/ringoffire/domain"
	"github.com/c-oreills/ringoffire/logging"
)

const tracerName = "github.com/c-oreills/ringoffire/protocol"

// Handler dispatches inbound events against the table. Events are applied
// one at a time: lookup, mutation and emission for an event complete before
// the next event from any connection is looked at.
type Handler struct {
	broadcaster domain.Broadcaster
	tracer      trace.Tracer

	mu    sync.Mutex
	table *Table
}

type Option func(*Handler)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		h.tracer = tp.Tracer(tracerName)
	}
}

func NewHandler(b domain.Broadcaster, opts ...Option) *Handler {
	h := &Handler{
		broadcaster: b,
		tracer:      otel.Tracer(tracerName),
		table:       NewTable(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Connect(conn domain.Connection) {
	h.dispatch(conn, domain.EventConnect, nil)
}

func (h *Handler) Disconnect(conn domain.Connection) {
	h.dispatch(conn, domain.EventDisconnect, nil)
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", logging.Conn(conn.ID()), logging.Err(err))
		return
	}
	switch msg.Event {
	case domain.EventConnect, domain.EventDisconnect:
		slog.Warn("lifecycle event from client ignored", logging.Conn(conn.ID()), logging.Event(msg.Event))
		return
	}
	h.dispatch(conn, msg.Event, msg.Data)
}

// Stats reports the number of named participants and stored cards.
func (h *Handler) Stats() (participants, cards int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.table.Registry.Len(), h.table.Cards.Len()
}

func (h *Handler) dispatch(conn domain.Connection, event string, data json.RawMessage) {
	_, span := h.tracer.Start(context.Background(), "relay."+event,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("conn.id", conn.ID())),
	)
	defer span.End()

	handle, ok := handlers[event]
	if !ok {
		err := fmt.Errorf("%w: %q", domain.ErrUnknownEvent, event)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("message dropped", logging.Conn(conn.ID()), logging.Err(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if name, ok := h.table.Registry.ResolveName(conn.ID()); ok {
		span.SetAttributes(attribute.String("participant.name", name))
	}

	out, err := handle(h.table, conn.ID(), data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("message dropped", logging.Conn(conn.ID()), logging.Event(event), logging.Err(err))
		return
	}

	fanout := 0
	for _, o := range out {
		fanout += h.emit(conn, o)
	}
	span.SetAttributes(attribute.Int("fanout.size", fanout))
	slog.Debug("relayed", logging.Conn(conn.ID()), logging.Event(event), slog.Int("fanout", fanout))
}

// emit encodes o and hands it to the broadcaster. It returns the number of
// connections addressed.
func (h *Handler) emit(origin domain.Connection, o Outbound) int {
	data, err := encode(o.Event, o.Payload)
	if err != nil {
		slog.Error("encode outbound", logging.Event(o.Event), logging.Err(err))
		return 0
	}

	switch o.Target.kind {
	case toOrigin:
		if err := h.broadcaster.Send(origin.ID(), data); err != nil {
			slog.Warn("send failed", logging.Conn(origin.ID()), logging.Event(o.Event), logging.Err(err))
			return 0
		}
		return 1
	case toPeers:
		h.broadcaster.SendEach(o.Target.handles, data)
		return len(o.Target.handles)
	case toEveryone:
		h.broadcaster.BroadcastAll(data)
		return h.broadcaster.Stats()
	case toEveryoneElse:
		h.broadcaster.Broadcast(origin, data)
		return max(h.broadcaster.Stats()-1, 0)
	}
	return 0
}

func encode(event string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(domain.Message{Event: event, Data: body})
}
