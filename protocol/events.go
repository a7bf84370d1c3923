package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/c-oreills/ringoffire/cards"
	"github.com/c-oreills/ringoffire/domain"
	"github.com/c-oreills/ringoffire/logging"
	"github.com/c-oreills/ringoffire/registry"
)

type targetKind int

const (
	toOrigin targetKind = iota
	toPeers
	toEveryone
	toEveryoneElse
)

// Target selects the connections an outbound message is delivered to.
type Target struct {
	kind    targetKind
	handles []string
}

// ToOrigin addresses the connection the inbound event came from.
func ToOrigin() Target { return Target{kind: toOrigin} }

// ToPeers addresses an explicit set of registered handles.
func ToPeers(handles []string) Target { return Target{kind: toPeers, handles: handles} }

// ToEveryone addresses every live connection, the origin included.
func ToEveryone() Target { return Target{kind: toEveryone} }

// ToEveryoneElse addresses every live connection but the origin.
func ToEveryoneElse() Target { return Target{kind: toEveryoneElse} }

// Outbound is one message a handler wants emitted.
type Outbound struct {
	Event   string
	Payload any
	Target  Target
}

// Table is the server-owned session state handlers operate on.
type Table struct {
	Registry *registry.Registry
	Cards    *cards.Store
}

func NewTable() *Table {
	return &Table{
		Registry: registry.New(),
		Cards:    cards.NewStore(),
	}
}

// eventHandler applies one inbound event from origin to the table and
// returns what must be sent. An error means the event was dropped.
type eventHandler func(t *Table, origin string, data json.RawMessage) ([]Outbound, error)

var handlers = map[string]eventHandler{
	domain.EventConnect:      handleConnect,
	domain.EventRegister:     handleRegister,
	domain.EventClientCursor: handleCursorUpdate,
	domain.EventClientCard:   handleCardUpdate,
	domain.EventClientCards:  handleCardsUpdate,
	domain.EventDisconnect:   handleDisconnect,
}

func handleConnect(*Table, string, json.RawMessage) ([]Outbound, error) {
	return nil, nil
}

func handleRegister(t *Table, origin string, data json.RawMessage) ([]Outbound, error) {
	// Anything but a JSON string registers under the fallback name.
	var query string
	_ = json.Unmarshal(data, &query)
	name := t.Registry.Register(origin, query)
	slog.Info("register", logging.Participant(name), logging.Conn(origin))

	deck, ok := t.Cards.Snapshot()
	if !ok || len(deck) == 0 {
		return nil, nil
	}
	return []Outbound{{Event: domain.EventServerCards, Payload: deck, Target: ToOrigin()}}, nil
}

func handleCursorUpdate(t *Table, origin string, data json.RawMessage) ([]Outbound, error) {
	var cursor map[string]json.RawMessage
	if err := json.Unmarshal(data, &cursor); err != nil || cursor == nil {
		return nil, fmt.Errorf("cursor payload: %w", domain.ErrInvalidPayload)
	}
	name, err := json.Marshal(senderName(t, origin))
	if err != nil {
		return nil, fmt.Errorf("cursor name: %w", err)
	}
	cursor["name"] = name

	return []Outbound{{
		Event:   domain.EventServerCursor,
		Payload: cursor,
		Target:  ToPeers(t.Registry.OtherHandles(origin)),
	}}, nil
}

func handleCardUpdate(t *Table, origin string, data json.RawMessage) ([]Outbound, error) {
	var card domain.Card
	if err := json.Unmarshal(data, &card); err != nil || card == nil {
		return nil, fmt.Errorf("card payload: %w", domain.ErrInvalidPayload)
	}
	if !t.Cards.ApplyPatch(card) {
		slog.Debug("card patch not stored", logging.Conn(origin))
	}

	return []Outbound{{
		Event:   domain.EventServerCard,
		Payload: card,
		Target:  ToPeers(t.Registry.OtherHandles(origin)),
	}}, nil
}

func handleCardsUpdate(t *Table, origin string, data json.RawMessage) ([]Outbound, error) {
	var incoming []json.RawMessage
	if err := json.Unmarshal(data, &incoming); err != nil || incoming == nil {
		return nil, fmt.Errorf("cards payload: %w", domain.ErrInvalidPayload)
	}
	deck := t.Cards.ApplyFullUpdate(incoming)
	slog.Info("deck replaced", logging.Conn(origin), slog.Int("received", len(incoming)), slog.Int("stored", len(deck)))

	return []Outbound{{Event: domain.EventServerCards, Payload: deck, Target: ToEveryone()}}, nil
}

func handleDisconnect(t *Table, origin string, _ json.RawMessage) ([]Outbound, error) {
	name, ok := t.Registry.Deregister(origin)
	var payload *string
	if ok {
		payload = &name
	}
	slog.Info("deregister", logging.Participant(name), logging.Conn(origin))

	return []Outbound{{Event: domain.EventDeregister, Payload: payload, Target: ToEveryoneElse()}}, nil
}

// senderName is nil for a connection that has not registered yet.
func senderName(t *Table, origin string) *string {
	name, ok := t.Registry.ResolveName(origin)
	if !ok {
		return nil
	}
	return &name
}
