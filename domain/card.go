package domain

import "encoding/json"

// Card is a playing card as the clients describe it. Only suit and face are
// interpreted; every other field (position, face-up state, ...) is carried
// through untouched.
type Card map[string]json.RawMessage

// CardKey identifies a card within a deck.
type CardKey struct {
	Suit string
	Face string
}

// Deck is an ordered card layout.
type Deck []Card

// ParseCard decodes one deck entry. Null, empty and non-object entries are
// reported as not a card.
func ParseCard(raw json.RawMessage) (Card, bool) {
	var c Card
	if err := json.Unmarshal(raw, &c); err != nil || len(c) == 0 {
		return nil, false
	}
	return c, true
}

// Key returns the (suit, face) identity. ok is false when either field is
// missing or not a string.
func (c Card) Key() (key CardKey, ok bool) {
	if !c.stringField("suit", &key.Suit) || !c.stringField("face", &key.Face) {
		return CardKey{}, false
	}
	return key, true
}

func (c Card) stringField(name string, dst *string) bool {
	raw, ok := c[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// Merge overwrites c's fields with those of patch.
func (c Card) Merge(patch Card) {
	for k, v := range patch {
		c[k] = v
	}
}

func (c Card) Clone() Card {
	out := make(Card, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (d Deck) Clone() Deck {
	out := make(Deck, len(d))
	for i, c := range d {
		out[i] = c.Clone()
	}
	return out
}
