package cards

import (
	"encoding/json"
	"log/slog"

	"github.com/c-oreills/ringoffire/domain"
)

// Store holds the authoritative card layout. A nil deck means no layout has
// been established yet.
//
// Store is not safe for concurrent use; the dispatcher serializes access.
type Store struct {
	deck domain.Deck
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current deck.
func (s *Store) Snapshot() (domain.Deck, bool) {
	if s.deck == nil {
		return nil, false
	}
	return s.deck.Clone(), true
}

func (s *Store) Len() int {
	return len(s.deck)
}

// ApplyFullUpdate replaces the deck with the compacted form of incoming and
// returns a copy of what was stored.
func (s *Store) ApplyFullUpdate(incoming []json.RawMessage) domain.Deck {
	s.deck = Compact(incoming)
	return s.deck.Clone()
}

// ApplyPatch merges patch into the stored card with the same (suit, face).
// It reports whether a card was updated; unmatched patches are dropped.
func (s *Store) ApplyPatch(patch domain.Card) bool {
	key, ok := patch.Key()
	if !ok {
		return false
	}
	for _, c := range s.deck {
		if k, ok := c.Key(); ok && k == key {
			c.Merge(patch)
			return true
		}
	}
	return false
}

// Compact drops placeholder entries and later duplicates of a card key,
// keeping the relative order of the rest. The result is never nil.
func Compact(incoming []json.RawMessage) domain.Deck {
	deck := make(domain.Deck, 0, len(incoming))
	seen := make(map[domain.CardKey]struct{}, len(incoming))
	for i, raw := range incoming {
		c, ok := domain.ParseCard(raw)
		if !ok {
			continue
		}
		if key, ok := c.Key(); ok {
			if _, dup := seen[key]; dup {
				slog.Warn("duplicate card dropped", slog.Int("index", i), slog.String("suit", key.Suit), slog.String("face", key.Face))
				continue
			}
			seen[key] = struct{}{}
		}
		deck = append(deck, c)
	}
	return deck
}
