// Package session owns the single running Game and serializes access to
// it. Use cases never touch the Game outside Do.
package session

import (
	"strings"
	"sync"

	"villagelife/internal/domain/event"
	"villagelife/internal/domain/village"
)

const DefaultSlot = "default"

type Session struct {
	mu      sync.Mutex
	game    *village.Game
	slot    string
	version int64
	events  *event.Collector
	unsub   func()
}

// New wraps game and starts collecting every event it publishes.
func New(game *village.Game, slot string) *Session {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		slot = DefaultSlot
	}
	s := &Session{game: game, slot: slot, events: &event.Collector{}}
	s.unsub = game.Bus().Subscribe(event.TopicAll, s.events.Handle)
	return s
}

// Do runs fn with exclusive access to the game.
func (s *Session) Do(fn func(g *village.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.game)
}

// Drain returns the events published since the last drain.
func (s *Session) Drain() []event.DomainEvent {
	return s.events.Drain()
}

func (s *Session) Slot() string { return s.slot }

// Version is the save version last read or written for the slot.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Session) SetVersion(v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

// Close stops collecting events.
func (s *Session) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}
