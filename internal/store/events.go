package store

import (
	"time"
)

// EventType names a store change the presentation layer may refresh on
type EventType string

const (
	EventUserChanged         EventType = "user.changed"
	EventTransactionsChanged EventType = "transactions.changed"
	EventTasksChanged        EventType = "tasks.changed"
	EventMediationChanged    EventType = "mediation.changed"
	EventSessionSuspended    EventType = "session.suspended"
)

const subscriberBuffer = 16

// Event is published after a committed mutation
type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"userId,omitempty"`
	At     time.Time `json:"at"`
}

// Subscribe returns a channel receiving every subsequent event and a func that
// unsubscribes and closes it. Slow subscribers miss events rather than block
// the store.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) publish(t EventType, userID string) {
	ev := Event{Type: t, UserID: userID, At: s.clock()}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
