// Package transcript keeps a short history of what reached the chatbox
package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/AymNine/vrc-osc-scripts/internal/output"
)

// Event types pushed to mirror subscribers.
const (
	EventTyping  = "typing"
	EventDisplay = "display"
)

// Event is one chatbox change.
type Event struct {
	Type      string                `json:"type"`
	Typing    bool                  `json:"typing,omitempty"`
	Display   *output.DisplayUpdate `json:"display,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// Entry is one dispatched display update.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Text       string    `json:"text"`
	Language   string    `json:"language"`
	Normalized bool      `json:"normalized"`
	Final      bool      `json:"final"`
}

// Store is the read side used by the HTTP mirror.
type Store interface {
	Recent(window time.Duration) []Entry
	Events() <-chan Event
}

// MemoryStore implements output.Output by recording updates in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	maxSize  int
	maxAge   time.Duration
	eventsCh chan Event
	closed   bool
	now      func() time.Time
}

// NewStore creates a history holding at most maxEntries updates no older than maxAge.
// A zero maxAge keeps entries until they are pushed out by size.
func NewStore(maxEntries int, maxAge time.Duration, eventBuffer int) *MemoryStore {
	return &MemoryStore{
		entries:  make([]Entry, 0, maxEntries),
		maxSize:  maxEntries,
		maxAge:   maxAge,
		eventsCh: make(chan Event, eventBuffer),
		now:      time.Now,
	}
}

// Name identifies the mirror in fan-out errors.
func (s *MemoryStore) Name() string { return "mirror" }

// SetTyping emits a typing event. Typing state is not kept in history.
func (s *MemoryStore) SetTyping(_ context.Context, typing bool) error {
	s.Emit(Event{Type: EventTyping, Typing: typing, Timestamp: s.now()})
	return nil
}

// Display records u and emits a display event.
func (s *MemoryStore) Display(_ context.Context, u output.DisplayUpdate) error {
	now := s.now()
	s.add(Entry{
		Timestamp:  now,
		Text:       u.Text,
		Language:   u.Language,
		Normalized: u.Normalized,
		Final:      u.Final,
	})
	s.Emit(Event{Type: EventDisplay, Display: &u, Timestamp: now})
	return nil
}

func (s *MemoryStore) add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[len(s.entries)-s.maxSize:]
	}
	if s.maxAge > 0 {
		s.pruneLocked(e.Timestamp.Add(-s.maxAge))
	}
}

// Entries are appended in time order, so expired ones form a prefix.
func (s *MemoryStore) pruneLocked(cutoff time.Time) {
	i := 0
	for i < len(s.entries) && s.entries[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.entries = append(s.entries[:0], s.entries[i:]...)
	}
}

// Recent returns updates from the last window, oldest first. A zero window returns everything.
func (s *MemoryStore) Recent(window time.Duration) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cutoff time.Time
	if window > 0 {
		cutoff = s.now().Add(-window)
	}
	result := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Timestamp.Before(cutoff) {
			result = append(result, e)
		}
	}
	return result
}

// Events returns the channel for chatbox events.
func (s *MemoryStore) Events() <-chan Event {
	return s.eventsCh
}

// Emit sends an event (non-blocking). Events are dropped when nobody drains the channel.
func (s *MemoryStore) Emit(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.eventsCh <- event:
	default:
	}
}

// Close ends the event stream.
func (s *MemoryStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.eventsCh)
	}
}
