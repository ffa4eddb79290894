// Package conversation records chat exchanges handled during the process
// lifetime.
//
// The store is append-only: every entry gets a freshly generated ULID key and
// is never updated or removed in place, which keeps concurrent handler
// invocations free of write conflicts. Entries accumulate for the life of the
// process; there is no eviction.
package conversation

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Parameters captures the generation settings used for an exchange.
type Parameters struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Entry is one recorded exchange.
type Entry struct {
	ID           string     `json:"id"`
	Timestamp    time.Time  `json:"timestamp"`
	UserMessage  string     `json:"user_message"`
	SystemPrompt string     `json:"system_prompt,omitempty"`
	Response     string     `json:"llm_response"`
	Parameters   Parameters `json:"parameters"`
}

// Store is an append-only, insertion-ordered record of exchanges.
type Store struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

// Append records an exchange under a freshly generated unique id and returns
// that id. The id is never reused, so concurrent appends cannot conflict.
func (s *Store) Append(entry Entry) string {
	id := ulid.Make().String()

	entry.ID = id
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = append(s.order, id)
	s.entries[id] = entry

	return id
}

// Snapshot returns all entries in insertion order.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}

	return out
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}
