package domain

import (
	"sort"
	"time"
)

// State names a node of the conversation graph
type State string

const (
	StateStart    State = "start"
	StateAdding   State = "adding"
	StateRemoving State = "removing"
	StateEnd      State = "end"
)

// Session holds a user's groceries conversation progress.
// Items is append-only by key: removing an item flips its flag to false.
type Session struct {
	UserID    int64           `json:"user_id"`
	State     State           `json:"state"`
	Items     map[string]bool `json:"items"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSession creates an empty session in the start state
func NewSession(userID int64) *Session {
	return &Session{
		UserID: userID,
		State:  StateStart,
		Items:  make(map[string]bool),
	}
}

// Add marks an item as present, creating the key when needed
func (s *Session) Add(name string) {
	if s.Items == nil {
		s.Items = make(map[string]bool)
	}
	s.Items[name] = true
}

// Remove flags a known item as absent. Reports false if the item was never added.
func (s *Session) Remove(name string) bool {
	if _, ok := s.Items[name]; !ok {
		return false
	}
	s.Items[name] = false
	return true
}

// Present returns the sorted names of items currently in the list
func (s *Session) Present() []string {
	return s.filter(true)
}

// Absent returns the sorted names of known items not currently in the list
func (s *Session) Absent() []string {
	return s.filter(false)
}

func (s *Session) filter(flag bool) []string {
	var names []string
	for name, present := range s.Items {
		if present == flag {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	out := *s
	out.Items = make(map[string]bool, len(s.Items))
	for k, v := range s.Items {
		out.Items[k] = v
	}
	return &out
}
