// internal/game/store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// MatchStore is the registry of running matches.
type MatchStore struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches: make(map[uuid.UUID]*Match),
	}
}

func (s *MatchStore) AddMatch(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *MatchStore) GetMatch(id uuid.UUID) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, exists := s.matches[id]
	return m, exists
}

// DeleteMatch removes the match and cancels its timers.
func (s *MatchStore) DeleteMatch(id uuid.UUID) {
	s.mu.Lock()
	m, exists := s.matches[id]
	delete(s.matches, id)
	s.mu.Unlock()
	if exists {
		m.Close()
	}
}

// Len counts registered matches.
func (s *MatchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// CloseAll cancels the timers of every match, for shutdown.
func (s *MatchStore) CloseAll() {
	s.mu.Lock()
	all := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		all = append(all, m)
	}
	s.mu.Unlock()
	for _, m := range all {
		m.Close()
	}
}
