// internal/autoplay/scheduler.go
package autoplay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type taskKey struct {
	match  uuid.UUID
	player uuid.UUID
}

// Scheduler runs delayed COM actions. Each match/player pair holds at most
// one pending task; scheduling again replaces it.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[taskKey]*time.Timer
	logger *logrus.Logger
}

func NewScheduler(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		tasks:  make(map[taskKey]*time.Timer),
		logger: logger,
	}
}

// Schedule runs fn after delay unless cleared first.
func (s *Scheduler) Schedule(matchID, playerID uuid.UUID, delay time.Duration, fn func()) {
	key := taskKey{matchID, playerID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.tasks[key]; ok {
		old.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.tasks[key] != timer {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, key)
		s.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				s.logger.WithFields(logrus.Fields{
					"match":  matchID,
					"player": playerID,
				}).Errorf("autoplay task panicked: %v", r)
			}
		}()
		fn()
	})
	s.tasks[key] = timer
}

// Clear cancels the pending task of one player.
func (s *Scheduler) Clear(matchID, playerID uuid.UUID) {
	key := taskKey{matchID, playerID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[key]; ok {
		t.Stop()
		delete(s.tasks, key)
	}
}

// ClearMatch cancels every pending task of a match.
func (s *Scheduler) ClearMatch(matchID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tasks {
		if key.match == matchID {
			t.Stop()
			delete(s.tasks, key)
		}
	}
}

// Pending counts tasks that have not fired or been cleared.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
