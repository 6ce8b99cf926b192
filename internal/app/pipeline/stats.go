package pipeline

import (
	"sync"
	"time"

	"github.com/netcriptus/raiden-services/internal/domain"
)

type statsTracker struct {
	mu    sync.RWMutex
	stats domain.PollStats
}

func (s *statsTracker) recordPoll(success bool, duration time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalPolls++
	s.stats.LastDuration = duration
	if success {
		s.stats.SuccessfulPolls++
		s.stats.LastError = ""
		s.stats.LastSuccess = time.Now()
		return
	}
	s.stats.FailedPolls++
	if err != nil {
		s.stats.LastError = err.Error()
	}
}

func (s *statsTracker) snapshot() domain.PollStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
