package xcron

import (
	"sync"
	"time"
)

// JobStats 单个任务的执行统计快照
type JobStats struct {
	Runs         int64
	Failures     int64
	Skips        int64
	LastRun      time.Time
	LastDuration time.Duration
	LastError    string
}

type stats struct {
	mu   sync.Mutex
	jobs map[string]*JobStats
}

func newStats() *stats {
	return &stats{jobs: map[string]*JobStats{}}
}

func (s *stats) get(name string) *JobStats {
	js, ok := s.jobs[name]
	if !ok {
		js = &JobStats{}
		s.jobs[name] = js
	}
	return js
}

func (s *stats) record(name string, start time.Time, d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	js := s.get(name)
	js.Runs++
	js.LastRun = start
	js.LastDuration = d
	js.LastError = ""
	if err != nil {
		js.Failures++
		js.LastError = err.Error()
	}
}

func (s *stats) skip(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(name).Skips++
}

func (s *stats) snapshot() map[string]JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JobStats, len(s.jobs))
	for k, v := range s.jobs {
		out[k] = *v
	}
	return out
}
