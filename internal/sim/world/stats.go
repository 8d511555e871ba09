package world

import (
	"sort"
	"sync"
	"time"
)

// statsWindow is how many samples a system average accumulates before it
// restarts from the latest sample.
const statsWindow = 100

type SystemStat struct {
	System  string        `json:"system"`
	Avg     time.Duration `json:"avg"`
	Samples int           `json:"samples"`
}

// SystemStats keeps a moving average of per-system step durations. It is
// written by the world loop and read from anywhere.
type SystemStats struct {
	mu   sync.Mutex
	avgs map[string]*SystemStat
}

func NewSystemStats() *SystemStats {
	return &SystemStats{avgs: map[string]*SystemStat{}}
}

func (s *SystemStats) Observe(system string, d time.Duration) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.avgs[system]
	if st == nil {
		s.avgs[system] = &SystemStat{System: system, Avg: d, Samples: 1}
		return
	}
	st.Samples++
	st.Avg = (time.Duration(st.Samples-1)*st.Avg + d) / time.Duration(st.Samples)
	if st.Samples > statsWindow {
		st.Samples = 1
		st.Avg = d
	}
}

// Snapshot returns the current averages ordered by system name.
func (s *SystemStats) Snapshot() []SystemStat {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SystemStat, 0, len(s.avgs))
	for _, st := range s.avgs {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].System < out[j].System })
	return out
}

// Total is the sum of the current averages.
func (s *SystemStats) Total() time.Duration {
	var total time.Duration
	for _, st := range s.Snapshot() {
		total += st.Avg
	}
	return total
}
