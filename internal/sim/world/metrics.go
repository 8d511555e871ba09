package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from the CLI and tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Observers    int `json:"observers"`
	Seekers      int `json:"seekers"`
	LoadedChunks int `json:"loaded_chunks"`

	// Primary observer.
	Visible   int `json:"visible"`
	Memorized int `json:"memorized"`

	SkippedSystems uint64  `json:"skipped_systems"`
	StepMS         float64 `json:"step_ms"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

// Stats returns the moving per-system step durations.
func (w *World) Stats() []SystemStat {
	if w == nil {
		return nil
	}
	return w.stats.Snapshot()
}
