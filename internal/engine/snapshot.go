package engine

// Snapshot is a read-only view of the session for renderers.
type Snapshot struct {
	Status         Status
	Phase          Phase
	HasPhase       bool
	Next           *Phase
	PhaseIndex     int
	PhaseCount     int
	PhaseRemaining int
	TotalElapsed   int
	TotalPlanned   int
	Rounds         int
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Status:         e.state.Status,
		PhaseIndex:     e.state.TimelineIndex,
		PhaseCount:     e.timeline.Len(),
		PhaseRemaining: e.state.PhaseRemaining,
		TotalElapsed:   e.state.TotalElapsed,
		TotalPlanned:   e.timeline.TotalPlanned,
		Rounds:         e.timeline.Rounds,
	}
	if e.state.TimelineIndex < e.timeline.Len() {
		s.Phase = e.timeline.Phases[e.state.TimelineIndex]
		s.HasPhase = true
		if e.state.TimelineIndex+1 < e.timeline.Len() {
			next := e.timeline.Phases[e.state.TimelineIndex+1]
			s.Next = &next
		}
	}
	return s
}

// PhaseProgress returns the fraction of the current phase already done.
func (s Snapshot) PhaseProgress() float64 {
	if !s.HasPhase || s.Phase.Seconds <= 0 {
		if s.Status == StatusCompleted {
			return 1
		}
		return 0
	}
	return clamp(float64(s.Phase.Seconds-s.PhaseRemaining) / float64(s.Phase.Seconds))
}

// SessionProgress returns the fraction of planned session time elapsed.
func (s Snapshot) SessionProgress() float64 {
	if s.Status == StatusCompleted {
		return 1
	}
	if s.TotalPlanned <= 0 {
		return 0
	}
	return clamp(float64(s.TotalElapsed) / float64(s.TotalPlanned))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
