// Package engine sequences the timed phases of a workout session.
//
// An Engine owns a precomputed Timeline and a single SessionState. It holds
// no goroutines and never blocks: an external clock calls Tick once per
// elapsed second while the session is running, and control operations
// (Start, Pause, SkipPhase, Reset) take effect synchronously. Engines are not
// goroutine-safe; callers with real parallelism must serialize access.
package engine

import (
	"github.com/mpataki/drill/internal/log"
)

// CountdownWindow is the number of final seconds of a phase that produce
// countdown ticks.
const CountdownWindow = 5

// Status is the run status of a session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// SessionState is the mutable run state of one session.
type SessionState struct {
	TimelineIndex  int
	PhaseRemaining int
	TotalElapsed   int
	Status         Status
	CueFired       bool
}

// Engine drives one session through its timeline.
type Engine struct {
	timeline Timeline
	state    SessionState
	listener Listener

	phasesCompleted int
	phasesSkipped   int
	roundsCompleted int
}

// New builds the timeline for cfg and returns an idle engine. listener may be nil.
func New(cfg Config, listener Listener) (*Engine, error) {
	tl, err := BuildTimeline(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{timeline: tl, listener: listener}
	e.Reset()
	return e, nil
}

// Configure rebuilds the timeline from cfg and returns the engine to idle,
// discarding any session in progress. On error the engine is unchanged.
func (e *Engine) Configure(cfg Config) error {
	tl, err := BuildTimeline(cfg)
	if err != nil {
		return err
	}
	e.timeline = tl
	e.Reset()
	return nil
}

// Timeline returns the engine's timeline.
func (e *Engine) Timeline() Timeline { return e.timeline }

// State returns a copy of the current session state.
func (e *Engine) State() SessionState { return e.state }

// Status returns the current run status.
func (e *Engine) Status() Status { return e.state.Status }

// Start begins an idle session or resumes a paused one.
func (e *Engine) Start() error {
	switch e.state.Status {
	case StatusPaused:
		e.state.Status = StatusRunning
		return nil
	case StatusIdle:
		e.Reset()
		e.state.Status = StatusRunning
		first := e.timeline.Phases[0]
		e.notify("phase_entered", func(l Listener) { l.PhaseEntered(first, e.roundContext(0)) })
		return nil
	default:
		return &TransitionError{Op: "start", Status: e.state.Status}
	}
}

// Tick advances the running session by one second.
func (e *Engine) Tick() error {
	if e.state.Status != StatusRunning {
		return &TransitionError{Op: "tick", Status: e.state.Status}
	}

	e.state.PhaseRemaining--
	e.state.TotalElapsed++

	remaining := e.state.PhaseRemaining
	if remaining >= 1 && remaining <= CountdownWindow {
		e.notify("countdown_tick", func(l Listener) { l.CountdownTick(remaining) })

		current := e.timeline.Phases[e.state.TimelineIndex]
		if current.AnnounceNext && !e.state.CueFired {
			e.state.CueFired = true
			next := e.timeline.Phases[e.state.TimelineIndex+1]
			e.notify("upcoming_change", func(l Listener) { l.UpcomingChange(next) })
		}
	}

	if e.state.PhaseRemaining <= 0 {
		e.advance(false)
	}
	return nil
}

// Pause freezes a running session. Counters are preserved.
func (e *Engine) Pause() error {
	if e.state.Status != StatusRunning {
		return &TransitionError{Op: "pause", Status: e.state.Status}
	}
	e.state.Status = StatusPaused
	return nil
}

// SkipPhase ends the current phase immediately. No countdown ticks are
// emitted for the skipped remainder and the skipped seconds are not counted
// as elapsed. A paused session stays paused in the new phase.
func (e *Engine) SkipPhase() error {
	if e.state.Status != StatusRunning && e.state.Status != StatusPaused {
		return &TransitionError{Op: "skip", Status: e.state.Status}
	}
	e.state.PhaseRemaining = 0
	e.advance(true)
	return nil
}

// Reset returns the engine to the state immediately after construction.
func (e *Engine) Reset() {
	e.state = SessionState{
		TimelineIndex:  0,
		PhaseRemaining: e.timeline.Phases[0].Seconds,
		TotalElapsed:   0,
		Status:         StatusIdle,
	}
	e.phasesCompleted = 0
	e.phasesSkipped = 0
	e.roundsCompleted = 0
}

// Summary reports progress so far. After completion it equals the summary
// delivered to SessionCompleted.
func (e *Engine) Summary() Summary {
	return Summary{
		TotalPlanned:    e.timeline.TotalPlanned,
		TotalElapsed:    e.state.TotalElapsed,
		PhaseCount:      e.timeline.Len(),
		PhasesCompleted: e.phasesCompleted,
		PhasesSkipped:   e.phasesSkipped,
		Rounds:          e.timeline.Rounds,
		RoundsCompleted: e.roundsCompleted,
	}
}

func (e *Engine) advance(skipped bool) {
	current := e.timeline.Phases[e.state.TimelineIndex]
	e.phasesCompleted++
	if skipped {
		e.phasesSkipped++
	}
	if current.Kind == KindWork && current.Station == e.timeline.Stations-1 {
		e.roundsCompleted++
	}

	e.state.TimelineIndex++
	e.state.CueFired = false

	if e.state.TimelineIndex >= e.timeline.Len() {
		e.state.Status = StatusCompleted
		e.state.PhaseRemaining = 0
		summary := e.Summary()
		e.notify("session_completed", func(l Listener) { l.SessionCompleted(summary) })
		return
	}

	next := e.timeline.Phases[e.state.TimelineIndex]
	e.state.PhaseRemaining = next.Seconds
	ctx := e.roundContext(e.state.TimelineIndex)
	e.notify("phase_entered", func(l Listener) { l.PhaseEntered(next, ctx) })
}

func (e *Engine) roundContext(index int) RoundContext {
	p := e.timeline.Phases[index]
	ctx := RoundContext{
		Round:      p.Round,
		Rounds:     e.timeline.Rounds,
		Station:    p.Station,
		Stations:   e.timeline.Stations,
		PhaseIndex: index,
		PhaseCount: e.timeline.Len(),
	}
	if index+1 < e.timeline.Len() {
		next := e.timeline.Phases[index+1]
		ctx.Next = &next
	}
	return ctx
}

// notify delivers an event and contains listener panics so a failing
// collaborator cannot stop the session.
func (e *Engine) notify(event string, deliver func(Listener)) {
	if e.listener == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger := log.WithComponent("engine")
			logger.Error().Str("event", event).Interface("panic", r).Msg("listener panicked")
		}
	}()
	deliver(e.listener)
}
