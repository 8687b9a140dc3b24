// Package cue turns session events into audible cues.
package cue

import (
	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/pubsub"
	"github.com/mpataki/drill/internal/session"
)

type Cue string

const (
	PhaseWork Cue = "phase_work"
	PhaseRest Cue = "phase_rest"
	PhaseWarm Cue = "phase_warm"
	PhaseCool Cue = "phase_cool"
	Countdown Cue = "countdown"
	Upcoming  Cue = "upcoming"
	Complete  Cue = "complete"
)

// ForPhase returns the cue announcing a phase of the given kind.
func ForPhase(kind engine.PhaseKind) Cue {
	switch kind {
	case engine.KindRest:
		return PhaseRest
	case engine.KindWarm:
		return PhaseWarm
	case engine.KindCool:
		return PhaseCool
	default:
		return PhaseWork
	}
}

// FromEvent maps a runner event to its cue. Events without a cue report false.
func FromEvent(t pubsub.EventType, ev session.Event) (Cue, bool) {
	switch t {
	case session.EventPhaseEntered:
		return ForPhase(ev.Phase.Kind), true
	case session.EventCountdown:
		return Countdown, true
	case session.EventUpcoming:
		return Upcoming, true
	case session.EventCompleted:
		return Complete, true
	}
	return "", false
}
