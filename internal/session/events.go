package session

import (
	"time"

	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/pubsub"
)

// Runner event types.
const (
	EventPhaseEntered pubsub.EventType = "phase_entered"
	EventCountdown    pubsub.EventType = "countdown"
	EventUpcoming     pubsub.EventType = "upcoming_change"
	EventCompleted    pubsub.EventType = "completed"
	EventTick         pubsub.EventType = "tick"
	EventStatus       pubsub.EventType = "status"
	// EventReset carries the state from just before the reset.
	EventReset pubsub.EventType = "reset"
	// EventStopped is published once when Run returns.
	EventStopped pubsub.EventType = "stopped"
)

// Event is the payload of every runner event. Fields that do not apply to
// an event type are zero.
type Event struct {
	At time.Time

	// Phase is the entered phase, or the upcoming one for EventUpcoming.
	Phase engine.Phase
	Round engine.RoundContext

	// Remaining is the countdown value for EventCountdown.
	Remaining int

	// Skipped reports whether the phase left by this transition was skipped.
	Skipped bool

	Snapshot engine.Snapshot
	Summary  engine.Summary
}
