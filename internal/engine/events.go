package engine

// RoundContext locates a phase within its session for renderers.
type RoundContext struct {
	Round      int
	Rounds     int
	Station    int
	Stations   int
	PhaseIndex int
	PhaseCount int
	Next       *Phase
}

// Summary is handed to collaborators when a session completes.
type Summary struct {
	TotalPlanned    int
	TotalElapsed    int
	PhaseCount      int
	PhasesCompleted int
	PhasesSkipped   int
	Rounds          int
	RoundsCompleted int
}

// Listener receives engine events. Calls happen synchronously on the
// goroutine driving the engine with the new state already applied.
// Implementations may read the engine but must not call its control
// operations.
type Listener interface {
	PhaseEntered(phase Phase, ctx RoundContext)
	CountdownTick(secondsRemaining int)
	UpcomingChange(next Phase)
	SessionCompleted(summary Summary)
}

// ListenerFuncs adapts optional functions to the Listener interface.
type ListenerFuncs struct {
	OnPhaseEntered    func(Phase, RoundContext)
	OnCountdownTick   func(int)
	OnUpcomingChange  func(Phase)
	OnSessionComplete func(Summary)
}

func (f ListenerFuncs) PhaseEntered(phase Phase, ctx RoundContext) {
	if f.OnPhaseEntered != nil {
		f.OnPhaseEntered(phase, ctx)
	}
}

func (f ListenerFuncs) CountdownTick(secondsRemaining int) {
	if f.OnCountdownTick != nil {
		f.OnCountdownTick(secondsRemaining)
	}
}

func (f ListenerFuncs) UpcomingChange(next Phase) {
	if f.OnUpcomingChange != nil {
		f.OnUpcomingChange(next)
	}
}

func (f ListenerFuncs) SessionCompleted(summary Summary) {
	if f.OnSessionComplete != nil {
		f.OnSessionComplete(summary)
	}
}
