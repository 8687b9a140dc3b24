package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpataki/drill/internal/clock"
	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/log"
	"github.com/mpataki/drill/internal/pubsub"
)

// ErrStopped is returned by commands sent after Run has returned.
var ErrStopped = errors.New("runner stopped")

type op int

const (
	opStart op = iota
	opPause
	opToggle
	opSkip
	opReset
	opSnapshot
)

func (o op) String() string {
	switch o {
	case opStart:
		return "start"
	case opPause:
		return "pause"
	case opToggle:
		return "toggle"
	case opSkip:
		return "skip"
	case opReset:
		return "reset"
	default:
		return "snapshot"
	}
}

type command struct {
	op    op
	reply chan reply
}

type reply struct {
	snap engine.Snapshot
	err  error
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Source delivers clock readings. Defaults to a 200ms ticker.
	Source clock.Source
	// Now reports the current time for commands. Defaults to time.Now.
	Now func() time.Time
	// MaxCatchUp bounds the seconds applied from a single late reading.
	MaxCatchUp int
	// Buffer is the per-subscriber event buffer.
	Buffer int
}

// Runner owns one engine and drives it from a single goroutine. Commands
// and clock readings are serialized through Run; events are fanned out
// through a broker.
type Runner struct {
	eng    *engine.Engine
	source clock.Source
	now    func() time.Time
	acc    clock.Accumulator
	broker *pubsub.Broker[Event]
	logger zerolog.Logger

	cmds chan command
	done chan struct{}

	// at is the time of the reading or command being processed.
	at       time.Time
	skipping bool
}

// NewRunner builds the timeline for cfg and returns an idle runner.
func NewRunner(cfg engine.Config, opts RunnerOptions) (*Runner, error) {
	if opts.Source == nil {
		opts.Source = clock.NewTicker(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}

	r := &Runner{
		source: opts.Source,
		now:    opts.Now,
		acc:    clock.Accumulator{MaxCatchUp: opts.MaxCatchUp},
		broker: pubsub.NewBrokerWithBuffer[Event](opts.Buffer),
		logger: log.WithComponent("runner"),
		cmds:   make(chan command),
		done:   make(chan struct{}),
	}

	eng, err := engine.New(cfg, engine.ListenerFuncs{
		OnPhaseEntered:    r.onPhaseEntered,
		OnCountdownTick:   r.onCountdown,
		OnUpcomingChange:  r.onUpcoming,
		OnSessionComplete: r.onCompleted,
	})
	if err != nil {
		opts.Source.Stop()
		return nil, err
	}
	r.eng = eng
	return r, nil
}

// Timeline returns the runner's timeline. Safe to call at any time.
func (r *Runner) Timeline() engine.Timeline { return r.eng.Timeline() }

// Subscribe returns a channel of runner events closed when ctx is done or
// the runner stops.
func (r *Runner) Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return r.broker.Subscribe(ctx)
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run processes commands and clock readings until ctx is cancelled.
// It always returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.broker.Close()
	defer r.source.Stop()

	r.logger.Debug().Int("phases", r.eng.Timeline().Len()).Msg("runner started")

	for {
		select {
		case <-ctx.Done():
			r.at = r.now()
			r.publish(EventStopped, Event{})
			r.logger.Debug().Str("status", string(r.eng.Status())).Msg("runner stopped")
			return ctx.Err()

		case cmd := <-r.cmds:
			r.at = r.now()
			snap, err := r.handle(cmd.op)
			cmd.reply <- reply{snap: snap, err: err}

		case now := <-r.source.C():
			r.onReading(now)
		}
	}
}

func (r *Runner) handle(o op) (engine.Snapshot, error) {
	if o == opSnapshot {
		return r.eng.Snapshot(), nil
	}
	if o == opToggle {
		o = opStart
		if r.eng.Status() == engine.StatusRunning {
			o = opPause
		}
	}

	var err error
	switch o {
	case opStart:
		if err = r.eng.Start(); err == nil {
			r.acc.Rebase(r.at)
		}
	case opPause:
		err = r.eng.Pause()
	case opSkip:
		r.skipping = true
		err = r.eng.SkipPhase()
		r.skipping = false
	case opReset:
		r.publish(EventReset, Event{})
		r.eng.Reset()
	}

	if err != nil {
		r.logger.Debug().Err(err).Str("op", o.String()).Msg("command rejected")
		return r.eng.Snapshot(), err
	}
	r.publish(EventStatus, Event{})
	return r.eng.Snapshot(), nil
}

func (r *Runner) onReading(now time.Time) {
	if r.eng.Status() != engine.StatusRunning {
		return
	}
	r.at = now
	seconds := r.acc.Advance(now)
	if seconds == 0 {
		return
	}
	for i := 0; i < seconds && r.eng.Status() == engine.StatusRunning; i++ {
		if err := r.eng.Tick(); err != nil {
			r.logger.Error().Err(err).Msg("tick failed")
			return
		}
	}
	r.publish(EventTick, Event{})
}

// publish stamps ev with the current time, snapshot and summary.
func (r *Runner) publish(t pubsub.EventType, ev Event) {
	ev.At = r.at
	ev.Snapshot = r.eng.Snapshot()
	ev.Summary = r.eng.Summary()
	r.broker.Publish(t, ev)
}

func (r *Runner) onPhaseEntered(p engine.Phase, rc engine.RoundContext) {
	r.logger.Debug().Int("index", p.Index).Str("label", p.Label).Str("kind", string(p.Kind)).Msg("phase entered")
	r.publish(EventPhaseEntered, Event{Phase: p, Round: rc, Skipped: r.skipping})
}

func (r *Runner) onCountdown(remaining int) {
	r.publish(EventCountdown, Event{Remaining: remaining})
}

func (r *Runner) onUpcoming(next engine.Phase) {
	r.publish(EventUpcoming, Event{Phase: next})
}

func (r *Runner) onCompleted(summary engine.Summary) {
	r.logger.Info().
		Int("elapsed", summary.TotalElapsed).
		Int("planned", summary.TotalPlanned).
		Int("skipped", summary.PhasesSkipped).
		Msg("session completed")
	r.publish(EventCompleted, Event{Skipped: r.skipping})
}

// Start begins or resumes the session.
func (r *Runner) Start(ctx context.Context) (engine.Snapshot, error) { return r.do(ctx, opStart) }

// Pause freezes a running session.
func (r *Runner) Pause(ctx context.Context) (engine.Snapshot, error) { return r.do(ctx, opPause) }

// Toggle pauses a running session and starts or resumes any other.
func (r *Runner) Toggle(ctx context.Context) (engine.Snapshot, error) { return r.do(ctx, opToggle) }

// Skip ends the current phase.
func (r *Runner) Skip(ctx context.Context) (engine.Snapshot, error) { return r.do(ctx, opSkip) }

// Reset returns the session to idle.
func (r *Runner) Reset(ctx context.Context) (engine.Snapshot, error) { return r.do(ctx, opReset) }

// Snapshot returns the current state.
func (r *Runner) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	return r.do(ctx, opSnapshot)
}

func (r *Runner) do(ctx context.Context, o op) (engine.Snapshot, error) {
	cmd := command{op: o, reply: make(chan reply, 1)}
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return engine.Snapshot{}, ErrStopped
	case <-ctx.Done():
		return engine.Snapshot{}, ctx.Err()
	}

	select {
	case rep := <-cmd.reply:
		return rep.snap, rep.err
	case <-ctx.Done():
		return engine.Snapshot{}, ctx.Err()
	}
}
