package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpataki/drill/internal/clock"
	"github.com/mpataki/drill/internal/cue"
	"github.com/mpataki/drill/internal/log"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/session"
	"github.com/mpataki/drill/internal/storage"
	"github.com/mpataki/drill/internal/workout"
)

type Options struct {
	TickInterval time.Duration
	// CueEnabled filters cues by name. Nil plays every cue.
	CueEnabled func(string) bool
	// NewSource overrides the clock source for each session.
	NewSource func() clock.Source
	Now       func() time.Time
}

type Orchestrator struct {
	storage storage.Store
	player  cue.Player
	opts    Options
	logger  zerolog.Logger
}

func New(store storage.Store, player cue.Player, opts Options) *Orchestrator {
	if player == nil {
		player = cue.Noop{}
	}
	if opts.NewSource == nil {
		interval := opts.TickInterval
		opts.NewSource = func() clock.Source { return clock.NewTicker(interval) }
	}
	return &Orchestrator{
		storage: store,
		player:  player,
		opts:    opts,
		logger:  log.WithComponent("orchestrator"),
	}
}

// Active is a session in progress with its recorder and cue dispatcher.
type Active struct {
	Workout  *models.Workout
	Runner   *session.Runner
	recorder *session.Recorder
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// StartSession validates w and launches its runner, recorder and cue
// dispatcher. The session stays idle until Runner.Start is called. It ends
// when ctx is cancelled or Stop is called.
func (o *Orchestrator) StartSession(ctx context.Context, w *models.Workout) (*Active, error) {
	if err := workout.Validate(w); err != nil {
		return nil, fmt.Errorf("failed to validate workout: %w", err)
	}

	runner, err := session.NewRunner(w.EngineConfig(), session.RunnerOptions{
		Source: o.opts.NewSource(),
		Now:    o.opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &Active{
		Workout:  w,
		Runner:   runner,
		recorder: session.NewRecorder(o.storage, w.Name),
		cancel:   cancel,
	}

	// Subscriptions outlive ctx so the final stopped event is delivered.
	recEvents := runner.Subscribe(context.Background())
	cueEvents := runner.Subscribe(context.Background())
	dispatcher := cue.NewDispatcher(o.player, o.opts.CueEnabled)

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		runner.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.recorder.Run(recEvents)
	}()
	go func() {
		defer a.wg.Done()
		dispatcher.Run(context.Background(), cueEvents)
	}()

	o.logger.Info().Str("workout", w.Name).Int("phases", runner.Timeline().Len()).Msg("session ready")
	return a, nil
}

// Stop ends the session and waits for pending writes and cues. An
// unfinished session is recorded as abandoned.
func (a *Active) Stop() {
	a.cancel()
	a.wg.Wait()
}

// SessionIDs returns the stored sessions this run produced. Call after Stop.
func (a *Active) SessionIDs() []int64 {
	return a.recorder.Sessions()
}

// Read methods for TUI

func (o *Orchestrator) ListSessions(limit int) ([]*models.Session, error) {
	return o.storage.ListSessions(limit)
}

func (o *Orchestrator) GetSession(id int64) (*models.Session, error) {
	return o.storage.GetSession(id)
}

func (o *Orchestrator) GetPhaseLogs(sessionID int64) ([]*models.PhaseLog, error) {
	return o.storage.GetPhaseLogs(sessionID)
}

func (o *Orchestrator) Totals() (storage.Totals, error) {
	return o.storage.Totals()
}

func (o *Orchestrator) DeleteSession(id int64) error {
	if _, err := o.storage.GetSession(id); err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return o.storage.DeleteSession(id)
}
