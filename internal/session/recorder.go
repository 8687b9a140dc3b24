package session

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/log"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/pubsub"
	"github.com/mpataki/drill/internal/storage"
)

// Recorder persists the sessions a runner plays. A session row is created
// when the first phase is entered and closed as complete when the runner
// completes, or abandoned when it is reset or stopped first.
type Recorder struct {
	store       storage.Store
	workoutName string
	logger      zerolog.Logger

	session      *models.Session
	current      *models.PhaseLog
	entryElapsed int
	recorded     []int64
}

func NewRecorder(store storage.Store, workoutName string) *Recorder {
	return &Recorder{
		store:       store,
		workoutName: workoutName,
		logger: log.Derive(func(c *zerolog.Context) {
			*c = c.Str("component", "recorder").Str("workout", workoutName)
		}),
	}
}

// Run consumes events until the channel closes. Storage errors are logged
// and the event dropped.
func (rec *Recorder) Run(events <-chan pubsub.Event[Event]) {
	for ev := range events {
		if err := rec.Handle(ev.Type, ev.Payload); err != nil {
			rec.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("failed to record event")
		}
	}
}

// Sessions returns the IDs of sessions recorded so far, oldest first.
// Not safe to call while Run is consuming events.
func (rec *Recorder) Sessions() []int64 {
	return append([]int64(nil), rec.recorded...)
}

// Handle applies one runner event.
func (rec *Recorder) Handle(t pubsub.EventType, ev Event) error {
	switch t {
	case EventPhaseEntered:
		if rec.session == nil {
			if err := rec.begin(ev); err != nil {
				return err
			}
		} else if err := rec.closePhase(ev, ev.Skipped); err != nil {
			return err
		}
		return rec.openPhase(ev)

	case EventCompleted:
		if rec.session == nil {
			return nil
		}
		if err := rec.closePhase(ev, ev.Skipped); err != nil {
			return err
		}
		return rec.finish(ev, models.SessionStatusComplete)

	case EventReset, EventStopped:
		if rec.session == nil {
			return nil
		}
		if err := rec.closePhase(ev, false); err != nil {
			return err
		}
		return rec.finish(ev, models.SessionStatusAbandoned)
	}
	return nil
}

func (rec *Recorder) begin(ev Event) error {
	sess := &models.Session{
		CreatedAt:    ev.At.UTC(),
		WorkoutName:  rec.workoutName,
		Status:       models.SessionStatusRunning,
		TotalPlanned: ev.Summary.TotalPlanned,
		PhaseCount:   ev.Summary.PhaseCount,
		Rounds:       ev.Summary.Rounds,
	}
	id, err := rec.store.CreateSession(sess)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	sess.ID = id
	rec.session = sess
	rec.recorded = append(rec.recorded, id)
	rec.logger.Info().Int64("session_id", id).Msg("session started")
	return nil
}

func (rec *Recorder) openPhase(ev Event) error {
	entry := &models.PhaseLog{
		SessionID:      rec.session.ID,
		SequenceNum:    ev.Phase.Index,
		Kind:           string(ev.Phase.Kind),
		Label:          ev.Phase.Label,
		Round:          ev.Phase.Round,
		PlannedSeconds: ev.Phase.Seconds,
		StartedAt:      ev.At.UTC(),
	}
	id, err := rec.store.CreatePhaseLog(entry)
	if err != nil {
		return fmt.Errorf("create phase log: %w", err)
	}
	entry.ID = id
	rec.current = entry
	rec.entryElapsed = ev.Snapshot.TotalElapsed
	return nil
}

// closePhase finalizes the open phase log using the elapsed counter of
// the event that ended it.
func (rec *Recorder) closePhase(ev Event, skipped bool) error {
	if rec.current == nil {
		return nil
	}
	entry := rec.current
	rec.current = nil

	completedAt := ev.At.UTC()
	entry.ElapsedSeconds = ev.Snapshot.TotalElapsed - rec.entryElapsed
	entry.Skipped = skipped
	entry.CompletedAt = &completedAt
	if err := rec.store.UpdatePhaseLog(entry); err != nil {
		return fmt.Errorf("update phase log %d: %w", entry.ID, err)
	}
	return nil
}

func (rec *Recorder) finish(ev Event, status models.SessionStatus) error {
	sess := rec.session
	rec.session = nil

	completedAt := ev.At.UTC()
	sess.Status = status
	sess.CompletedAt = &completedAt
	applySummary(sess, ev.Summary)
	if err := rec.store.UpdateSession(sess); err != nil {
		return fmt.Errorf("update session %d: %w", sess.ID, err)
	}
	rec.logger.Info().
		Int64("session_id", sess.ID).
		Str("status", string(status)).
		Int("elapsed", sess.TotalElapsed).
		Msg("session recorded")
	return nil
}

func applySummary(sess *models.Session, s engine.Summary) {
	sess.TotalPlanned = s.TotalPlanned
	sess.TotalElapsed = s.TotalElapsed
	sess.PhaseCount = s.PhaseCount
	sess.PhasesCompleted = s.PhasesCompleted
	sess.PhasesSkipped = s.PhasesSkipped
	sess.Rounds = s.Rounds
	sess.RoundsCompleted = s.RoundsCompleted
}
