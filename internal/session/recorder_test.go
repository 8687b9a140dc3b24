package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mpataki/drill/internal/clock"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/storage"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "drill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type recordedRun struct {
	runner   *Runner
	clock    *clock.Manual
	recorder *Recorder
	cancel   context.CancelFunc
	recDone  chan struct{}
}

func startRecorded(t *testing.T, store storage.Store) *recordedRun {
	t.Helper()
	manual := clock.NewManual(testStart)
	r, err := NewRunner(shortConfig(), RunnerOptions{Source: manual, Now: manual.Now})
	require.NoError(t, err)

	rr := &recordedRun{
		runner:   r,
		clock:    manual,
		recorder: NewRecorder(store, "short"),
		recDone:  make(chan struct{}),
	}
	events := r.Subscribe(context.Background())
	go func() {
		rr.recorder.Run(events)
		close(rr.recDone)
	}()

	var ctx context.Context
	ctx, rr.cancel = context.WithCancel(context.Background())
	go r.Run(ctx)
	return rr
}

func (rr *recordedRun) seconds(n int) {
	for i := 0; i < n; i++ {
		rr.clock.Advance(time.Second)
	}
}

// stop ends the runner and waits for the recorder to drain.
func (rr *recordedRun) stop(t *testing.T) {
	t.Helper()
	rr.cancel()
	select {
	case <-rr.recDone:
	case <-time.After(2 * time.Second):
		require.Fail(t, "recorder did not finish")
	}
}

func TestRecorder_CompletedSession(t *testing.T) {
	store := newTestStore(t)
	rr := startRecorded(t, store)
	ctx := context.Background()

	_, err := rr.runner.Start(ctx)
	require.NoError(t, err)
	rr.seconds(1)
	_, err = rr.runner.Skip(ctx)
	require.NoError(t, err)
	rr.seconds(2 + 3)
	rr.stop(t)

	ids := rr.recorder.Sessions()
	require.Len(t, ids, 1)

	sess, err := store.GetSession(ids[0])
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusComplete, sess.Status)
	require.Equal(t, "short", sess.WorkoutName)
	require.Equal(t, 8, sess.TotalPlanned)
	require.Equal(t, 6, sess.TotalElapsed)
	require.Equal(t, 3, sess.PhaseCount)
	require.Equal(t, 3, sess.PhasesCompleted)
	require.Equal(t, 1, sess.PhasesSkipped)
	require.Equal(t, 1, sess.RoundsCompleted)
	require.NotNil(t, sess.CompletedAt)
	require.WithinDuration(t, testStart.Add(6*time.Second), *sess.CompletedAt, time.Millisecond)

	logs, err := store.GetPhaseLogs(ids[0])
	require.NoError(t, err)
	require.Len(t, logs, 3)

	require.Equal(t, "A", logs[0].Label)
	require.Equal(t, 1, logs[0].ElapsedSeconds)
	require.True(t, logs[0].Skipped)

	require.Equal(t, "rest", logs[1].Kind)
	require.Equal(t, 2, logs[1].ElapsedSeconds)
	require.False(t, logs[1].Skipped)

	require.Equal(t, "B", logs[2].Label)
	require.Equal(t, 3, logs[2].ElapsedSeconds)
	require.Equal(t, 2, logs[2].SequenceNum)
	require.NotNil(t, logs[2].CompletedAt)
}

func TestRecorder_StoppedSessionIsAbandoned(t *testing.T) {
	store := newTestStore(t)
	rr := startRecorded(t, store)

	_, err := rr.runner.Start(context.Background())
	require.NoError(t, err)
	rr.seconds(2)
	rr.stop(t)

	ids := rr.recorder.Sessions()
	require.Len(t, ids, 1)

	sess, err := store.GetSession(ids[0])
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusAbandoned, sess.Status)
	require.Equal(t, 2, sess.TotalElapsed)
	require.Equal(t, 0, sess.PhasesCompleted)

	logs, err := store.GetPhaseLogs(ids[0])
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, 2, logs[0].ElapsedSeconds)
	require.False(t, logs[0].Skipped)
}

func TestRecorder_ResetStartsNewSession(t *testing.T) {
	store := newTestStore(t)
	rr := startRecorded(t, store)
	ctx := context.Background()

	_, err := rr.runner.Start(ctx)
	require.NoError(t, err)
	rr.seconds(1)
	_, err = rr.runner.Reset(ctx)
	require.NoError(t, err)

	_, err = rr.runner.Start(ctx)
	require.NoError(t, err)
	rr.seconds(8)
	rr.stop(t)

	ids := rr.recorder.Sessions()
	require.Len(t, ids, 2)

	first, err := store.GetSession(ids[0])
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusAbandoned, first.Status)
	require.Equal(t, 1, first.TotalElapsed)

	second, err := store.GetSession(ids[1])
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusComplete, second.Status)
	require.Equal(t, 8, second.TotalElapsed)

	totals, err := store.Totals()
	require.NoError(t, err)
	require.Equal(t, storage.Totals{Sessions: 2, CompletedSessions: 1, ElapsedSeconds: 9}, totals)
}

func TestRecorder_IdleStopRecordsNothing(t *testing.T) {
	store := newTestStore(t)
	rr := startRecorded(t, store)
	rr.stop(t)

	require.Empty(t, rr.recorder.Sessions())
	sessions, err := store.ListSessions(10)
	require.NoError(t, err)
	require.Empty(t, sessions)
}
