package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mpataki/drill/internal/clock"
	"github.com/mpataki/drill/internal/cue"
	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/storage"
)

type countingPlayer struct {
	mu    sync.Mutex
	plays map[cue.Cue]int
}

func (p *countingPlayer) Play(_ context.Context, c cue.Cue) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.plays == nil {
		p.plays = make(map[cue.Cue]int)
	}
	p.plays[c]++
	return nil
}

func (p *countingPlayer) count(c cue.Cue) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays[c]
}

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "drill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func hold() *models.Workout {
	return &models.Workout{
		Name:        "hold",
		Stations:    []string{"Wall sit"},
		WorkSeconds: 2,
		RestSeconds: 2,
		Rounds:      2,
	}
}

func TestStartSession_RecordsAndCues(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
	})

	store := newTestStore(t)
	manual := clock.NewManual(time.Date(2026, 10, 19, 6, 30, 0, 0, time.UTC))
	player := &countingPlayer{}
	o := New(store, player, Options{
		NewSource:  func() clock.Source { return manual },
		Now:        manual.Now,
		CueEnabled: func(name string) bool { return name != string(cue.Countdown) },
	})

	active, err := o.StartSession(context.Background(), hold())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = active.Runner.Start(ctx)
	require.NoError(t, err)
	// Wall sit(2) rest(2) Wall sit(2)
	for i := 0; i < 6; i++ {
		manual.Advance(time.Second)
	}
	snap, err := active.Runner.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, engine.StatusCompleted, snap.Status)
	active.Stop()

	ids := active.SessionIDs()
	require.Len(t, ids, 1)

	sess, err := o.GetSession(ids[0])
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusComplete, sess.Status)
	require.Equal(t, 6, sess.TotalElapsed)
	require.Equal(t, 2, sess.RoundsCompleted)

	logs, err := o.GetPhaseLogs(ids[0])
	require.NoError(t, err)
	require.Len(t, logs, 3)

	require.Equal(t, 2, player.count(cue.PhaseWork))
	require.Equal(t, 1, player.count(cue.PhaseRest))
	require.Equal(t, 1, player.count(cue.Upcoming))
	require.Equal(t, 1, player.count(cue.Complete))
	require.Equal(t, 0, player.count(cue.Countdown))
}

func TestStartSession_InvalidWorkout(t *testing.T) {
	o := New(newTestStore(t), nil, Options{NewSource: func() clock.Source { return clock.NewManual(time.Now()) }})
	w := hold()
	w.Rounds = 0
	_, err := o.StartSession(context.Background(), w)
	require.ErrorIs(t, err, engine.ErrInvalidConfiguration)
}

func TestStop_AbandonsUnfinishedSession(t *testing.T) {
	store := newTestStore(t)
	manual := clock.NewManual(time.Date(2026, 10, 19, 6, 30, 0, 0, time.UTC))
	o := New(store, cue.Noop{}, Options{NewSource: func() clock.Source { return manual }, Now: manual.Now})

	active, err := o.StartSession(context.Background(), hold())
	require.NoError(t, err)
	_, err = active.Runner.Start(context.Background())
	require.NoError(t, err)
	manual.Advance(time.Second)
	active.Stop()

	sessions, err := o.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, models.SessionStatusAbandoned, sessions[0].Status)
	require.Equal(t, 1, sessions[0].TotalElapsed)

	totals, err := o.Totals()
	require.NoError(t, err)
	require.Equal(t, 1, totals.Sessions)

	require.NoError(t, o.DeleteSession(sessions[0].ID))
	err = o.DeleteSession(sessions[0].ID)
	require.True(t, errors.Is(err, storage.ErrNotFound))
}
