package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/orchestrator"
	"github.com/mpataki/drill/internal/pubsub"
	"github.com/mpataki/drill/internal/session"
	"github.com/mpataki/drill/internal/storage"
	"github.com/mpataki/drill/internal/workout"
)

type View int

const (
	ViewPicker View = iota
	ViewTimer
	ViewSummary
	ViewHistory
	ViewHistoryDetail
)

// Backend is the part of the orchestrator the UI drives.
type Backend interface {
	StartSession(ctx context.Context, w *models.Workout) (*orchestrator.Active, error)
	ListSessions(limit int) ([]*models.Session, error)
	GetSession(id int64) (*models.Session, error)
	GetPhaseLogs(sessionID int64) ([]*models.PhaseLog, error)
	DeleteSession(id int64) error
	Totals() (storage.Totals, error)
}

type App struct {
	backend  Backend
	workouts map[string]*models.Workout
	names    []string
	keys     KeyMap
	help     help.Model

	view        View
	previous    View
	selectedIdx int

	// Timer state
	starting   bool
	active     *orchestrator.Active
	listenCtx  context.Context
	stopListen context.CancelFunc
	events     <-chan pubsub.Event[session.Event]
	snap       engine.Snapshot
	round      engine.RoundContext
	countdown  int
	upcoming   *engine.Phase
	summary    *engine.Summary
	phaseBar   progress.Model
	sessionBar progress.Model

	// History state
	sessions        []*models.Session
	totals          storage.Totals
	historyIdx      int
	selectedSession *models.Session
	phaseLogs       []*models.PhaseLog

	width  int
	height int
	err    error
}

func NewApp(backend Backend, workouts map[string]*models.Workout) *App {
	return &App{
		backend:    backend,
		workouts:   workouts,
		names:      workout.Names(workouts),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		view:       ViewPicker,
		phaseBar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		sessionBar: progress.New(progress.WithSolidFill("63"), progress.WithWidth(40)),
	}
}

// NewTimerApp opens directly on the timer for w.
func NewTimerApp(backend Backend, w *models.Workout) *App {
	a := NewApp(backend, map[string]*models.Workout{w.Name: w})
	a.view = ViewTimer
	return a
}

func (a *App) Init() tea.Cmd {
	if a.view == ViewTimer && len(a.names) == 1 {
		return a.startSession(a.workouts[a.names[0]])
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		barWidth := msg.Width - 20
		if barWidth > 60 {
			barWidth = 60
		}
		if barWidth > 10 {
			a.phaseBar.Width = barWidth
			a.sessionBar.Width = barWidth
		}
		return a, nil

	case sessionStartedMsg:
		a.starting = false
		if msg.err != nil {
			a.err = msg.err
			a.view = ViewPicker
			return a, nil
		}
		a.err = nil
		a.active = msg.active
		a.snap = msg.snap
		a.round = engine.RoundContext{}
		a.countdown = 0
		a.upcoming = nil
		a.summary = nil
		a.listenCtx, a.stopListen = context.WithCancel(context.Background())
		a.events = msg.events
		a.view = ViewTimer
		return a, pubsub.ListenCmd(a.listenCtx, a.events)

	case pubsub.Event[session.Event]:
		return a, a.handleSessionEvent(msg)

	case commandMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.snap = msg.snap
		return a, nil

	case sessionStoppedMsg:
		a.active = nil
		a.events = nil
		if msg.quit {
			return a, tea.Quit
		}
		a.view = ViewPicker
		if msg.then == ViewHistory {
			return a.openHistory()
		}
		return a, nil

	case sessionsLoadedMsg:
		a.sessions = msg.sessions
		a.totals = msg.totals
		a.err = msg.err
		if a.historyIdx >= len(a.sessions) {
			a.historyIdx = max(len(a.sessions)-1, 0)
		}
		return a, nil

	case sessionDetailMsg:
		a.err = msg.err
		if msg.err == nil {
			a.selectedSession = msg.session
			a.phaseLogs = msg.logs
			a.view = ViewHistoryDetail
		}
		return a, nil

	case sessionDeletedMsg:
		a.err = msg.err
		return a, a.loadSessions
	}

	return a, nil
}

func (a *App) handleSessionEvent(msg pubsub.Event[session.Event]) tea.Cmd {
	ev := msg.Payload
	a.snap = ev.Snapshot

	switch msg.Type {
	case session.EventPhaseEntered:
		a.round = ev.Round
		a.countdown = 0
		if a.upcoming != nil && ev.Phase.Index >= a.upcoming.Index {
			a.upcoming = nil
		}
	case session.EventCountdown:
		a.countdown = ev.Remaining
	case session.EventUpcoming:
		next := ev.Phase
		a.upcoming = &next
	case session.EventReset:
		a.snap = engine.Snapshot{}
		a.round = engine.RoundContext{}
		a.countdown = 0
		a.upcoming = nil
	case session.EventStatus:
		if ev.Snapshot.Status == engine.StatusIdle {
			a.round = engine.RoundContext{}
			a.upcoming = nil
		}
	case session.EventCompleted:
		summary := ev.Summary
		a.summary = &summary
		a.countdown = 0
		a.view = ViewSummary
	case session.EventStopped:
		return nil
	}

	if a.events == nil {
		return nil
	}
	return pubsub.ListenCmd(a.listenCtx, a.events)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.view {
	case ViewPicker:
		return a.handlePickerKey(msg)
	case ViewTimer:
		return a.handleTimerKey(msg)
	case ViewSummary:
		return a.handleSummaryKey(msg)
	case ViewHistory:
		return a.handleHistoryKey(msg)
	case ViewHistoryDetail:
		return a.handleHistoryDetailKey(msg)
	}
	return a, nil
}

func (a *App) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Up):
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case key.Matches(msg, a.keys.Down):
		if a.selectedIdx < len(a.names)-1 {
			a.selectedIdx++
		}

	case key.Matches(msg, a.keys.Enter):
		if a.starting || a.selectedIdx >= len(a.names) {
			return a, nil
		}
		return a, a.startSession(a.workouts[a.names[a.selectedIdx]])

	case key.Matches(msg, a.keys.History):
		a.previous = ViewPicker
		return a.openHistory()
	}

	return a, nil
}

func (a *App) handleTimerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.active == nil {
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		return a, nil
	}
	runner := a.active.Runner

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, a.stopSession(true, ViewPicker)

	case key.Matches(msg, a.keys.Escape):
		return a, a.stopSession(false, ViewPicker)

	case key.Matches(msg, a.keys.Toggle):
		return a, a.command(runner.Toggle)

	case key.Matches(msg, a.keys.Skip):
		return a, a.command(runner.Skip)

	case key.Matches(msg, a.keys.Reset):
		return a, a.command(runner.Reset)
	}

	return a, nil
}

func (a *App) handleSummaryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, a.stopSession(true, ViewPicker)

	case key.Matches(msg, a.keys.Enter), key.Matches(msg, a.keys.Escape):
		return a, a.stopSession(false, ViewPicker)

	case key.Matches(msg, a.keys.History):
		a.previous = ViewPicker
		return a, a.stopSession(false, ViewHistory)
	}
	return a, nil
}

func (a *App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Escape):
		a.view = a.previous

	case key.Matches(msg, a.keys.Up):
		if a.historyIdx > 0 {
			a.historyIdx--
		}

	case key.Matches(msg, a.keys.Down):
		if a.historyIdx < len(a.sessions)-1 {
			a.historyIdx++
		}

	case key.Matches(msg, a.keys.Enter):
		if a.historyIdx < len(a.sessions) {
			return a, a.loadSessionDetail(a.sessions[a.historyIdx].ID)
		}

	case key.Matches(msg, a.keys.Delete):
		if a.historyIdx < len(a.sessions) {
			return a, a.deleteSession(a.sessions[a.historyIdx].ID)
		}
	}
	return a, nil
}

func (a *App) handleHistoryDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Escape):
		a.view = ViewHistory
		a.selectedSession = nil
		a.phaseLogs = nil
	}
	return a, nil
}

func (a *App) openHistory() (tea.Model, tea.Cmd) {
	a.view = ViewHistory
	a.historyIdx = 0
	return a, a.loadSessions
}

// Messages

type sessionStartedMsg struct {
	active *orchestrator.Active
	events <-chan pubsub.Event[session.Event]
	snap   engine.Snapshot
	err    error
}

type commandMsg struct {
	snap engine.Snapshot
	err  error
}

type sessionStoppedMsg struct {
	quit bool
	then View
}

type sessionsLoadedMsg struct {
	sessions []*models.Session
	totals   storage.Totals
	err      error
}

type sessionDetailMsg struct {
	session *models.Session
	logs    []*models.PhaseLog
	err     error
}

type sessionDeletedMsg struct {
	id  int64
	err error
}

// Commands

// startSession marks a start as pending until sessionStartedMsg arrives.
func (a *App) startSession(w *models.Workout) tea.Cmd {
	a.starting = true
	return func() tea.Msg {
		active, err := a.backend.StartSession(context.Background(), w)
		if err != nil {
			return sessionStartedMsg{err: err}
		}
		events := active.Runner.Subscribe(context.Background())
		snap, err := active.Runner.Snapshot(context.Background())
		if err != nil {
			active.Stop()
			return sessionStartedMsg{err: err}
		}
		return sessionStartedMsg{active: active, events: events, snap: snap}
	}
}

func (a *App) command(fn func(context.Context) (engine.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		snap, err := fn(context.Background())
		return commandMsg{snap: snap, err: err}
	}
}

func (a *App) stopSession(quit bool, then View) tea.Cmd {
	active := a.active
	if a.stopListen != nil {
		a.stopListen()
	}
	return func() tea.Msg {
		if active != nil {
			active.Stop()
		}
		return sessionStoppedMsg{quit: quit, then: then}
	}
}

func (a *App) loadSessions() tea.Msg {
	sessions, err := a.backend.ListSessions(50)
	if err != nil {
		return sessionsLoadedMsg{err: err}
	}
	totals, err := a.backend.Totals()
	return sessionsLoadedMsg{sessions: sessions, totals: totals, err: err}
}

func (a *App) loadSessionDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		sess, err := a.backend.GetSession(id)
		if err != nil {
			return sessionDetailMsg{err: err}
		}

		logs, err := a.backend.GetPhaseLogs(id)
		return sessionDetailMsg{session: sess, logs: logs, err: err}
	}
}

func (a *App) deleteSession(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.backend.DeleteSession(id); err != nil {
			return sessionDeletedMsg{err: err}
		}
		return sessionDeletedMsg{id: id}
	}
}
