package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	statusRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusComplete  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusAbandoned = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusPaused    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	// Phase colors
	phaseWork = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")) // red
	phaseRest = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))  // green
	phaseEase = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))  // blue

	countdownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (a *App) View() string {
	var s string
	switch a.view {
	case ViewPicker:
		s = a.viewPicker()
	case ViewTimer:
		s = a.viewTimer()
	case ViewSummary:
		s = a.viewSummary()
	case ViewHistory:
		s = a.viewHistory()
	case ViewHistoryDetail:
		s = a.viewHistoryDetail()
	}

	if a.err != nil {
		s += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", a.err)) + "\n"
	}
	return s + "\n" + a.help.View(a.keys.helpFor(a.view))
}

func (a *App) viewPicker() string {
	s := titleStyle.Render("Drill") + "\n\n"

	if len(a.names) == 0 {
		return s + "No workouts found.\n"
	}

	s += "Workouts\n"
	s += "────────\n"
	for i, name := range a.names {
		w := a.workouts[name]
		line := fmt.Sprintf("%-20s %s", name, dimStyle.Render(describe(w)))
		if i == a.selectedIdx {
			line = selectedStyle.Render("▶ " + fmt.Sprintf("%-20s %s", name, describe(w)))
		} else {
			line = "  " + line
		}
		s += line + "\n"
	}

	if a.selectedIdx < len(a.names) {
		if desc := a.workouts[a.names[a.selectedIdx]].Description; desc != "" {
			s += "\n" + labelStyle.Render(desc) + "\n"
		}
	}
	return s
}

func (a *App) viewTimer() string {
	if a.active == nil {
		return titleStyle.Render("Drill") + "\n\nStarting…\n"
	}

	w := a.active.Workout
	s := titleStyle.Render(w.Name) + "  " + formatRunStatus(a.snap.Status) + "\n\n"

	if !a.snap.HasPhase {
		return s + "Done.\n"
	}

	phase := a.snap.Phase
	s += phaseStyle(phase.Kind).Render(strings.ToUpper(phase.Label))
	if a.round.Rounds > 0 && phase.Kind != engine.KindWarm && phase.Kind != engine.KindCool {
		s += "  " + labelStyle.Render(fmt.Sprintf("round %d/%d", a.round.Round, a.round.Rounds))
		if phase.Kind == engine.KindWork {
			s += labelStyle.Render(fmt.Sprintf("  station %d/%d", a.round.Station+1, a.round.Stations))
		}
	}
	s += "\n\n"

	s += clockStyle.Render(formatClock(a.snap.PhaseRemaining))
	if a.countdown > 0 && a.snap.Status == engine.StatusRunning {
		s += "  " + countdownStyle.Render(fmt.Sprintf("%d…", a.countdown))
	}
	s += "\n\n"

	s += labelStyle.Render("Phase   ") + a.phaseBar.ViewAs(a.snap.PhaseProgress()) + "\n"
	s += labelStyle.Render("Session ") + a.sessionBar.ViewAs(a.snap.SessionProgress()) + "\n"
	s += labelStyle.Render(fmt.Sprintf("        %s elapsed of %s  ·  phase %d/%d",
		formatClock(a.snap.TotalElapsed), formatClock(a.snap.TotalPlanned),
		a.snap.PhaseIndex+1, a.snap.PhaseCount)) + "\n\n"

	if a.upcoming != nil {
		s += countdownStyle.Render("Last one coming up: "+a.upcoming.Label) + "\n\n"
	}

	s += "Up next\n"
	s += "───────\n"
	phases := a.active.Runner.Timeline().Phases
	shown := 0
	for i := a.snap.PhaseIndex + 1; i < len(phases) && shown < 4; i++ {
		p := phases[i]
		s += fmt.Sprintf("  %s %s\n", phaseStyle(p.Kind).Render(fmt.Sprintf("%-18s", p.Label)), dimStyle.Render(formatClock(p.Seconds)))
		shown++
	}
	if shown == 0 {
		s += dimStyle.Render("  (last phase)") + "\n"
	}

	return s
}

func (a *App) viewSummary() string {
	s := titleStyle.Render("Session complete") + "\n\n"
	if a.summary == nil {
		return s
	}
	sum := a.summary
	if a.active != nil {
		s += labelStyle.Render("Workout:   ") + a.active.Workout.Name + "\n"
	}
	s += labelStyle.Render("Time:      ") + fmt.Sprintf("%s of %s planned", formatClock(sum.TotalElapsed), formatClock(sum.TotalPlanned)) + "\n"
	s += labelStyle.Render("Phases:    ") + fmt.Sprintf("%d/%d", sum.PhasesCompleted, sum.PhaseCount)
	if sum.PhasesSkipped > 0 {
		s += dimStyle.Render(fmt.Sprintf("  (%d skipped)", sum.PhasesSkipped))
	}
	s += "\n"
	s += labelStyle.Render("Rounds:    ") + fmt.Sprintf("%d/%d", sum.RoundsCompleted, sum.Rounds) + "\n"
	return s
}

func (a *App) viewHistory() string {
	s := titleStyle.Render("History") + "\n\n"

	if len(a.sessions) == 0 {
		return s + "No sessions yet.\n"
	}

	s += labelStyle.Render(fmt.Sprintf("%d sessions, %d completed, %s trained",
		a.totals.Sessions, a.totals.CompletedSessions, formatDuration(time.Duration(a.totals.ElapsedSeconds)*time.Second))) + "\n\n"

	for i, sess := range a.sessions {
		line := formatSessionLine(sess)
		if i == a.historyIdx {
			line = selectedStyle.Render("▶ " + line)
		} else if sess.Status != models.SessionStatusComplete {
			line = "  " + dimStyle.Render(line)
		} else {
			line = "  " + line
		}
		s += line + "\n"
	}
	return s
}

func (a *App) viewHistoryDetail() string {
	sess := a.selectedSession
	if sess == nil {
		return "No session selected\n"
	}

	header := fmt.Sprintf("Session #%d: %s", sess.ID, sess.WorkoutName)
	s := titleStyle.Render(header) + "  " + formatSessionStatus(sess.Status) + "\n\n"
	s += labelStyle.Render("Started: ") + sess.CreatedAt.Local().Format("Mon Jan 2 15:04") + "\n"
	s += labelStyle.Render("Time:    ") + fmt.Sprintf("%s of %s", formatClock(sess.TotalElapsed), formatClock(sess.TotalPlanned)) + "\n"
	s += labelStyle.Render("Rounds:  ") + fmt.Sprintf("%d/%d", sess.RoundsCompleted, sess.Rounds) + "\n\n"

	s += "Phases\n"
	s += "──────\n"
	if len(a.phaseLogs) == 0 {
		s += "(no phases recorded)\n"
	}
	for _, entry := range a.phaseLogs {
		mark := statusComplete.Render("✓")
		switch {
		case entry.Skipped:
			mark = statusAbandoned.Render("»")
		case entry.CompletedAt == nil:
			mark = statusRunning.Render("●")
		case entry.ElapsedSeconds < entry.PlannedSeconds:
			mark = statusAbandoned.Render("✗")
		}
		s += fmt.Sprintf("%3d. %s %-18s r%-2d %s\n",
			entry.SequenceNum+1, mark, entry.Label, entry.Round,
			dimStyle.Render(fmt.Sprintf("%s/%s", formatClock(entry.ElapsedSeconds), formatClock(entry.PlannedSeconds))))
	}
	return s
}

func phaseStyle(kind engine.PhaseKind) lipgloss.Style {
	switch kind {
	case engine.KindWork:
		return phaseWork
	case engine.KindRest:
		return phaseRest
	default:
		return phaseEase
	}
}

func formatRunStatus(status engine.Status) string {
	switch status {
	case engine.StatusRunning:
		return statusRunning.Render("● running")
	case engine.StatusPaused:
		return statusPaused.Render("‖ paused")
	case engine.StatusCompleted:
		return statusComplete.Render("✓ complete")
	default:
		return dimStyle.Render("○ ready, press space")
	}
}

func formatSessionStatus(status models.SessionStatus) string {
	switch status {
	case models.SessionStatusRunning:
		return statusRunning.Render("● running")
	case models.SessionStatusComplete:
		return statusComplete.Render("✓ complete")
	case models.SessionStatusAbandoned:
		return statusAbandoned.Render("⚠ abandoned")
	default:
		return string(status)
	}
}

func formatSessionLine(sess *models.Session) string {
	return fmt.Sprintf("#%-4d %-18s %-12s %5s  %s",
		sess.ID, truncate(sess.WorkoutName, 18), sess.Status, formatClock(sess.TotalElapsed), storage.FormatTimeAgo(sess.CreatedAt))
}

func describe(w *models.Workout) string {
	tl, err := engine.BuildTimeline(w.EngineConfig())
	if err != nil {
		return "invalid"
	}
	return fmt.Sprintf("%d×%d stations · %s", w.Rounds, len(w.Stations), formatClock(tl.TotalPlanned))
}

// formatClock renders whole seconds as m:ss, or h:mm:ss past an hour.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
