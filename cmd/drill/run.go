package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/session"
	"github.com/mpataki/drill/internal/tui"
	"github.com/mpataki/drill/internal/workout"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workout>",
		Short: "Run a workout by name or file path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			useTUI, _ := cmd.Flags().GetBool("tui")

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			workouts, err := e.workouts()
			if err != nil {
				return err
			}
			w, err := workout.Lookup(workouts, args[0])
			if err != nil {
				return err
			}

			if useTUI {
				return runTimerTUI(e, w)
			}
			return runHeadless(cmd.Context(), e, w)
		},
	}

	cmd.Flags().Bool("tui", false, "Show the full-screen timer")
	return cmd
}

func newQuickCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Run an ad-hoc interval session",
		Long:  "Run an interval session built from flags. Omitted flags fall back to the defaults section of the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			w, err := quickWorkout(cmd, e.cfg.Defaults.WorkSeconds, e.cfg.Defaults.RestSeconds, e.cfg.Defaults.Rounds, e.cfg.Defaults.IncludeRest)
			if err != nil {
				return err
			}

			useTUI, _ := cmd.Flags().GetBool("tui")
			if useTUI {
				return runTimerTUI(e, w)
			}
			return runHeadless(cmd.Context(), e, w)
		},
	}

	cmd.Flags().Int("work", 0, "Work seconds per station")
	cmd.Flags().Int("rest", 0, "Rest seconds between stations")
	cmd.Flags().Int("rounds", 0, "Number of rounds")
	cmd.Flags().StringSlice("stations", []string{"Work"}, "Comma-separated station names")
	cmd.Flags().Bool("no-rest", false, "Skip rest phases")
	cmd.Flags().Int("warmup", 0, "Warm-up seconds")
	cmd.Flags().Int("cooldown", 0, "Cool-down seconds")
	cmd.Flags().Bool("tui", false, "Show the full-screen timer")
	return cmd
}

// quickWorkout builds a workout from flags, using the given defaults for
// any flag the user did not set.
func quickWorkout(cmd *cobra.Command, work, rest, rounds int, includeRest bool) (*models.Workout, error) {
	flags := cmd.Flags()
	if flags.Changed("work") {
		work, _ = flags.GetInt("work")
	}
	if flags.Changed("rest") {
		rest, _ = flags.GetInt("rest")
	}
	if flags.Changed("rounds") {
		rounds, _ = flags.GetInt("rounds")
	}
	if flags.Changed("no-rest") {
		noRest, _ := flags.GetBool("no-rest")
		includeRest = !noRest
	}
	stations, _ := flags.GetStringSlice("stations")
	warmup, _ := flags.GetInt("warmup")
	cooldown, _ := flags.GetInt("cooldown")

	w := &models.Workout{
		Name:            "quick",
		Stations:        stations,
		WorkSeconds:     work,
		RestSeconds:     rest,
		Rounds:          rounds,
		IncludeRest:     &includeRest,
		WarmupSeconds:   warmup,
		CooldownSeconds: cooldown,
	}
	if err := workout.Validate(w); err != nil {
		return nil, err
	}
	return w, nil
}

func runTimerTUI(e *env, w *models.Workout) error {
	p := tea.NewProgram(tui.NewTimerApp(e.orch, w), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// runHeadless runs w to completion, printing phase changes. An interrupt
// stops the session and records it as abandoned.
func runHeadless(parent context.Context, e *env, w *models.Workout) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	active, err := e.orch.StartSession(ctx, w)
	if err != nil {
		return err
	}
	defer active.Stop()

	events := active.Runner.Subscribe(context.Background())
	tl := active.Runner.Timeline()
	fmt.Printf("%s: %d phases, %s. Ctrl-C to stop.\n", w.Name, tl.Len(), formatClock(tl.TotalPlanned))

	if _, err := active.Runner.Start(ctx); err != nil {
		return err
	}

	for ev := range events {
		switch ev.Type {
		case session.EventPhaseEntered:
			fmt.Println(describePhase(ev.Payload))
		case session.EventCountdown:
			fmt.Printf("  %d...\n", ev.Payload.Remaining)
		case session.EventUpcoming:
			fmt.Printf("  last one coming up: %s\n", ev.Payload.Phase.Label)
		case session.EventCompleted:
			printSummary(ev.Payload.Summary)
			return nil
		case session.EventStopped:
			snap := ev.Payload.Snapshot
			fmt.Printf("\nStopped at %s of %s.\n", formatClock(snap.TotalElapsed), formatClock(snap.TotalPlanned))
			return nil
		}
	}
	return nil
}

func describePhase(ev session.Event) string {
	p := ev.Phase
	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d] %s %s", ev.Round.PhaseIndex+1, ev.Round.PhaseCount, strings.ToUpper(string(p.Kind)), p.Label)
	if p.Kind == engine.KindWork || p.Kind == engine.KindRest {
		fmt.Fprintf(&b, " (round %d/%d)", ev.Round.Round, ev.Round.Rounds)
	}
	fmt.Fprintf(&b, " %s", formatClock(p.Seconds))
	return b.String()
}

func printSummary(sum engine.Summary) {
	fmt.Println("\nSession complete")
	fmt.Printf("Time:   %s of %s planned\n", formatClock(sum.TotalElapsed), formatClock(sum.TotalPlanned))
	fmt.Printf("Phases: %d/%d (%d skipped)\n", sum.PhasesCompleted, sum.PhaseCount, sum.PhasesSkipped)
	fmt.Printf("Rounds: %d/%d\n", sum.RoundsCompleted, sum.Rounds)
}

func buildTimeline(w *models.Workout) (engine.Timeline, error) {
	return engine.BuildTimeline(w.EngineConfig())
}

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
