package main

import (
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mpataki/drill/internal/config"
	"github.com/mpataki/drill/internal/cue"
	"github.com/mpataki/drill/internal/log"
	"github.com/mpataki/drill/internal/models"
	"github.com/mpataki/drill/internal/orchestrator"
	"github.com/mpataki/drill/internal/storage"
	"github.com/mpataki/drill/internal/tui"
	"github.com/mpataki/drill/internal/workout"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "drill",
		Short:         "Interval workout timer",
		Long:          "Drill runs timed workouts of work, rest, warm-up and cool-down phases and keeps a history of finished sessions.",
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.drill/config.yaml)")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newQuickCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newDeleteCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every command needs: config, an open store and an
// orchestrator wired with the configured cue player.
type env struct {
	cfg   *config.Config
	store *storage.Storage
	orch  *orchestrator.Orchestrator
	logf  *os.File
}

func openEnv() (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logf, err := log.OpenFile(cfg.LogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Output: logf, Service: "drill"})

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		logf.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	player := cue.NewPlayer(cfg.Sound, os.Stdout)
	orch := orchestrator.New(store, player, orchestrator.Options{
		TickInterval: cfg.TickInterval,
		CueEnabled:   cfg.Sound.CueEnabled,
	})

	return &env{cfg: cfg, store: store, orch: orch, logf: logf}, nil
}

func (e *env) Close() {
	e.store.Close()
	e.logf.Close()
}

func (e *env) workouts() (map[string]*models.Workout, error) {
	workouts, err := workout.LoadAll(e.cfg.WorkoutDirs())
	if err != nil {
		return nil, fmt.Errorf("failed to load workouts: %w", err)
	}
	return workouts, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	workouts, err := e.workouts()
	if err != nil {
		return err
	}

	app := tui.NewApp(e.orch, workouts)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available workouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			workouts, err := e.workouts()
			if err != nil {
				return err
			}

			for _, name := range workout.Names(workouts) {
				w := workouts[name]
				source := "built-in"
				if w.Source != "" {
					source = w.Source
				}
				total := 0
				if tl, err := buildTimeline(w); err == nil {
					total = tl.TotalPlanned
				}
				fmt.Printf("%-20s %2d×%-2d %7s  %s\n", name, w.Rounds, len(w.Stations), formatClock(total), source)
			}
			return nil
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <workout>",
		Short: "Show the phase timeline of a workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			tl, err := buildTimeline(w)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d phases, %s\n", w.Name, tl.Len(), formatClock(tl.TotalPlanned))
			if w.Description != "" {
				fmt.Println(w.Description)
			}
			fmt.Println()

			start := 0
			for _, p := range tl.Phases {
				marker := ""
				if p.AnnounceNext {
					marker = "  (announces last)"
				}
				fmt.Printf("%3d. %7s  %-5s r%-2d %-20s %5s%s\n",
					p.Index+1, formatClock(start), p.Kind, p.Round, p.Label, formatClock(p.Seconds), marker)
				start += p.Seconds
			}
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			sessions, err := e.orch.ListSessions(limit)
			if err != nil {
				return err
			}

			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			for _, sess := range sessions {
				fmt.Printf("#%d %s [%s] %s/%s %s\n",
					sess.ID, sess.WorkoutName, sess.Status,
					formatClock(sess.TotalElapsed), formatClock(sess.TotalPlanned),
					storage.FormatTimeAgo(sess.CreatedAt))
			}

			totals, err := e.orch.Totals()
			if err != nil {
				return err
			}
			fmt.Printf("\n%d sessions, %d completed, %s total\n",
				totals.Sessions, totals.CompletedSessions, formatClock(totals.ElapsedSeconds))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session ID: %w", err)
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.orch.GetSession(sessionID)
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}

			fmt.Printf("Session #%d: %s\n", sess.ID, sess.WorkoutName)
			fmt.Printf("Status: %s\n", sess.Status)
			fmt.Printf("Started: %s\n", sess.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Time: %s of %s\n", formatClock(sess.TotalElapsed), formatClock(sess.TotalPlanned))
			fmt.Printf("Phases: %d/%d (%d skipped)\n", sess.PhasesCompleted, sess.PhaseCount, sess.PhasesSkipped)
			fmt.Printf("Rounds: %d/%d\n", sess.RoundsCompleted, sess.Rounds)

			logs, err := e.orch.GetPhaseLogs(sessionID)
			if err != nil {
				return err
			}

			if len(logs) > 0 {
				fmt.Println("\nPhases:")
				for _, entry := range logs {
					note := ""
					if entry.Skipped {
						note = " [skipped]"
					} else if entry.CompletedAt == nil {
						note = " [open]"
					}
					fmt.Printf("  %d. %s %s %s/%s%s\n",
						entry.SequenceNum+1, entry.Kind, entry.Label,
						formatClock(entry.ElapsedSeconds), formatClock(entry.PlannedSeconds), note)
				}
			}

			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session ID: %w", err)
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.orch.DeleteSession(sessionID); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}

			fmt.Printf("Deleted session #%d\n", sessionID)
			return nil
		},
	}
}
