package engine

import (
	"fmt"
	"strings"
)

// MaxRounds caps the number of rounds a timeline may contain.
const MaxRounds = 99

// PhaseKind tags what the athlete is doing during a phase.
type PhaseKind string

const (
	KindWarm PhaseKind = "warm"
	KindWork PhaseKind = "work"
	KindRest PhaseKind = "rest"
	KindCool PhaseKind = "cool"
)

// Phase is one timed segment of a workout. Phases are built once by
// BuildTimeline and never mutated.
type Phase struct {
	Index   int
	Kind    PhaseKind
	Seconds int
	Label   string
	Cue     string

	// Round is 1-based. Station is the station worked (or just finished, for
	// rest phases); -1 for warm-up and cool-down.
	Round   int
	Station int

	// AnnounceNext marks the rest phase immediately preceding the last work
	// phase of the final round.
	AnnounceNext bool
}

// Config describes a session before it is expanded into a Timeline.
type Config struct {
	Stations        []string
	WorkSeconds     int
	RestSeconds     int
	Rounds          int
	IncludeRest     bool
	WarmupSeconds   int
	CooldownSeconds int
}

// Timeline is the precomputed, ordered phase sequence for one session.
type Timeline struct {
	Phases       []Phase
	TotalPlanned int
	Rounds       int
	Stations     int
}

// Len returns the number of phases.
func (t Timeline) Len() int { return len(t.Phases) }

// Validate reports whether cfg can produce a timeline.
func (c Config) Validate() error {
	if len(c.Stations) == 0 {
		return fmt.Errorf("%w: at least one station is required", ErrInvalidConfiguration)
	}
	for i, s := range c.Stations {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: station %d has an empty name", ErrInvalidConfiguration, i+1)
		}
	}
	if c.WorkSeconds < 1 {
		return fmt.Errorf("%w: work seconds must be >= 1, got %d", ErrInvalidConfiguration, c.WorkSeconds)
	}
	if c.RestSeconds < 0 {
		return fmt.Errorf("%w: rest seconds must be >= 0, got %d", ErrInvalidConfiguration, c.RestSeconds)
	}
	if c.Rounds < 1 || c.Rounds > MaxRounds {
		return fmt.Errorf("%w: rounds must be between 1 and %d, got %d", ErrInvalidConfiguration, MaxRounds, c.Rounds)
	}
	if c.WarmupSeconds < 0 {
		return fmt.Errorf("%w: warm-up seconds must be >= 0, got %d", ErrInvalidConfiguration, c.WarmupSeconds)
	}
	if c.CooldownSeconds < 0 {
		return fmt.Errorf("%w: cool-down seconds must be >= 0, got %d", ErrInvalidConfiguration, c.CooldownSeconds)
	}
	return nil
}

// BuildTimeline expands cfg into its phase sequence. No rest follows the
// last station of the last round. Rest phases are omitted entirely when
// IncludeRest is false or RestSeconds is zero.
func BuildTimeline(cfg Config) (Timeline, error) {
	if err := cfg.Validate(); err != nil {
		return Timeline{}, err
	}

	n := len(cfg.Stations)
	withRest := cfg.IncludeRest && cfg.RestSeconds > 0

	capacity := cfg.Rounds * n
	if withRest {
		capacity = capacity*2 - 1
	}
	phases := make([]Phase, 0, capacity+2)

	add := func(p Phase) {
		p.Index = len(phases)
		phases = append(phases, p)
	}

	if cfg.WarmupSeconds > 0 {
		add(Phase{Kind: KindWarm, Seconds: cfg.WarmupSeconds, Label: "Warm-up", Cue: "warm", Round: 1, Station: -1})
	}

	lastWork := -1
	for r := 1; r <= cfg.Rounds; r++ {
		for i, station := range cfg.Stations {
			add(Phase{Kind: KindWork, Seconds: cfg.WorkSeconds, Label: station, Cue: station, Round: r, Station: i})
			lastWork = len(phases) - 1

			final := r == cfg.Rounds && i == n-1
			if withRest && !final {
				add(Phase{Kind: KindRest, Seconds: cfg.RestSeconds, Label: "Rest", Cue: "rest", Round: r, Station: i})
			}
		}
	}

	if lastWork > 0 && phases[lastWork-1].Kind == KindRest {
		phases[lastWork-1].AnnounceNext = true
	}

	if cfg.CooldownSeconds > 0 {
		add(Phase{Kind: KindCool, Seconds: cfg.CooldownSeconds, Label: "Cool-down", Cue: "cool", Round: cfg.Rounds, Station: -1})
	}

	total := 0
	for _, p := range phases {
		total += p.Seconds
	}

	return Timeline{
		Phases:       phases,
		TotalPlanned: total,
		Rounds:       cfg.Rounds,
		Stations:     n,
	}, nil
}
