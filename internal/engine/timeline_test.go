package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func kinds(tl Timeline) []PhaseKind {
	out := make([]PhaseKind, 0, tl.Len())
	for _, p := range tl.Phases {
		out = append(out, p.Kind)
	}
	return out
}

func TestBuildTimeline_ThreeStationsTwoRounds(t *testing.T) {
	tl, err := BuildTimeline(Config{
		Stations:    []string{"A", "B", "C"},
		WorkSeconds: 60,
		RestSeconds: 60,
		Rounds:      2,
		IncludeRest: true,
	})
	require.NoError(t, err)

	want := []PhaseKind{
		KindWork, KindRest, KindWork, KindRest, KindWork, KindRest,
		KindWork, KindRest, KindWork, KindRest, KindWork,
	}
	if diff := cmp.Diff(want, kinds(tl)); diff != "" {
		t.Fatalf("phase kinds mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 660, tl.TotalPlanned)
	require.Equal(t, 2, tl.Rounds)
	require.Equal(t, 3, tl.Stations)

	for i, p := range tl.Phases {
		require.Equal(t, i, p.Index)
	}
	require.Equal(t, "C", tl.Phases[10].Label)
	require.Equal(t, 2, tl.Phases[10].Round)
	require.Equal(t, 2, tl.Phases[10].Station)
}

func TestBuildTimeline_AnnounceNextOnlyBeforeFinalWork(t *testing.T) {
	tl, err := BuildTimeline(Config{
		Stations:    []string{"A", "B", "C"},
		WorkSeconds: 30,
		RestSeconds: 10,
		Rounds:      2,
		IncludeRest: true,
	})
	require.NoError(t, err)

	for _, p := range tl.Phases {
		if p.Index == 9 {
			require.True(t, p.AnnounceNext, "rest before final work should announce")
			require.Equal(t, KindRest, p.Kind)
			continue
		}
		require.False(t, p.AnnounceNext, "phase %d should not announce", p.Index)
	}
}

func TestBuildTimeline_NoRest(t *testing.T) {
	tl, err := BuildTimeline(Config{
		Stations:    []string{"plank", "side plank"},
		WorkSeconds: 45,
		RestSeconds: 15,
		Rounds:      3,
		IncludeRest: false,
	})
	require.NoError(t, err)
	require.Equal(t, 6, tl.Len())
	require.Equal(t, 6*45, tl.TotalPlanned)
	for _, p := range tl.Phases {
		require.Equal(t, KindWork, p.Kind)
		require.False(t, p.AnnounceNext)
	}
}

func TestBuildTimeline_ZeroRestOmitsRestPhases(t *testing.T) {
	tl, err := BuildTimeline(Config{
		Stations:    []string{"hold"},
		WorkSeconds: 20,
		RestSeconds: 0,
		Rounds:      4,
		IncludeRest: true,
	})
	require.NoError(t, err)
	require.Equal(t, 4, tl.Len())
	require.Equal(t, 80, tl.TotalPlanned)
}

func TestBuildTimeline_WarmupAndCooldown(t *testing.T) {
	tl, err := BuildTimeline(Config{
		Stations:        []string{"walk fast", "walk slow"},
		WorkSeconds:     180,
		RestSeconds:     0,
		Rounds:          2,
		WarmupSeconds:   300,
		CooldownSeconds: 120,
	})
	require.NoError(t, err)

	want := []PhaseKind{KindWarm, KindWork, KindWork, KindWork, KindWork, KindCool}
	if diff := cmp.Diff(want, kinds(tl)); diff != "" {
		t.Fatalf("phase kinds mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 300+4*180+120, tl.TotalPlanned)
	require.Equal(t, -1, tl.Phases[0].Station)
	require.Equal(t, -1, tl.Phases[5].Station)
}

func TestBuildTimeline_InvalidConfiguration(t *testing.T) {
	valid := Config{Stations: []string{"A"}, WorkSeconds: 10, RestSeconds: 5, Rounds: 1, IncludeRest: true}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no stations", func(c *Config) { c.Stations = nil }},
		{"blank station", func(c *Config) { c.Stations = []string{"A", "  "} }},
		{"zero work", func(c *Config) { c.WorkSeconds = 0 }},
		{"negative rest", func(c *Config) { c.RestSeconds = -1 }},
		{"zero rounds", func(c *Config) { c.Rounds = 0 }},
		{"too many rounds", func(c *Config) { c.Rounds = MaxRounds + 1 }},
		{"negative warmup", func(c *Config) { c.WarmupSeconds = -5 }},
		{"negative cooldown", func(c *Config) { c.CooldownSeconds = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Stations = append([]string(nil), valid.Stations...)
			tt.mutate(&cfg)

			tl, err := BuildTimeline(cfg)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidConfiguration))
			require.Zero(t, tl.Len())
		})
	}
}

func drawConfig(t *rapid.T) Config {
	n := rapid.IntRange(1, 6).Draw(t, "stations")
	stations := make([]string, n)
	for i := range stations {
		stations[i] = rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "station")
	}
	return Config{
		Stations:    stations,
		WorkSeconds: rapid.IntRange(1, 90).Draw(t, "work"),
		RestSeconds: rapid.IntRange(0, 60).Draw(t, "rest"),
		Rounds:      rapid.IntRange(1, 5).Draw(t, "rounds"),
		IncludeRest: rapid.Bool().Draw(t, "includeRest"),
	}
}

func TestProperty_TotalPlannedFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := drawConfig(t)
		tl, err := BuildTimeline(cfg)
		if err != nil {
			t.Fatalf("BuildTimeline: %v", err)
		}

		sum := 0
		for _, p := range tl.Phases {
			sum += p.Seconds
		}
		if sum != tl.TotalPlanned {
			t.Fatalf("TotalPlanned %d != sum of phases %d", tl.TotalPlanned, sum)
		}

		works := cfg.Rounds * len(cfg.Stations)
		want := works * cfg.WorkSeconds
		if cfg.IncludeRest {
			want += cfg.RestSeconds * (works - 1)
		}
		if tl.TotalPlanned != want {
			t.Fatalf("TotalPlanned = %d, want %d", tl.TotalPlanned, want)
		}

		last := tl.Phases[tl.Len()-1]
		if last.Kind != KindWork {
			t.Fatalf("last phase kind = %s, want work", last.Kind)
		}
	})
}

func TestProperty_BuildTimelineDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := drawConfig(t)
		a, errA := BuildTimeline(cfg)
		b, errB := BuildTimeline(cfg)
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors: %v, %v", errA, errB)
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("timelines differ:\n%s", diff)
		}
	})
}
