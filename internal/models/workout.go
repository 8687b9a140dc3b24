package models

import "github.com/mpataki/drill/internal/engine"

type Workout struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Stations        []string `yaml:"stations"`
	WorkSeconds     int      `yaml:"work_seconds"`
	RestSeconds     int      `yaml:"rest_seconds"`
	Rounds          int      `yaml:"rounds"`
	IncludeRest     *bool    `yaml:"include_rest,omitempty"`
	WarmupSeconds   int      `yaml:"warmup_seconds,omitempty"`
	CooldownSeconds int      `yaml:"cooldown_seconds,omitempty"`

	// Source is the file the workout was loaded from; empty for built-ins.
	Source string `yaml:"-"`
}

// EngineConfig converts the workout into an engine configuration.
// Rest is included unless explicitly disabled.
func (w *Workout) EngineConfig() engine.Config {
	includeRest := true
	if w.IncludeRest != nil {
		includeRest = *w.IncludeRest
	}
	return engine.Config{
		Stations:        append([]string(nil), w.Stations...),
		WorkSeconds:     w.WorkSeconds,
		RestSeconds:     w.RestSeconds,
		Rounds:          w.Rounds,
		IncludeRest:     includeRest,
		WarmupSeconds:   w.WarmupSeconds,
		CooldownSeconds: w.CooldownSeconds,
	}
}
