package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cue names accepted in sound.files and sound.enabled_cues.
var CueNames = []string{"phase_work", "phase_rest", "phase_warm", "phase_cool", "countdown", "upcoming", "complete"}

type SoundConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	Player      string            `mapstructure:"player"`
	Command     string            `mapstructure:"command"`
	Files       map[string]string `mapstructure:"files"`
	EnabledCues map[string]bool   `mapstructure:"enabled_cues"`
}

// CueEnabled reports whether cue should play. Cues missing from
// EnabledCues default to on.
func (s SoundConfig) CueEnabled(cue string) bool {
	if !s.Enabled {
		return false
	}
	on, ok := s.EnabledCues[cue]
	return !ok || on
}

// Defaults seed `drill quick` when flags are omitted.
type Defaults struct {
	WorkSeconds int  `mapstructure:"work_seconds"`
	RestSeconds int  `mapstructure:"rest_seconds"`
	Rounds      int  `mapstructure:"rounds"`
	IncludeRest bool `mapstructure:"include_rest"`
}

type Config struct {
	DataDir      string        `mapstructure:"data_dir"`
	LogLevel     string        `mapstructure:"log_level"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Sound        SoundConfig   `mapstructure:"sound"`
	Defaults     Defaults      `mapstructure:"defaults"`

	DBPath            string `mapstructure:"-"`
	UserWorkoutDir    string `mapstructure:"-"`
	ProjectWorkoutDir string `mapstructure:"-"`
	ConfigFile        string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("data_dir", filepath.Join(home, ".drill"))
	// An empty level defers to LOG_LEVEL.
	v.SetDefault("log_level", "")
	v.SetDefault("tick_interval", 200*time.Millisecond)
	v.SetDefault("sound.enabled", true)
	v.SetDefault("sound.player", "bell")
	v.SetDefault("sound.command", "")
	v.SetDefault("defaults.work_seconds", 60)
	v.SetDefault("defaults.rest_seconds", 30)
	v.SetDefault("defaults.rounds", 3)
	v.SetDefault("defaults.include_rest", true)
}

// Load reads configuration from defaults, the config file and DRILL_*
// environment variables. An empty cfgFile looks for config.yaml in
// ~/.drill; a missing file there is not an error.
func Load(cfgFile string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, home)

	v.SetEnvPrefix("DRILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(filepath.Join(home, ".drill"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.TickInterval <= 0 {
		return nil, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	switch c.Sound.Player {
	case "bell", "command", "none":
	default:
		return nil, fmt.Errorf("sound.player must be bell, command or none, got %q", c.Sound.Player)
	}

	c.ConfigFile = v.ConfigFileUsed()
	c.DBPath = filepath.Join(c.DataDir, "drill.db")
	c.UserWorkoutDir = filepath.Join(c.DataDir, "workouts")
	c.ProjectWorkoutDir = filepath.Join(".drill", "workouts")

	return &c, nil
}

func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(c.UserWorkoutDir, 0755); err != nil {
		return err
	}
	return nil
}

// WorkoutDirs lists workout directories in lookup order. Project
// workouts shadow user workouts of the same name.
func (c *Config) WorkoutDirs() []string {
	return []string{c.ProjectWorkoutDir, c.UserWorkoutDir}
}

func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "drill.log")
}
