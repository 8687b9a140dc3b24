package workout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mpataki/drill/internal/engine"
	"github.com/mpataki/drill/internal/lua"
	"github.com/mpataki/drill/internal/models"
)

func Parse(path string) (*models.Workout, error) {
	if lua.IsLuaWorkout(path) {
		w, err := lua.NewRuntime().Load(path)
		if err != nil {
			return nil, err
		}
		w.Source = path
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workout file: %w", err)
	}

	var w models.Workout
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse workout YAML: %w", err)
	}
	w.Source = path

	return &w, nil
}

// LoadAll loads built-ins followed by every workout file in dirs. Earlier
// directories win over later ones, and any file wins over a built-in.
func LoadAll(dirs []string) (map[string]*models.Workout, error) {
	workouts := make(map[string]*models.Workout)
	for _, w := range Builtins() {
		workouts[w.Name] = w
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := loadFromDir(dirs[i], workouts); err != nil {
			// Skip directories that don't exist
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}

	return workouts, nil
}

func loadFromDir(dir string, workouts map[string]*models.Workout) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" && ext != ".lua" {
			continue
		}

		path := filepath.Join(dir, name)
		w, err := Parse(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		// Use workout name from file, or filename without extension
		if w.Name == "" {
			w.Name = strings.TrimSuffix(name, ext)
		}
		if err := Validate(w); err != nil {
			return fmt.Errorf("invalid workout %s: %w", path, err)
		}

		workouts[w.Name] = w
	}

	return nil
}

// Validate checks a workout by building its timeline.
func Validate(w *models.Workout) error {
	if w.Name == "" {
		return fmt.Errorf("workout must have a name")
	}
	if _, err := engine.BuildTimeline(w.EngineConfig()); err != nil {
		return err
	}
	return nil
}

// Lookup resolves name against the loaded workouts, falling back to
// treating name as a path to a workout file.
func Lookup(workouts map[string]*models.Workout, name string) (*models.Workout, error) {
	if w, ok := workouts[name]; ok {
		return w, nil
	}
	if _, err := os.Stat(name); err == nil {
		w, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if w.Name == "" {
			w.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		}
		if err := Validate(w); err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, fmt.Errorf("workout %q not found", name)
}
