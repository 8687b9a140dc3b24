package workout

import (
	"sort"

	"github.com/mpataki/drill/internal/models"
)

func noRest() *bool {
	b := false
	return &b
}

// Builtins returns the bundled workouts, sorted by name. Each call returns
// fresh copies.
func Builtins() []*models.Workout {
	workouts := []*models.Workout{
		{
			Name:            "interval-walk",
			Description:     "Alternate brisk and easy walking in three-minute blocks",
			Stations:        []string{"Brisk walk", "Easy walk"},
			WorkSeconds:     180,
			Rounds:          5,
			IncludeRest:     noRest(),
			WarmupSeconds:   120,
			CooldownSeconds: 120,
		},
		{
			Name:        "plank-circuit",
			Description: "Plank and core circuit with short rests",
			Stations:    []string{"Front plank", "Left side plank", "Right side plank", "Hollow hold", "Dead bug"},
			WorkSeconds: 45,
			RestSeconds: 15,
			Rounds:      3,
		},
		{
			Name:        "isometric-hold",
			Description: "Timed isometric holds with equal rest",
			Stations:    []string{"Wall sit", "Glute bridge hold", "Hand squeeze"},
			WorkSeconds: 30,
			RestSeconds: 30,
			Rounds:      4,
		},
	}
	sort.Slice(workouts, func(i, j int) bool { return workouts[i].Name < workouts[j].Name })
	return workouts
}

// Names returns the keys of workouts in sorted order.
func Names(workouts map[string]*models.Workout) []string {
	names := make([]string, 0, len(workouts))
	for name := range workouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
