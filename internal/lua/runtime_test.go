package lua

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpataki/drill/internal/log"
)

func TestEval_Workout(t *testing.T) {
	src := `
function workout()
  log("building tabata")
  return {
    name = "tabata",
    description = "eight rounds",
    stations = stations("Burpee", 2),
    work = 20,
    rest = 10,
    rounds = 8,
    warmup = minutes(2),
    cooldown = minutes(0.5),
  }
end
`
	r := NewRuntime()
	w, err := r.Eval("tabata.lua", src)
	require.NoError(t, err)
	require.Equal(t, "tabata", w.Name)
	require.Equal(t, "eight rounds", w.Description)
	require.Equal(t, []string{"Burpee 1", "Burpee 2"}, w.Stations)
	require.Equal(t, 20, w.WorkSeconds)
	require.Equal(t, 10, w.RestSeconds)
	require.Equal(t, 8, w.Rounds)
	require.Equal(t, 120, w.WarmupSeconds)
	require.Equal(t, 30, w.CooldownSeconds)
	require.Nil(t, w.IncludeRest)
	require.Equal(t, []string{"building tabata"}, r.GetLogs())
}

func TestEval_IncludeRestAndLoops(t *testing.T) {
	src := `
function workout()
  local s = {}
  for _, name in ipairs({"Squat", "Lunge"}) do
    table.insert(s, string.upper(name))
  end
  return { stations = s, work = 40, rounds = 2, include_rest = false }
end
`
	w, err := NewRuntime().Eval("legs.lua", src)
	require.NoError(t, err)
	require.Equal(t, []string{"SQUAT", "LUNGE"}, w.Stations)
	require.NotNil(t, w.IncludeRest)
	require.False(t, *w.IncludeRest)
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"no workout function", `x = 1`, "must define a 'workout' function"},
		{"syntax error", `function workout( return end`, "failed to load script"},
		{"returns non-table", `function workout() return 5 end`, "must return a table"},
		{"fractional seconds", `function workout() return { stations = {"a"}, work = 1.5, rounds = 1 } end`, "whole number"},
		{"non-string station", `function workout() return { stations = {1}, work = 1, rounds = 1 } end`, "stations must be strings"},
		{"runtime error", `function workout() error("boom") end`, "workout() failed"},
		{"bad stations count", `function workout() return { stations = stations("x", 0) } end`, "workout() failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuntime().Eval("bad.lua", tt.src)
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestEval_Sandbox(t *testing.T) {
	for _, global := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print", "os", "io"} {
		src := `function workout() return { name = type(` + global + `) } end`
		w, err := NewRuntime().Eval("sandbox.lua", src)
		require.NoError(t, err)
		require.Equal(t, "nil", w.Name, "%s should not be reachable", global)
	}

	w, err := NewRuntime().Eval("sandbox.lua", `function workout() return { name = type(math.random) } end`)
	require.NoError(t, err)
	require.Equal(t, "nil", w.Name)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hold.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function workout() return { name = "hold", stations = {"Wall sit"}, work = minutes(1), rounds = 3 } end`), 0644))

	w, err := NewRuntime().Load(path)
	require.NoError(t, err)
	require.Equal(t, "hold", w.Name)
	require.Equal(t, 60, w.WorkSeconds)

	_, err = NewRuntime().Load(filepath.Join(t.TempDir(), "missing.lua"))
	require.ErrorContains(t, err, "failed to read script")

	require.True(t, IsLuaWorkout(path))
	require.False(t, IsLuaWorkout("hold.yaml"))
}

func TestEval_LogWritesDebugEntry(t *testing.T) {
	var buf bytes.Buffer
	log.Configure(log.Config{Level: "debug", Output: &buf})

	src := `
function workout()
  log("hello from script")
  return { stations = {"Plank"}, work = 30, rounds = 1 }
end
`
	_, err := NewRuntime().Eval("script.lua", src)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"component":"lua"`)
	require.Contains(t, buf.String(), `"script":"script.lua"`)
	require.Contains(t, buf.String(), "hello from script")
}
