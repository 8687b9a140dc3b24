package lua

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/mpataki/drill/internal/log"
	"github.com/mpataki/drill/internal/models"
)

// Runtime evaluates Lua workout scripts in a sandboxed environment
type Runtime struct {
	logs   []string
	logger zerolog.Logger
}

// NewRuntime creates a new Lua runtime
func NewRuntime() *Runtime {
	return &Runtime{logs: make([]string, 0), logger: log.WithComponent("lua")}
}

// Load runs the script at scriptPath and converts the table returned by
// its workout() function into a Workout.
func (r *Runtime) Load(scriptPath string) (*models.Workout, error) {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return r.Eval(filepath.Base(scriptPath), string(script))
}

// Eval runs source and calls its workout() function.
func (r *Runtime) Eval(name, source string) (*models.Workout, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load any libraries by default
	})
	defer L.Close()

	r.openSafeLibs(L)
	r.registerAPI(L, name)

	// Load and run the script to define the workout function
	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	fn := L.GetGlobal("workout")
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("script must define a 'workout' function")
	}

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("workout() failed: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("workout() must return a table, got %s", ret.Type())
	}
	return tableToWorkout(tbl)
}

// openSafeLibs loads only the safe standard libraries
func (r *Runtime) openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)

	// Remove dangerous base functions
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("print", lua.LNil) // Use log() instead

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Workouts must be deterministic
	mathLib := L.GetGlobal("math")
	if tbl, ok := mathLib.(*lua.LTable); ok {
		L.SetField(tbl, "random", lua.LNil)
		L.SetField(tbl, "randomseed", lua.LNil)
	}
}

func (r *Runtime) registerAPI(L *lua.LState, script string) {
	L.SetGlobal("minutes", L.NewFunction(luaMinutes))
	L.SetGlobal("stations", L.NewFunction(luaStations))
	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		message := L.CheckString(1)
		r.logs = append(r.logs, message)
		r.logger.Debug().Str("script", script).Msg(message)
		return 0
	}))
}

// luaMinutes implements minutes(n), returning n*60 seconds
func luaMinutes(L *lua.LState) int {
	n := L.CheckNumber(1)
	L.Push(lua.LNumber(math.Round(float64(n) * 60)))
	return 1
}

// luaStations implements stations(name, n), returning {"name 1", ..., "name n"}
func luaStations(L *lua.LState) int {
	name := L.CheckString(1)
	n := L.CheckInt(2)
	if n < 1 {
		L.ArgError(2, "count must be at least 1")
		return 0
	}
	tbl := L.NewTable()
	for i := 1; i <= n; i++ {
		tbl.Append(lua.LString(fmt.Sprintf("%s %d", name, i)))
	}
	L.Push(tbl)
	return 1
}

func tableToWorkout(tbl *lua.LTable) (*models.Workout, error) {
	w := &models.Workout{}

	if v := tbl.RawGetString("name"); v != lua.LNil {
		w.Name = lua.LVAsString(v)
	}
	if v := tbl.RawGetString("description"); v != lua.LNil {
		w.Description = lua.LVAsString(v)
	}

	switch st := tbl.RawGetString("stations").(type) {
	case *lua.LTable:
		var err error
		st.ForEach(func(_, v lua.LValue) {
			if err != nil {
				return
			}
			s, ok := v.(lua.LString)
			if !ok {
				err = fmt.Errorf("stations must be strings, got %s", v.Type())
				return
			}
			w.Stations = append(w.Stations, string(s))
		})
		if err != nil {
			return nil, err
		}
	case *lua.LNilType:
	default:
		return nil, fmt.Errorf("stations must be a table, got %s", st.Type())
	}

	ints := []struct {
		field string
		dst   *int
	}{
		{"work", &w.WorkSeconds},
		{"rest", &w.RestSeconds},
		{"rounds", &w.Rounds},
		{"warmup", &w.WarmupSeconds},
		{"cooldown", &w.CooldownSeconds},
	}
	for _, f := range ints {
		v := tbl.RawGetString(f.field)
		if v == lua.LNil {
			continue
		}
		n, ok := v.(lua.LNumber)
		if !ok || float64(n) != math.Trunc(float64(n)) {
			return nil, fmt.Errorf("%s must be a whole number, got %s", f.field, v.String())
		}
		*f.dst = int(n)
	}

	if v := tbl.RawGetString("include_rest"); v != lua.LNil {
		b := lua.LVAsBool(v)
		w.IncludeRest = &b
	}

	return w, nil
}

// GetLogs returns the messages passed to log() during evaluation
func (r *Runtime) GetLogs() []string {
	return r.logs
}

// IsLuaWorkout checks if a file is a Lua workout script
func IsLuaWorkout(path string) bool {
	return filepath.Ext(path) == ".lua"
}
