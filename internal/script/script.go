// Package script drives sensor readings from a Lua program, so offline
// renders can replay gestures deterministically.
//
// A script defines a global function tick(t), called with the render time
// in seconds before every control tick. Inside it:
//
//	set(name, value)  writes a sensor reading (e.g. set("cursorY", 0.8))
//	get(name)         returns the current reading
//	chord(i)          selects chord i (0-based) directly
//	log(msg)          writes a debug log line
package script

import (
	"log/slog"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/cwbudde/algo-chords/sensor"
)

// Env is what a script can reach.
type Env struct {
	Bank        *sensor.Bank
	SelectChord func(int)
	Logger      *slog.Logger
}

// Script is a loaded Lua program. It is not safe for concurrent use.
type Script struct {
	L    *lua.LState
	env  Env
	tick lua.LValue
}

// Load runs the file at path and looks up its tick function.
func Load(path string, env Env) (*Script, error) {
	s := newScript(env)
	if err := s.L.DoFile(path); err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "load script %s", path)
	}
	return s.finish()
}

// LoadString is Load for inline source.
func LoadString(src string, env Env) (*Script, error) {
	s := newScript(env)
	if err := s.L.DoString(src); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "load script")
	}
	return s.finish()
}

func newScript(env Env) *Script {
	if env.Bank == nil {
		env.Bank = sensor.NewBank()
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	s := &Script{
		L:   lua.NewState(lua.Options{SkipOpenLibs: false}),
		env: env,
	}
	s.L.SetGlobal("set", s.L.NewFunction(s.luaSet))
	s.L.SetGlobal("get", s.L.NewFunction(s.luaGet))
	s.L.SetGlobal("chord", s.L.NewFunction(s.luaChord))
	s.L.SetGlobal("log", s.L.NewFunction(s.luaLog))
	return s
}

func (s *Script) finish() (*Script, error) {
	fn := s.L.GetGlobal("tick")
	if fn.Type() != lua.LTFunction {
		s.Close()
		return nil, errors.New("script does not define tick(t)")
	}
	s.tick = fn
	return s, nil
}

// Tick calls tick(t).
func (s *Script) Tick(t float64) error {
	err := s.L.CallByParam(lua.P{
		Fn:      s.tick,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(t))
	return errors.Wrapf(err, "tick(%g)", t)
}

// Close releases the Lua state.
func (s *Script) Close() {
	if s.L != nil {
		s.L.Close()
		s.L = nil
	}
}

func (s *Script) sensorArg(L *lua.LState) sensor.ID {
	id, err := sensor.ParseID(L.CheckString(1))
	if err != nil || id == sensor.None {
		L.ArgError(1, "unknown sensor")
	}
	return id
}

func (s *Script) luaSet(L *lua.LState) int {
	id := s.sensorArg(L)
	s.env.Bank.SetReading(id, float64(L.CheckNumber(2)))
	return 0
}

func (s *Script) luaGet(L *lua.LState) int {
	id := s.sensorArg(L)
	L.Push(lua.LNumber(s.env.Bank.Reading(id)))
	return 1
}

func (s *Script) luaChord(L *lua.LState) int {
	i := L.CheckInt(1)
	if s.env.SelectChord != nil {
		s.env.SelectChord(i)
	}
	return 0
}

func (s *Script) luaLog(L *lua.LState) int {
	s.env.Logger.Debug("script", "msg", L.CheckString(1))
	return 0
}
