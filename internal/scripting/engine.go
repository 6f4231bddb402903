package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the map spawn rules.
// Single-goroutine access only (frame loop).
type Engine struct {
	dir string
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script in dir. A missing
// dir yields an engine without rules.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{dir: dir, log: log}
	vm, err := e.newVM()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

func (e *Engine) newVM() (*lua.LState, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("log_info", vm.NewFunction(e.luaLog))

	if err := loadDir(vm, e.dir, e.log); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load spawn scripts: %w", err)
	}
	return vm, nil
}

// Reload builds a fresh VM from the scripts on disk and swaps it in. On
// error the previous rules stay active.
func (e *Engine) Reload() error {
	vm, err := e.newVM()
	if err != nil {
		return err
	}
	e.vm.Close()
	e.vm = vm
	e.log.Info("spawn scripts reloaded", zap.String("dir", e.dir))
	return nil
}

// loadDir loads all .lua files in a directory in name order.
func loadDir(vm *lua.LState, dir string, log *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// SpawnContext describes one map spawn about to happen.
type SpawnContext struct {
	Location  string
	Outdoors  bool
	Pack      string
	Companion string
	X, Y      int
	Count     int
}

// AllowMapSpawn asks allow_map_spawn(ctx) how many companions of a spawn
// entry to create. The function may return a boolean (all or nothing) or a
// number (replacement count, 0 denies). Without the function, or when it
// fails, the entry's own count is used.
func (e *Engine) AllowMapSpawn(ctx SpawnContext) int {
	fn := e.vm.GetGlobal("allow_map_spawn")
	if fn == lua.LNil {
		return ctx.Count
	}

	t := e.vm.NewTable()
	t.RawSetString("location", lua.LString(ctx.Location))
	t.RawSetString("outdoors", lua.LBool(ctx.Outdoors))
	t.RawSetString("pack", lua.LString(ctx.Pack))
	t.RawSetString("companion", lua.LString(ctx.Companion))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("count", lua.LNumber(ctx.Count))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua allow_map_spawn error", zap.Error(err))
		return ctx.Count
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	switch v := result.(type) {
	case lua.LBool:
		if v {
			return ctx.Count
		}
		return 0
	case lua.LNumber:
		if n := int(v); n > 0 {
			return n
		}
		return 0
	case *lua.LNilType:
		return ctx.Count
	}
	e.log.Error("lua allow_map_spawn returned unexpected type", zap.String("type", result.Type().String()))
	return ctx.Count
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
