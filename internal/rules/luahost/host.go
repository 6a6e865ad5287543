// Package luahost runs the world rules hooks from Lua scripts.
//
// Scripts define any of these globals:
//
//	onMoveItem(ctx)                        -> nil | bool | outcome name
//	onItemMoved(ctx)
//	onHealthChange(target, attacker, damage)
//	onManaChange(target, attacker, damage)
//	onPrepareDeath(target, attacker)       -> bool
//	subscribes(event, creature)            -> bool
//
// damage is {primary = {type, value}, secondary = {type, value}, origin}
// and is read back after the call, so handlers rewrite it in place.
package luahost

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/sim/world"
)

const (
	hookPreMove      = "onMoveItem"
	hookPostMove     = "onItemMoved"
	hookHealthChange = "onHealthChange"
	hookManaChange   = "onManaChange"
	hookPrepareDeath = "onPrepareDeath"
	hookSubscribes   = "subscribes"
)

var eventHooks = map[world.HookEvent]string{
	world.EventHealthChange: hookHealthChange,
	world.EventManaChange:   hookManaChange,
	world.EventPrepareDeath: hookPrepareDeath,
}

// Host implements world.Rules. Like the world it must only be used from the
// world goroutine, Reload included.
type Host struct {
	dir string
	log logrus.FieldLogger

	state   *lua.State
	defined map[string]bool
	files   []string
}

var _ world.Rules = (*Host)(nil)

// New loads every .lua file in dir in name order. A missing or empty dir
// gives a host that allows everything.
func New(dir string, log logrus.FieldLogger) (*Host, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Host{dir: dir, log: log.WithField("component", "luahost")}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Reload rebuilds the Lua state from disk. On error the previous scripts
// stay active.
func (h *Host) Reload() error {
	files, err := scriptFiles(h.dir)
	if err != nil {
		return err
	}
	l := lua.NewState()
	lua.OpenLibraries(l)
	h.registerAPI(l)
	for _, f := range files {
		if err := lua.LoadFile(l, f, ""); err != nil {
			return fmt.Errorf("luahost: load %s: %w", filepath.Base(f), err)
		}
		if err := l.ProtectedCall(0, 0, 0); err != nil {
			return fmt.Errorf("luahost: run %s: %w", filepath.Base(f), err)
		}
	}
	defined := map[string]bool{}
	for _, name := range []string{hookPreMove, hookPostMove, hookHealthChange, hookManaChange, hookPrepareDeath, hookSubscribes} {
		l.Global(name)
		defined[name] = l.IsFunction(-1)
		l.Pop(1)
	}
	h.state, h.defined, h.files = l, defined, files
	h.log.WithFields(logrus.Fields{"dir": h.dir, "files": len(files)}).Info("rules loaded")
	return nil
}

func (h *Host) Files() []string { return append([]string(nil), h.files...) }

func scriptFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("luahost: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lua") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func (h *Host) registerAPI(l *lua.State) {
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "log", Function: func(l *lua.State) int {
			h.log.WithField("script", true).Info(lua.CheckString(l, 1))
			return 0
		}},
	}, 0)
	l.SetGlobal("tilecraft")
}

// call runs hook with the arguments push leaves on the stack. The results
// are left on the stack for the caller; the caller restores the top.
func (h *Host) call(hook string, nargs, nresults int, push func(l *lua.State)) bool {
	if !h.defined[hook] {
		return false
	}
	l := h.state
	l.Global(hook)
	push(l)
	if err := l.ProtectedCall(nargs, nresults, 0); err != nil {
		h.log.WithError(err).WithField("hook", hook).Warn("rules hook failed")
		return false
	}
	return true
}

func (h *Host) PreMove(mc world.MoveContext) world.Outcome {
	if !h.defined[hookPreMove] {
		return world.OK
	}
	l := h.state
	top := l.Top()
	defer l.SetTop(top)
	if !h.call(hookPreMove, 1, 1, func(l *lua.State) { pushMove(l, mc) }) {
		return world.OK
	}
	switch {
	case l.IsNoneOrNil(-1):
		return world.OK
	case l.IsBoolean(-1):
		if l.ToBoolean(-1) {
			return world.OK
		}
		return world.NotPossible
	}
	name, _ := l.ToString(-1)
	ret, ok := world.ParseOutcome(strings.ToUpper(name))
	if !ok {
		h.log.WithField("result", name).Warn("onMoveItem returned an unknown outcome")
		return world.NotPossible
	}
	return ret
}

func (h *Host) PostMove(mc world.MoveContext) {
	if !h.defined[hookPostMove] {
		return
	}
	top := h.state.Top()
	defer h.state.SetTop(top)
	h.call(hookPostMove, 1, 0, func(l *lua.State) { pushMove(l, mc) })
}

func (h *Host) OnHealthChange(target, attacker *world.Creature, d *world.CombatDamage) {
	h.damageHook(hookHealthChange, target, attacker, d)
}

func (h *Host) OnManaChange(target, attacker *world.Creature, d *world.CombatDamage) {
	h.damageHook(hookManaChange, target, attacker, d)
}

func (h *Host) damageHook(hook string, target, attacker *world.Creature, d *world.CombatDamage) {
	if !h.defined[hook] || d == nil {
		return
	}
	l := h.state
	top := l.Top()
	defer l.SetTop(top)
	pushDamage(l, d)
	table := l.Top()
	ok := h.call(hook, 3, 0, func(l *lua.State) {
		pushCreature(l, target)
		pushCreature(l, attacker)
		l.PushValue(table)
	})
	if ok {
		readDamage(l, table, d)
	}
}

func (h *Host) OnPrepareDeath(target, attacker *world.Creature) bool {
	if !h.defined[hookPrepareDeath] {
		return true
	}
	l := h.state
	top := l.Top()
	defer l.SetTop(top)
	ok := h.call(hookPrepareDeath, 2, 1, func(l *lua.State) {
		pushCreature(l, target)
		pushCreature(l, attacker)
	})
	if !ok || l.IsNoneOrNil(-1) {
		return true
	}
	return l.ToBoolean(-1)
}

// Subscribes holds when the event's handler exists and, if the scripts
// define subscribes, it agrees.
func (h *Host) Subscribes(ev world.HookEvent, c *world.Creature) bool {
	hook, ok := eventHooks[ev]
	if !ok || !h.defined[hook] {
		return false
	}
	if !h.defined[hookSubscribes] {
		return true
	}
	l := h.state
	top := l.Top()
	defer l.SetTop(top)
	if !h.call(hookSubscribes, 2, 1, func(l *lua.State) {
		l.PushString(hook)
		pushCreature(l, c)
	}) {
		return false
	}
	return l.ToBoolean(-1)
}
