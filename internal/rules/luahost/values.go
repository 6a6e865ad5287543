package luahost

import (
	"github.com/Shopify/go-lua"

	"tilecraft.ai/internal/sim/world"
)

func pushPosition(l *lua.State, p world.Position) {
	l.CreateTable(0, 3)
	l.PushInteger(p.X)
	l.SetField(-2, "x")
	l.PushInteger(p.Y)
	l.SetField(-2, "y")
	l.PushInteger(p.Z)
	l.SetField(-2, "z")
}

// pushCreature pushes a read-only snapshot of c, or nil.
func pushCreature(l *lua.State, c *world.Creature) {
	if c == nil {
		l.PushNil()
		return
	}
	l.CreateTable(0, 9)
	l.PushInteger(int(c.ID()))
	l.SetField(-2, "id")
	l.PushString(c.Name())
	l.SetField(-2, "name")
	l.PushString(c.Kind().String())
	l.SetField(-2, "kind")
	l.PushInteger(c.Health())
	l.SetField(-2, "health")
	l.PushInteger(c.MaxHealth())
	l.SetField(-2, "max_health")
	l.PushInteger(c.Mana())
	l.SetField(-2, "mana")
	l.PushInteger(c.MaxMana())
	l.SetField(-2, "max_mana")
	l.PushInteger(int(c.Faction()))
	l.SetField(-2, "faction")
	pushPosition(l, c.Position())
	l.SetField(-2, "pos")
}

func pushMove(l *lua.State, mc world.MoveContext) {
	l.CreateTable(0, 6)
	pushCreature(l, mc.Actor)
	l.SetField(-2, "actor")
	if mc.Item != nil {
		l.PushInteger(int(mc.Item.ID()))
		l.SetField(-2, "item")
		l.PushString(mc.Item.Name())
		l.SetField(-2, "name")
	}
	l.PushInteger(mc.Count)
	l.SetField(-2, "count")
	pushPosition(l, mc.FromPos)
	l.SetField(-2, "from")
	pushPosition(l, mc.ToPos)
	l.SetField(-2, "to")
}

func pushComponent(l *lua.State, c world.DamageComponent) {
	l.CreateTable(0, 2)
	l.PushString(c.Type.String())
	l.SetField(-2, "type")
	l.PushInteger(c.Value)
	l.SetField(-2, "value")
}

func pushDamage(l *lua.State, d *world.CombatDamage) {
	l.CreateTable(0, 3)
	pushComponent(l, d.Primary)
	l.SetField(-2, "primary")
	pushComponent(l, d.Secondary)
	l.SetField(-2, "secondary")
	l.PushString(d.Origin.String())
	l.SetField(-2, "origin")
}

// readDamage copies values and types back from the table at index. Fields
// the script removed or broke keep their old value.
func readDamage(l *lua.State, index int, d *world.CombatDamage) {
	readComponent(l, index, "primary", &d.Primary)
	readComponent(l, index, "secondary", &d.Secondary)
}

func readComponent(l *lua.State, index int, name string, c *world.DamageComponent) {
	l.Field(index, name)
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeTable {
		return
	}
	l.Field(-1, "value")
	if v, ok := l.ToInteger(-1); ok {
		c.Value = v
	}
	l.Pop(1)
	l.Field(-1, "type")
	if s, ok := l.ToString(-1); ok {
		if t, ok := world.ParseCombatType(s); ok {
			c.Type = t
		}
	}
	l.Pop(1)
}
