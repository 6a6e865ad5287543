package world

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/tuning"
)

const (
	itemGrass      = 101
	itemHole       = 102
	itemWall       = 103
	itemGold       = 201
	itemPlatinum   = 202
	itemCrystal    = 203
	itemBackpack   = 301
	itemBag        = 302
	itemChest      = 303
	itemSword      = 701
	itemPlate      = 702
	itemHelmet     = 703
	itemRune       = 801
	itemBlankRune  = 802
	itemFireField  = 901
	itemDyingFire  = 902
	itemLitTorch   = 401
	itemUnlitTorch = 403
	itemBloodSplat = 501
	itemSnowball   = 603
)

var spawn = Position{X: 100, Y: 100, Z: 7}

func newTestWorld(t *testing.T, opts ...func(*tuning.Tuning, *Deps)) *World {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	require.NoError(t, err)
	cfg := tuning.Defaults()
	var deps Deps
	for _, o := range opts {
		o(&cfg, &deps)
	}
	w, err := New(cfg, cats, deps)
	require.NoError(t, err)
	require.NoError(t, w.BuildPlain(90, 90, 110, 110, 7, itemGrass))
	return w
}

func withRules(r Rules) func(*tuning.Tuning, *Deps) {
	return func(_ *tuning.Tuning, d *Deps) { d.Rules = r }
}

func withAudit(a AuditLogger) func(*tuning.Tuning, *Deps) {
	return func(_ *tuning.Tuning, d *Deps) { d.Audit = a }
}

func (w *World) advance(n int) {
	for i := 0; i < n; i++ {
		w.StepOnce(nil, nil, nil)
	}
}

func placePlayer(t *testing.T, w *World, name string, pos Position) *Creature {
	t.Helper()
	c, ret := w.PlaceCreature(CreatureSpec{Name: name, Kind: KindPlayer, Health: 150, Mana: 100, MaxMana: 100, Capacity: 40000}, pos)
	require.Equal(t, OK, ret)
	require.Equal(t, pos, c.Position())
	return c
}

func placeMonster(t *testing.T, w *World, spec CreatureSpec, pos Position) *Creature {
	t.Helper()
	spec.Kind = KindMonster
	c, ret := w.PlaceCreature(spec, pos)
	require.Equal(t, OK, ret)
	return c
}

func placeItem(t *testing.T, w *World, pos Position, id uint16, count int) *Item {
	t.Helper()
	it, ret := w.PlaceItem(pos, id, count)
	require.Equal(t, OK, ret)
	return it
}

func putInContainer(t *testing.T, w *World, ct *Container, id uint16, count int) *Item {
	t.Helper()
	it := w.CreateItem(id, count)
	require.NotNil(t, it)
	ret, rest := w.AddItem(ct, it, IndexWhereever, 0, false)
	require.Equal(t, OK, ret)
	require.Zero(t, rest)
	return it
}

func equip(t *testing.T, w *World, p *Creature, s Slot, id uint16, count int) *Item {
	t.Helper()
	it := w.CreateItem(id, count)
	require.NotNil(t, it)
	ret, _ := w.AddItem(p.Inventory(), it, int(s), 0, false)
	require.Equal(t, OK, ret)
	require.Same(t, it, p.Inventory().Slot(s))
	return it
}

func itemIDs(items []*Item) []uint16 {
	out := make([]uint16, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}

// fakeRules records hook calls and lets tests veto or rewrite.
type fakeRules struct {
	NopRules

	preMove      func(MoveContext) Outcome
	onHealth     func(target, attacker *Creature, d *CombatDamage)
	onMana       func(target, attacker *Creature, d *CombatDamage)
	prepareDeath func(target, attacker *Creature) bool

	postMoves   []MoveContext
	healthCalls int
	manaCalls   int
}

func (r *fakeRules) PreMove(mc MoveContext) Outcome {
	if r.preMove != nil {
		return r.preMove(mc)
	}
	return OK
}

func (r *fakeRules) PostMove(mc MoveContext) { r.postMoves = append(r.postMoves, mc) }

func (r *fakeRules) OnHealthChange(target, attacker *Creature, d *CombatDamage) {
	r.healthCalls++
	if r.onHealth != nil {
		r.onHealth(target, attacker, d)
	}
}

func (r *fakeRules) OnManaChange(target, attacker *Creature, d *CombatDamage) {
	r.manaCalls++
	if r.onMana != nil {
		r.onMana(target, attacker, d)
	}
}

func (r *fakeRules) OnPrepareDeath(target, attacker *Creature) bool {
	if r.prepareDeath != nil {
		return r.prepareDeath(target, attacker)
	}
	return true
}

func (r *fakeRules) Subscribes(ev HookEvent, c *Creature) bool {
	switch ev {
	case EventHealthChange:
		return r.onHealth != nil
	case EventManaChange:
		return r.onMana != nil
	case EventPrepareDeath:
		return r.prepareDeath != nil
	}
	return false
}

type memAudit struct{ entries []AuditEntry }

func (m *memAudit) WriteAudit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) actions() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}
