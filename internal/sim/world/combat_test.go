package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func physical(v int, origin CombatOrigin) *CombatDamage {
	return &CombatDamage{Primary: DamageComponent{Type: CombatPhysical, Value: v}, Origin: origin}
}

func TestChangeHealth_LethalDamageIsClampedAndMonsterRemoved(t *testing.T) {
	audit := &memAudit{}
	w := newTestWorld(t, withAudit(audit))
	p := placePlayer(t, w, "ann", spawn)
	m := placeMonster(t, w, CreatureSpec{Name: "rat", Health: 30}, spawn.Offset(1, 0, 0))

	d := physical(-50, OriginMelee)
	require.Equal(t, OK, w.ChangeHealth(p, m, d))
	assert.Equal(t, -30, d.Primary.Value)
	assert.Equal(t, 0, m.Health())
	assert.True(t, m.IsRemoved())
	assert.Nil(t, w.Creature(m.ID()))

	require.GreaterOrEqual(t, len(audit.entries), 2)
	var damage *AuditEntry
	for i := range audit.entries {
		if audit.entries[i].Action == AuditDamage {
			damage = &audit.entries[i]
		}
	}
	require.NotNil(t, damage)
	assert.Equal(t, -30, damage.Value)
	assert.Equal(t, p.ID(), damage.Actor)
	assert.Contains(t, audit.actions(), AuditDeath)
}

func TestChangeHealth_PrepareDeathVeto(t *testing.T) {
	rules := &fakeRules{prepareDeath: func(*Creature, *Creature) bool { return false }}
	w := newTestWorld(t, withRules(rules))
	p := placePlayer(t, w, "ann", spawn)

	assert.Equal(t, NotPossible, w.ChangeHealth(nil, p, physical(-200, OriginSpell)))
	assert.Equal(t, 150, p.Health())
	assert.Equal(t, spawn, p.Position())

	// Non-lethal damage never asks.
	require.Equal(t, OK, w.ChangeHealth(nil, p, physical(-20, OriginSpell)))
	assert.Equal(t, 130, p.Health())
}

func TestChangeHealth_ManaShieldAbsorbs(t *testing.T) {
	tests := []struct {
		name       string
		mana, hit  int
		wantMana   int
		wantHealth int
	}{
		{name: "fully absorbed", mana: 100, hit: 40, wantMana: 60, wantHealth: 150},
		{name: "spills over", mana: 30, hit: 50, wantMana: 0, wantHealth: 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			p, ret := w.PlaceCreature(CreatureSpec{Name: "ann", Kind: KindPlayer, Health: 150, Mana: tt.mana, Capacity: 40000, ManaShield: true}, spawn)
			require.Equal(t, OK, ret)

			require.Equal(t, OK, w.ChangeHealth(nil, p, physical(-tt.hit, OriginSpell)))
			assert.Equal(t, tt.wantMana, p.Mana())
			assert.Equal(t, tt.wantHealth, p.Health())
		})
	}
}

func TestChangeHealth_HookRewritesHealOnce(t *testing.T) {
	rules := &fakeRules{onHealth: func(_, _ *Creature, d *CombatDamage) {
		if d.Primary.Value > 0 {
			d.Primary.Value = 10
		}
	}}
	w := newTestWorld(t, withRules(rules))
	p := placePlayer(t, w, "ann", spawn)
	require.Equal(t, OK, w.ChangeHealth(nil, p, physical(-50, OriginNone)))
	require.Equal(t, 100, p.Health())
	require.Zero(t, rules.healthCalls)

	heal := &CombatDamage{Primary: DamageComponent{Type: CombatHealing, Value: 50}, Origin: OriginSpell}
	require.Equal(t, OK, w.ChangeHealth(nil, p, heal))
	assert.Equal(t, 110, p.Health())
	assert.Equal(t, 1, rules.healthCalls)
}

func TestChangeHealth_HookReappliesWithoutReentry(t *testing.T) {
	var w *World
	rules := &fakeRules{}
	rules.onHealth = func(target, attacker *Creature, d *CombatDamage) {
		if rules.healthCalls > 50 {
			return
		}
		w.ChangeHealth(attacker, target, d)
	}
	w = newTestWorld(t, withRules(rules))
	p := placePlayer(t, w, "ann", spawn)

	d := physical(-10, OriginSpell)
	require.Equal(t, OK, w.ChangeHealth(nil, p, d))
	assert.Equal(t, 1, rules.healthCalls)
	assert.Equal(t, 130, p.Health(), "once from the hook, once after it")
	assert.Equal(t, OriginSpell, d.Origin)
}

func TestChangeMana_HookReappliesWithoutReentry(t *testing.T) {
	var w *World
	rules := &fakeRules{}
	rules.onMana = func(target, attacker *Creature, d *CombatDamage) {
		if rules.manaCalls > 50 {
			return
		}
		w.ChangeMana(attacker, target, d)
	}
	w = newTestWorld(t, withRules(rules))
	p := placePlayer(t, w, "ann", spawn)

	drain := &CombatDamage{Primary: DamageComponent{Type: CombatManaDrain, Value: -30}, Origin: OriginSpell}
	require.Equal(t, OK, w.ChangeMana(nil, p, drain))
	assert.Equal(t, 1, rules.manaCalls)
	assert.Equal(t, 40, p.Mana())
}

func TestChangeHealth_ManaShieldWithHooksAbsorbsOnce(t *testing.T) {
	rules := &fakeRules{
		onHealth: func(*Creature, *Creature, *CombatDamage) {},
		onMana:   func(*Creature, *Creature, *CombatDamage) {},
	}
	w := newTestWorld(t, withRules(rules))
	p, ret := w.PlaceCreature(CreatureSpec{Name: "ann", Kind: KindPlayer, Health: 150, Mana: 100, MaxMana: 100, Capacity: 40000, ManaShield: true}, spawn)
	require.Equal(t, OK, ret)

	require.Equal(t, OK, w.ChangeHealth(nil, p, physical(-40, OriginSpell)))
	assert.Equal(t, 1, rules.healthCalls)
	assert.Equal(t, 1, rules.manaCalls)
	assert.Equal(t, 60, p.Mana())
	assert.Equal(t, 150, p.Health())
}

func TestChangeHealth_HealIsCappedAtMax(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	require.Equal(t, OK, w.ChangeHealth(nil, p, physical(-5, OriginNone)))

	heal := &CombatDamage{Primary: DamageComponent{Type: CombatHealing, Value: 500}}
	require.Equal(t, OK, w.ChangeHealth(nil, p, heal))
	assert.Equal(t, p.MaxHealth(), p.Health())
}

func TestChangeHealth_Exemptions(t *testing.T) {
	w := newTestWorld(t)
	a := placeMonster(t, w, CreatureSpec{Name: "orc", Health: 50, Faction: 3}, spawn.Offset(1, 0, 0))
	b := placeMonster(t, w, CreatureSpec{Name: "orc", Health: 50, Faction: 3}, spawn.Offset(2, 0, 0))
	assert.Equal(t, NotPossible, w.ChangeHealth(a, b, physical(-10, OriginMelee)))
	assert.Equal(t, 50, b.Health())

	p := placePlayer(t, w, "ann", spawn)
	q := placePlayer(t, w, "bob", spawn.Offset(0, 1, 0))
	p.SetSkull(SkullBlack)
	assert.Equal(t, NotPossible, w.ChangeHealth(p, q, physical(-10, OriginMelee)))
	assert.Equal(t, 150, q.Health())

	q.SetInvulnerable(true)
	assert.Equal(t, OK, w.ChangeHealth(nil, q, physical(-10, OriginMelee)))
	assert.Equal(t, 150, q.Health())
}

func TestChangeHealth_PlayerRespawns(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn.Offset(3, 0, 0))

	require.Equal(t, OK, w.ChangeHealth(nil, p, physical(-500, OriginMelee)))
	assert.False(t, p.IsRemoved())
	assert.Equal(t, spawn, p.Position())
	assert.Equal(t, p.MaxHealth(), p.Health())
}

func TestChangeHealth_BleedingLeavesSplash(t *testing.T) {
	w := newTestWorld(t)
	pos := spawn.Offset(1, 0, 0)
	m := placeMonster(t, w, CreatureSpec{Name: "wolf", Health: 100, Race: RaceBlood}, pos)

	require.Equal(t, OK, w.ChangeHealth(nil, m, physical(-10, OriginMelee)))
	assert.NotNil(t, w.FindItemOfType(w.Tile(pos), itemBloodSplat, false, -1))
}

func TestBlockHit_Immunity(t *testing.T) {
	w := newTestWorld(t)
	m := placeMonster(t, w, CreatureSpec{Name: "demon", Health: 100, Immunities: CombatFire}, spawn.Offset(1, 0, 0))

	d := &CombatDamage{Primary: DamageComponent{Type: CombatFire, Value: -30}}
	assert.True(t, w.BlockHit(nil, m, d, true, true, false, false))
	assert.Equal(t, BlockImmunity, d.PrimaryBlock)
	assert.Zero(t, d.Primary.Value)
}

func TestBlockHit_ResistanceAndMixedComponents(t *testing.T) {
	w := newTestWorld(t)
	m := placeMonster(t, w, CreatureSpec{
		Name:        "slime",
		Health:      100,
		Resistances: map[CombatType]int{CombatEarth: 50},
		Immunities:  CombatDeath,
	}, spawn.Offset(1, 0, 0))

	d := &CombatDamage{
		Primary:   DamageComponent{Type: CombatEarth, Value: -40},
		Secondary: DamageComponent{Type: CombatDeath, Value: -10},
	}
	assert.False(t, w.BlockHit(nil, m, d, false, false, false, false))
	assert.Equal(t, -20, d.Primary.Value)
	assert.Equal(t, BlockNone, d.PrimaryBlock)
	assert.Equal(t, BlockImmunity, d.SecondaryBlock)

	d = &CombatDamage{Primary: DamageComponent{Type: CombatEarth, Value: -40}}
	assert.False(t, w.BlockHit(nil, m, d, false, false, false, true))
	assert.Equal(t, -40, d.Primary.Value)
}

func TestBlockHit_HealingPassesThrough(t *testing.T) {
	w := newTestWorld(t)
	m := placeMonster(t, w, CreatureSpec{Name: "rat", Health: 10, Immunities: CombatHealing}, spawn.Offset(1, 0, 0))
	d := &CombatDamage{Primary: DamageComponent{Type: CombatHealing, Value: 25}}
	assert.False(t, w.BlockHit(nil, m, d, true, true, false, false))
	assert.Equal(t, 25, d.Primary.Value)
}

func TestChangeMana(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	m := placeMonster(t, w, CreatureSpec{Name: "rat", Health: 10}, spawn.Offset(1, 0, 0))

	drain := &CombatDamage{Primary: DamageComponent{Type: CombatManaDrain, Value: -30}}
	require.Equal(t, OK, w.ChangeMana(nil, p, drain))
	assert.Equal(t, 70, p.Mana())

	drain = &CombatDamage{Primary: DamageComponent{Type: CombatManaDrain, Value: -500}}
	require.Equal(t, OK, w.ChangeMana(nil, p, drain))
	assert.Zero(t, p.Mana())

	gain := &CombatDamage{Primary: DamageComponent{Type: CombatHealing, Value: 500}}
	require.Equal(t, OK, w.ChangeMana(nil, p, gain))
	assert.Equal(t, p.MaxMana(), p.Mana())

	assert.Equal(t, OK, w.ChangeMana(nil, m, drain))

	p.SetInvulnerable(true)
	assert.Equal(t, NotPossible, w.ChangeMana(nil, p, &CombatDamage{Primary: DamageComponent{Type: CombatManaDrain, Value: -1}}))
}

func TestAttack(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	near := placeMonster(t, w, CreatureSpec{Name: "rat", Health: 10}, spawn.Offset(1, 1, 0))
	far := placeMonster(t, w, CreatureSpec{Name: "rat", Health: 10}, spawn.Offset(3, 0, 0))

	assert.Equal(t, NotPossible, w.Attack(p, p))
	assert.Equal(t, DestinationOutOfReach, w.Attack(p, far))
	assert.Equal(t, OK, w.Attack(p, near))
	assert.Equal(t, YouAreExhausted, w.Attack(p, near))

	w.advance(int(w.cfg.MsToTicks(w.cfg.Actions.AttackDelayMs)))
	assert.Equal(t, OK, w.Attack(p, near))
}

func TestParseCombatType(t *testing.T) {
	ct, ok := ParseCombatType(CombatFire.String())
	require.True(t, ok)
	assert.Equal(t, CombatFire, ct)

	_, ok = ParseCombatType("lava")
	assert.False(t, ok)
	assert.Equal(t, "mixed", (CombatFire | CombatIce).String())
}
