package world

import "strings"

// CombatType is a bit so that immunities can be a mask.
type CombatType uint16

const (
	CombatNone     CombatType = 0
	CombatPhysical CombatType = 1 << iota
	CombatEnergy
	CombatEarth
	CombatFire
	CombatUndefined
	CombatLifeDrain
	CombatManaDrain
	CombatHealing
	CombatDrown
	CombatIce
	CombatHoly
	CombatDeath
)

var combatNames = map[CombatType]string{
	CombatNone:      "none",
	CombatPhysical:  "physical",
	CombatEnergy:    "energy",
	CombatEarth:     "earth",
	CombatFire:      "fire",
	CombatUndefined: "undefined",
	CombatLifeDrain: "lifedrain",
	CombatManaDrain: "manadrain",
	CombatHealing:   "healing",
	CombatDrown:     "drown",
	CombatIce:       "ice",
	CombatHoly:      "holy",
	CombatDeath:     "death",
}

func (t CombatType) String() string {
	if n, ok := combatNames[t]; ok {
		return n
	}
	return "mixed"
}

func ParseCombatType(s string) (CombatType, bool) {
	s = strings.ToLower(s)
	for t, n := range combatNames {
		if n == s {
			return t, true
		}
	}
	return CombatNone, false
}

// CombatOrigin tags where damage came from. Hooks only run for damage with an
// origin; the engine clears it once they have run.
type CombatOrigin uint8

const (
	OriginNone CombatOrigin = iota
	OriginCondition
	OriginSpell
	OriginMelee
	OriginRanged
)

func (o CombatOrigin) String() string {
	switch o {
	case OriginCondition:
		return "condition"
	case OriginSpell:
		return "spell"
	case OriginMelee:
		return "melee"
	case OriginRanged:
		return "ranged"
	}
	return "none"
}

type BlockType uint8

const (
	BlockNone BlockType = iota
	BlockDefense
	BlockArmor
	BlockImmunity
)

func (b BlockType) String() string {
	switch b {
	case BlockDefense:
		return "defense"
	case BlockArmor:
		return "armor"
	case BlockImmunity:
		return "immunity"
	}
	return "none"
}

// DamageComponent values are signed: negative takes away, positive heals.
type DamageComponent struct {
	Type  CombatType
	Value int
}

type CombatDamage struct {
	Primary   DamageComponent
	Secondary DamageComponent
	Origin    CombatOrigin

	PrimaryBlock   BlockType
	SecondaryBlock BlockType

	hooks uint8
}

func (d CombatDamage) Total() int { return d.Primary.Value + d.Secondary.Value }

// BlockHit reduces both components by the target's immunities, resistances,
// defense and armor. It reports true when nothing is left to apply. Healing
// is never blocked, and a missing component counts as blocked. field damage
// cannot be parried with defense.
func (w *World) BlockHit(attacker, target *Creature, d *CombatDamage, checkDefense, checkArmor, field, ignoreResistances bool) bool {
	if target == nil || d == nil {
		return true
	}
	if d.Primary.Type == CombatNone && d.Secondary.Type == CombatNone {
		return true
	}
	if target.IsPlayer() && target.ghost {
		return true
	}
	if d.Primary.Value > 0 {
		return false
	}
	pos := target.Position()

	d.PrimaryBlock = BlockNone
	if c := &d.Primary; c.Type != CombatNone && c.Type != CombatHealing {
		v := abs(c.Value)
		d.PrimaryBlock = w.blockComponent(target, c.Type, &v, checkDefense && !field, checkArmor, ignoreResistances)
		c.Value = -v
		w.sendBlockEffect(d.PrimaryBlock, c.Type, pos)
	}
	d.SecondaryBlock = BlockNone
	if c := &d.Secondary; c.Type != CombatNone && c.Type != CombatHealing {
		v := abs(c.Value)
		d.SecondaryBlock = w.blockComponent(target, c.Type, &v, false, false, ignoreResistances)
		c.Value = -v
		w.sendBlockEffect(d.SecondaryBlock, c.Type, pos)
	}

	primary := d.PrimaryBlock != BlockNone || d.Primary.Type == CombatNone
	secondary := d.SecondaryBlock != BlockNone || d.Secondary.Type == CombatNone
	return primary && secondary
}

// blockComponent works on a damage magnitude.
func (w *World) blockComponent(target *Creature, t CombatType, v *int, checkDefense, checkArmor, ignoreResistances bool) BlockType {
	if target.IsImmune(t) {
		*v = 0
		return BlockImmunity
	}
	if !ignoreResistances {
		if r := target.resistance(t); r != 0 {
			*v -= *v * r / 100
			if *v <= 0 {
				*v = 0
				return BlockArmor
			}
		}
	}
	block := BlockNone
	if checkDefense && target.defense > 0 {
		*v -= w.uniform(target.defense/2, target.defense)
		if *v <= 0 {
			*v = 0
			block = BlockDefense
			checkArmor = false
		}
	}
	if checkArmor {
		a := target.armor
		switch {
		case a > 3:
			*v -= w.uniform(a/2, a-(a%2+1))
		case a > 0:
			*v--
		}
		if *v <= 0 {
			*v = 0
			block = BlockArmor
		}
	}
	return block
}

func (w *World) sendBlockEffect(b BlockType, t CombatType, pos Position) {
	effect := EffectNone
	switch b {
	case BlockDefense:
		effect = EffectPoff
	case BlockArmor:
		effect = EffectBlockHit
	case BlockImmunity:
		switch t {
		case CombatUndefined:
			return
		case CombatEnergy, CombatFire, CombatPhysical, CombatIce, CombatDeath:
			effect = EffectBlockHit
		case CombatEarth:
			effect = EffectGreenRings
		case CombatHoly:
			effect = EffectHolyDamage
		default:
			effect = EffectPoff
		}
	}
	if effect != EffectNone {
		w.notify.MagicEffect(w.tileObservers(pos), pos, effect)
	}
}

// typeInfo picks the text colour and hit effect for damage of type t on
// target. Physical hits on bleeding creatures leave a splash.
func (w *World) typeInfo(t CombatType, target *Creature) (TextColor, Effect) {
	switch t {
	case CombatPhysical:
		switch target.race {
		case RaceVenom:
			return TextLightGreen, EffectPoison
		case RaceBlood:
			w.splash(target)
			return TextRed, EffectDrawBlood
		case RaceUndead:
			return TextLightGrey, EffectHitArea
		case RaceFire:
			return TextOrange, EffectDrawBlood
		case RaceEnergy:
			return TextPurple, EffectEnergyHit
		}
	case CombatEnergy:
		return TextPurple, EffectEnergyHit
	case CombatEarth:
		return TextLightGreen, EffectGreenRings
	case CombatDrown:
		return TextLightBlue, EffectLoseEnergy
	case CombatFire:
		return TextOrange, EffectHitByFire
	case CombatIce:
		return TextSkyBlue, EffectIceAttack
	case CombatHoly:
		return TextYellow, EffectHolyDamage
	case CombatDeath:
		return TextDarkRed, EffectMortArea
	case CombatLifeDrain:
		return TextRed, EffectRedShimmer
	}
	return TextNone, EffectNone
}

func (w *World) splash(target *Creature) {
	id := w.cfg.Combat.BloodSplashItem
	if id == 0 || target.tile == nil {
		return
	}
	s := w.CreateItem(id, 0)
	if s == nil {
		return
	}
	if ret, _ := w.AddItem(target.tile, s, IndexWhereever, FlagNoLimit, false); ret != OK {
		w.discard(s)
	}
}

// blackSkullBlocked keeps black skulled players from touching unmarked ones.
func blackSkullBlocked(attacker, target *Creature) bool {
	return attacker != nil && attacker.IsPlayer() && target.IsPlayer() &&
		attacker.skull == SkullBlack && target.skull == SkullNone
}

func sameFaction(attacker, target *Creature) bool {
	return attacker != nil && attacker != target && attacker.faction != 0 && attacker.faction == target.faction
}
