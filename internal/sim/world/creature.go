package world

import "sort"

type CreatureKind uint8

const (
	KindPlayer CreatureKind = iota
	KindMonster
	KindNPC
)

func (k CreatureKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMonster:
		return "monster"
	case KindNPC:
		return "npc"
	}
	return "unknown"
}

const (
	playerIDBase  uint32 = 0x10000000
	monsterIDBase uint32 = 0x40000000
	npcIDBase     uint32 = 0x80000000
)

type Skull uint8

const (
	SkullNone Skull = iota
	SkullWhite
	SkullRed
	SkullBlack
)

// Race decides the splash a bleeding creature leaves.
type Race uint8

const (
	RaceNone Race = iota
	RaceBlood
	RaceVenom
	RaceUndead
	RaceFire
	RaceEnergy
)

// MaxOpenContainers is the number of container ids a player can hold open.
const MaxOpenContainers = 16

type CreatureSpec struct {
	Name string
	Kind CreatureKind

	Health, MaxHealth int
	Mana, MaxMana     int

	Attack, Defense, Armor int
	Immunities             CombatType
	// Resistances are percentages taken off incoming damage of a type.
	Resistances map[CombatType]int

	Race    Race
	Faction uint32
	Skull   Skull

	ManaShield   bool
	Invulnerable bool
	Ghost        bool

	// Capacity applies to players only.
	Capacity int
}

type tradeState uint8

const (
	tradeNone tradeState = iota
	tradeInitiated
	tradeAccepted
	tradeAcknowledge
	tradeTransfer
)

type Creature struct {
	world  *World
	handle HandleRef
	id     uint32
	name   string
	kind   CreatureKind

	tile    *Tile
	removed bool

	health, maxHealth int
	mana, maxMana     int
	manaShield        bool
	invulnerable      bool
	ghost             bool

	attack, defense, armor int
	immunities             CombatType
	resistances            map[CombatType]int
	race                   Race
	faction                uint32
	skull                  Skull

	inv  *Inventory
	open map[uint8]*Container

	trade        tradeState
	tradePartner *Creature
	tradeItem    *Item

	nextActionTick uint64
	nextAttackTick uint64
	walk           []Position

	out chan []byte
}

func (c *Creature) ID() uint32            { return c.id }
func (c *Creature) Name() string          { return c.name }
func (c *Creature) Kind() CreatureKind    { return c.kind }
func (c *Creature) IsPlayer() bool        { return c.kind == KindPlayer }
func (c *Creature) Handle() HandleRef     { return c.handle }
func (c *Creature) Tile() *Tile           { return c.tile }
func (c *Creature) Health() int           { return c.health }
func (c *Creature) MaxHealth() int        { return c.maxHealth }
func (c *Creature) Mana() int             { return c.mana }
func (c *Creature) MaxMana() int          { return c.maxMana }
func (c *Creature) Inventory() *Inventory { return c.inv }
func (c *Creature) Faction() uint32       { return c.faction }
func (c *Creature) Skull() Skull          { return c.skull }
func (c *Creature) Race() Race            { return c.race }
func (c *Creature) Out() chan []byte      { return c.out }
func (c *Creature) IsDead() bool          { return c.health <= 0 }

func (c *Creature) HasManaShield() bool     { return c.manaShield }
func (c *Creature) SetManaShield(on bool)   { c.manaShield = on }
func (c *Creature) SetInvulnerable(on bool) { c.invulnerable = on }
func (c *Creature) SetGhost(on bool)        { c.ghost = on }
func (c *Creature) SetSkull(s Skull)        { c.skull = s }
func (c *Creature) SetFaction(f uint32)     { c.faction = f }

// Parent is the tile the creature stands on.
func (c *Creature) Parent() Cylinder {
	if c.tile == nil {
		return nil
	}
	return c.tile
}

func (c *Creature) Position() Position {
	if c.tile == nil {
		return Position{}
	}
	return c.tile.pos
}

func (c *Creature) IsRemoved() bool { return c.removed || c.tile == nil }

// HealthPercent is what other players see of a creature's health.
func (c *Creature) HealthPercent() int {
	if c.maxHealth <= 0 {
		return 0
	}
	return min(100, max(0, c.health*100/c.maxHealth))
}

func (c *Creature) IsImmune(t CombatType) bool { return c.immunities&t != 0 }

func (c *Creature) resistance(t CombatType) int {
	return c.resistances[t]
}

// ContainerByID resolves an open-container id.
func (c *Creature) ContainerByID(cid uint8) *Container {
	return c.open[cid]
}

// ContainerID returns the id under which ct is open, or -1.
func (c *Creature) ContainerID(ct *Container) int {
	for id, v := range c.open {
		if v == ct {
			return int(id)
		}
	}
	return -1
}

// OpenContainerIDs lists open ids in ascending order.
func (c *Creature) OpenContainerIDs() []uint8 {
	ids := make([]uint8, 0, len(c.open))
	for id := range c.open {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Creature) IsTrading() bool         { return c.trade != tradeNone }
func (c *Creature) TradePartner() *Creature { return c.tradePartner }
func (c *Creature) TradeItem() *Item        { return c.tradeItem }

func (w *World) newCreature(spec CreatureSpec) *Creature {
	c := &Creature{
		world:        w,
		name:         spec.Name,
		kind:         spec.Kind,
		health:       spec.Health,
		maxHealth:    spec.MaxHealth,
		mana:         spec.Mana,
		maxMana:      spec.MaxMana,
		manaShield:   spec.ManaShield,
		invulnerable: spec.Invulnerable,
		ghost:        spec.Ghost,
		attack:       spec.Attack,
		defense:      spec.Defense,
		armor:        spec.Armor,
		immunities:   spec.Immunities,
		race:         spec.Race,
		faction:      spec.Faction,
		skull:        spec.Skull,
		open:         map[uint8]*Container{},
	}
	if c.maxHealth <= 0 {
		c.maxHealth = max(c.health, 1)
	}
	if c.health <= 0 {
		c.health = c.maxHealth
	}
	c.health = min(c.health, c.maxHealth)
	c.maxMana = max(c.maxMana, c.mana)
	if len(spec.Resistances) > 0 {
		c.resistances = make(map[CombatType]int, len(spec.Resistances))
		for k, v := range spec.Resistances {
			c.resistances[k] = v
		}
	}
	switch spec.Kind {
	case KindPlayer:
		w.nextPlayerNum++
		c.id = playerIDBase + w.nextPlayerNum
		c.inv = newInventory(c, spec.Capacity)
	case KindMonster:
		w.nextMonsterNum++
		c.id = monsterIDBase + w.nextMonsterNum
	default:
		w.nextNpcNum++
		c.id = npcIDBase + w.nextNpcNum
	}
	c.handle = w.reg.Creatures.Insert(c)
	return c
}
