package world

// HookEvent names a per-creature event the rules host may handle.
type HookEvent uint8

const (
	EventHealthChange HookEvent = iota + 1
	EventManaChange
	EventPrepareDeath
)

// MoveContext describes one item transfer to the move hooks. From and To are
// the cylinders as resolved by the engine; the positions are the ones the
// player addressed.
type MoveContext struct {
	Actor   *Creature
	Item    *Item
	Count   int
	FromPos Position
	ToPos   Position
	From    Cylinder
	To      Cylinder
}

// Rules is the scripting contract. Hooks run on the world goroutine and must
// not block. OnHealthChange and OnManaChange may rewrite d in place.
type Rules interface {
	PreMove(mc MoveContext) Outcome
	PostMove(mc MoveContext)
	OnHealthChange(target, attacker *Creature, d *CombatDamage)
	OnManaChange(target, attacker *Creature, d *CombatDamage)
	// OnPrepareDeath returns false to keep target alive.
	OnPrepareDeath(target, attacker *Creature) bool
	Subscribes(ev HookEvent, c *Creature) bool
}

// NopRules allows everything and never rewrites damage.
type NopRules struct{}

func (NopRules) PreMove(MoveContext) Outcome                        { return OK }
func (NopRules) PostMove(MoveContext)                               {}
func (NopRules) OnHealthChange(*Creature, *Creature, *CombatDamage) {}
func (NopRules) OnManaChange(*Creature, *Creature, *CombatDamage)   {}
func (NopRules) OnPrepareDeath(*Creature, *Creature) bool           { return true }
func (NopRules) Subscribes(HookEvent, *Creature) bool               { return false }
