package world

import "sort"

type ContainerChange uint8

const (
	ContainerOpen ContainerChange = iota + 1
	ContainerClose
	ContainerAdd
	ContainerUpdate
	ContainerRemove
)

func (c ContainerChange) String() string {
	switch c {
	case ContainerOpen:
		return "open"
	case ContainerClose:
		return "close"
	case ContainerAdd:
		return "add"
	case ContainerUpdate:
		return "update"
	case ContainerRemove:
		return "remove"
	}
	return "unknown"
}

// TextColor values follow the client palette.
type TextColor uint8

const (
	TextBlue       TextColor = 5
	TextLightGreen TextColor = 30
	TextLightBlue  TextColor = 35
	TextMayaBlue   TextColor = 95
	TextDarkRed    TextColor = 108
	TextLightGrey  TextColor = 129
	TextSkyBlue    TextColor = 143
	TextPurple     TextColor = 154
	TextRed        TextColor = 180
	TextOrange     TextColor = 198
	TextYellow     TextColor = 210
	TextNone       TextColor = 255
)

type Effect uint8

const (
	EffectNone Effect = iota
	EffectDrawBlood
	EffectLoseEnergy
	EffectPoff
	EffectBlockHit
	EffectExplosionHit
	EffectHitArea
	EffectYellowRings
	EffectGreenRings
	EffectHitByFire
	EffectEnergyHit
	EffectRedShimmer
	EffectBlueShimmer
	EffectPoison
	EffectIceAttack
	EffectHolyDamage
	EffectMortArea
	EffectDrownDamage
	EffectSmallPlants
	EffectTeleport
	EffectMagicBlood
)

// Notifier is the presentation sink. The world resolves obs before calling; an
// implementation only encodes and delivers.
type Notifier interface {
	CreatureAppeared(obs []*Creature, c *Creature)
	CreatureDisappeared(obs []*Creature, c *Creature, pos Position, stackPos int)
	CreatureMoved(obs []*Creature, c *Creature, from Position, fromStack int, to Position, teleport bool)

	TileThingAdded(obs []*Creature, pos Position, stackPos int, it *Item)
	TileThingRemoved(obs []*Creature, pos Position, stackPos int)
	TileThingUpdated(obs []*Creature, pos Position, stackPos int, it *Item)

	ContainerUpdated(obs []*Creature, c *Container, change ContainerChange, index int, it *Item)
	InventoryUpdated(owner *Creature, slot Slot, it *Item)

	CreatureHealthChanged(obs []*Creature, c *Creature)
	PlayerStatsChanged(c *Creature)

	AnimatedText(obs []*Creature, pos Position, color TextColor, text string)
	MagicEffect(obs []*Creature, pos Position, effect Effect)
	DistanceEffect(obs []*Creature, from, to Position, effect Effect)

	TradeOffer(to, owner *Creature, it *Item, counter bool)
	TradeClosed(to *Creature)
}

type NopNotifier struct{}

func (NopNotifier) CreatureAppeared([]*Creature, *Creature)                               {}
func (NopNotifier) CreatureDisappeared([]*Creature, *Creature, Position, int)             {}
func (NopNotifier) CreatureMoved([]*Creature, *Creature, Position, int, Position, bool)   {}
func (NopNotifier) TileThingAdded([]*Creature, Position, int, *Item)                      {}
func (NopNotifier) TileThingRemoved([]*Creature, Position, int)                           {}
func (NopNotifier) TileThingUpdated([]*Creature, Position, int, *Item)                    {}
func (NopNotifier) ContainerUpdated([]*Creature, *Container, ContainerChange, int, *Item) {}
func (NopNotifier) InventoryUpdated(*Creature, Slot, *Item)                               {}
func (NopNotifier) CreatureHealthChanged([]*Creature, *Creature)                          {}
func (NopNotifier) PlayerStatsChanged(*Creature)                                          {}
func (NopNotifier) AnimatedText([]*Creature, Position, TextColor, string)                 {}
func (NopNotifier) MagicEffect([]*Creature, Position, Effect)                             {}
func (NopNotifier) DistanceEffect([]*Creature, Position, Position, Effect)                {}
func (NopNotifier) TradeOffer(*Creature, *Creature, *Item, bool)                          {}
func (NopNotifier) TradeClosed(*Creature)                                                 {}

// Spectators answers who can observe center. multiFloor widens the search to
// the floors visible from center.
type Spectators interface {
	Spectators(center Position, multiFloor, onlyPlayers bool) []*Creature
}

// rangeSpectators scans every creature. It is the fallback when no spatial
// index is wired in.
type rangeSpectators struct{ w *World }

func (s rangeSpectators) Spectators(center Position, multiFloor, onlyPlayers bool) []*Creature {
	minZ, maxZ := center.Z, center.Z
	if multiFloor {
		minZ, maxZ = visibleFloors(center.Z)
	}
	rx, ry := s.w.cfg.Spectators.RangeX, s.w.cfg.Spectators.RangeY
	var out []*Creature
	for _, c := range s.w.creatures {
		if c.IsRemoved() || (onlyPlayers && !c.IsPlayer()) {
			continue
		}
		p := c.Position()
		if p.Z < minZ || p.Z > maxZ {
			continue
		}
		// Floors above and below shift the view diagonally.
		dz := center.Z - p.Z
		if abs(p.X+dz-center.X) <= rx && abs(p.Y+dz-center.Y) <= ry {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// visibleFloors is the floor range seen from z: two floors either way
// underground, the whole surface from above ground.
func visibleFloors(z int) (int, int) {
	switch {
	case z > GroundFloor:
		return max(z-2, 0), min(z+2, MaxFloor)
	case z == GroundFloor-1:
		return 0, GroundFloor + 1
	case z == GroundFloor:
		return 0, GroundFloor + 2
	default:
		return 0, GroundFloor
	}
}

func (w *World) tileObservers(pos Position) []*Creature {
	return w.spectators.Spectators(pos, true, true)
}

func (w *World) notifyTileAdded(t *Tile, stackPos int, it *Item) {
	w.notify.TileThingAdded(w.tileObservers(t.pos), t.pos, stackPos, it)
}

func (w *World) notifyTileUpdated(t *Tile, stackPos int, it *Item) {
	w.notify.TileThingUpdated(w.tileObservers(t.pos), t.pos, stackPos, it)
}

func (w *World) notifyTileRemoved(t *Tile, stackPos int) {
	w.notify.TileThingRemoved(w.tileObservers(t.pos), t.pos, stackPos)
}

// worldOf finds the world through the ownership chain. Floating cylinders
// have none.
func worldOf(c Cylinder) *World {
	switch top := TopParent(c).(type) {
	case *Tile:
		return top.world
	case *Inventory:
		return top.owner.world
	}
	return nil
}

// notifyContainer reaches the players that have c open.
func notifyContainer(c *Container, change ContainerChange, index int, it *Item) {
	w := worldOf(c)
	if w == nil {
		return
	}
	var obs []*Creature
	for _, p := range w.spectators.Spectators(c.Position(), false, true) {
		if p.ContainerID(c) >= 0 {
			obs = append(obs, p)
		}
	}
	if owner := carrierOf(c); owner != nil && owner.ContainerID(c) >= 0 && !containsCreature(obs, owner) {
		obs = append(obs, owner)
	}
	if len(obs) == 0 {
		return
	}
	w.notify.ContainerUpdated(obs, c, change, index, it)
}

// carrierOf returns the player whose inventory holds c.
func carrierOf(c Cylinder) *Creature {
	if inv, ok := TopParent(c).(*Inventory); ok {
		return inv.owner
	}
	return nil
}

func containsCreature(list []*Creature, c *Creature) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
