package world

import (
	"maps"

	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/registry"
)

type AttrKey uint8

const (
	AttrActionID AttrKey = iota + 1
	AttrUniqueID
	AttrText
	AttrWriter
	AttrDescription
	AttrDuration
)

// Attributes are the sparse per-instance values. Most items carry none, so
// the maps are allocated on first write.
type Attributes struct {
	ints map[AttrKey]int64
	strs map[AttrKey]string
}

func (a *Attributes) Int(k AttrKey) (int64, bool) {
	v, ok := a.ints[k]
	return v, ok
}

func (a *Attributes) SetInt(k AttrKey, v int64) {
	if a.ints == nil {
		a.ints = map[AttrKey]int64{}
	}
	a.ints[k] = v
}

func (a *Attributes) Str(k AttrKey) (string, bool) {
	v, ok := a.strs[k]
	return v, ok
}

func (a *Attributes) SetStr(k AttrKey, v string) {
	if a.strs == nil {
		a.strs = map[AttrKey]string{}
	}
	a.strs[k] = v
}

func (a *Attributes) Remove(k AttrKey) {
	delete(a.ints, k)
	delete(a.strs, k)
}

func (a *Attributes) Equal(b *Attributes) bool {
	return maps.Equal(a.ints, b.ints) && maps.Equal(a.strs, b.strs)
}

func (a *Attributes) clone() Attributes {
	return Attributes{ints: maps.Clone(a.ints), strs: maps.Clone(a.strs)}
}

// Item is a placed or floating item instance. count is the sub-type: the
// stack size for stackables, charges for charged items, the fluid for fluid
// containers.
type Item struct {
	handle registry.Handle
	cat    *catalogs.ItemCatalog
	def    catalogs.ItemDef

	count int
	Attrs Attributes

	parent    Cylinder
	container *Container
	decaying  bool
}

func (it *Item) Handle() registry.Handle { return it.handle }
func (it *Item) ID() uint16              { return it.def.ID }
func (it *Item) Def() catalogs.ItemDef   { return it.def }
func (it *Item) Name() string            { return it.def.Name }
func (it *Item) SubType() int            { return it.count }
func (it *Item) Parent() Cylinder        { return it.parent }
func (it *Item) Container() *Container   { return it.container }
func (it *Item) IsDecaying() bool        { return it.decaying }

// Count is the number of units the item stands for.
func (it *Item) Count() int {
	if it.def.Stackable {
		return it.count
	}
	return 1
}

func (it *Item) IsStackable() bool  { return it.def.Stackable }
func (it *Item) IsMovable() bool    { return it.def.Movable() }
func (it *Item) IsPickupable() bool { return it.def.Pickupable }
func (it *Item) MaxStack() int      { return it.def.MaxStack }

func (it *Item) UniqueID() uint16 {
	v, _ := it.Attrs.Int(AttrUniqueID)
	return uint16(v)
}

func (it *Item) Duration() int64 {
	v, _ := it.Attrs.Int(AttrDuration)
	return v
}

func (it *Item) SetDuration(ms int64) {
	if ms < 0 {
		ms = 0
	}
	it.Attrs.SetInt(AttrDuration, ms)
}

// CanDecay is false for items that have left the world or whose type stops
// decaying.
func (it *Item) CanDecay() bool {
	if it.IsRemoved() {
		return false
	}
	return it.def.DurationMs > 0 || it.Duration() > 0
}

// IsRemoved is true when the item has no holder, or a holder up the chain
// was removed.
func (it *Item) IsRemoved() bool {
	if it.parent == nil {
		return true
	}
	return it.parent.IsRemoved()
}

// Position follows the ownership chain up to a tile or a carrying creature.
func (it *Item) Position() Position {
	if it.parent == nil {
		return Position{}
	}
	return it.parent.Position()
}

func (it *Item) Tile() *Tile {
	for c := it.parent; c != nil; c = c.Parent() {
		if t, ok := c.(*Tile); ok {
			return t
		}
	}
	return nil
}

// Equals is content equality: same type and the same attribute set.
func (it *Item) Equals(o *Item) bool {
	if o == nil || it.def.ID != o.def.ID {
		return false
	}
	return it.Attrs.Equal(&o.Attrs)
}

// Weight includes stack size and container contents.
func (it *Item) Weight() int {
	w := it.def.Weight
	if it.def.Stackable {
		w *= max(it.count, 1)
	}
	if it.container != nil {
		w += it.container.contentWeight()
	}
	return w
}

func (it *Item) weightOf(count int) int {
	if it.def.Stackable {
		return it.def.Weight * count
	}
	return it.Weight()
}

// setID changes the item type. A new type restarts the duration.
func (it *Item) setID(id uint16) {
	if id == it.def.ID {
		return
	}
	d, ok := it.cat.Defs[id]
	if !ok {
		return
	}
	it.def = d
	if d.DurationMs > 0 {
		it.SetDuration(d.DurationMs)
	} else {
		it.Attrs.Remove(AttrDuration)
	}
	if d.IsContainer() && it.container == nil {
		it.container = newContainer(it)
	}
}

func (it *Item) setCount(n int) { it.count = n }
