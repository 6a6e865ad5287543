package world

import (
	"sort"

	"tilecraft.ai/internal/sim/catalogs"
)

// Tile is one map square. Thing indexes run ground, top items, creatures,
// then down items with the most recently added first.
type Tile struct {
	world *World
	pos   Position

	ground    *Item
	top       []*Item
	creatures []*Creature
	down      []*Item
}

func (t *Tile) Position() Position     { return t.pos }
func (t *Tile) Parent() Cylinder       { return nil }
func (t *Tile) IsRemoved() bool        { return false }
func (t *Tile) Ground() *Item          { return t.ground }
func (t *Tile) Creatures() []*Creature { return t.creatures }

func (t *Tile) Items() []*Item {
	out := make([]*Item, 0, 1+len(t.top)+len(t.down))
	if t.ground != nil {
		out = append(out, t.ground)
	}
	out = append(out, t.top...)
	return append(out, t.down...)
}

// TopDownItem is the item a dropped thing lands on.
func (t *Tile) TopDownItem() *Item {
	if len(t.down) == 0 {
		return nil
	}
	return t.down[0]
}

// TopItem is the uppermost item a player would pick.
func (t *Tile) TopItem() *Item {
	if it := t.TopDownItem(); it != nil {
		return it
	}
	if n := len(t.top); n > 0 {
		return t.top[n-1]
	}
	return t.ground
}

func (t *Tile) FloorChange() catalogs.FloorChange {
	if t.ground != nil && t.ground.def.FloorChange != catalogs.FloorChangeNone {
		return t.ground.def.FloorChange
	}
	for _, it := range t.top {
		if it.def.FloorChange != catalogs.FloorChangeNone {
			return it.def.FloorChange
		}
	}
	return catalogs.FloorChangeNone
}

func (t *Tile) blocksSolid() bool {
	for _, it := range t.Items() {
		if it.def.BlockSolid {
			return true
		}
	}
	return false
}

func (t *Tile) itemCount() int {
	n := len(t.top) + len(t.down)
	if t.ground != nil {
		n++
	}
	return n
}

func (t *Tile) groundOffset() int {
	if t.ground != nil {
		return 1
	}
	return 0
}

func (t *Tile) ThingIndex(it *Item) int {
	if it == nil {
		return -1
	}
	if t.ground == it {
		return 0
	}
	n := t.groundOffset()
	for i, v := range t.top {
		if v == it {
			return n + i
		}
	}
	n += len(t.top) + len(t.creatures)
	for i, v := range t.down {
		if v == it {
			return n + i
		}
	}
	return -1
}

func (t *Tile) CreatureIndex(c *Creature) int {
	n := t.groundOffset() + len(t.top)
	for i, v := range t.creatures {
		if v == c {
			return n + i
		}
	}
	return -1
}

func (t *Tile) ItemAt(index int) *Item {
	if index < 0 {
		return nil
	}
	if t.ground != nil {
		if index == 0 {
			return t.ground
		}
		index--
	}
	if index < len(t.top) {
		return t.top[index]
	}
	index -= len(t.top)
	if index < len(t.creatures) {
		return nil
	}
	index -= len(t.creatures)
	if index < len(t.down) {
		return t.down[index]
	}
	return nil
}

func (t *Tile) QueryAdd(index int, it *Item, count int, flags Flags, actor *Creature) Outcome {
	if flags.Has(FlagNoLimit) {
		return OK
	}
	if it.def.IsGround() {
		return OK
	}
	if t.ground == nil {
		return NotPossible
	}
	if t.itemCount() >= t.world.cfg.MaxTileItems {
		return NotEnoughRoom
	}
	if !flags.Has(FlagIgnoreBlockCreature) && it.def.BlockSolid && len(t.creatures) > 0 {
		return NotEnoughRoom
	}
	if !flags.Has(FlagIgnoreBlockItem) && t.blocksSolid() {
		return NotEnoughRoom
	}
	return OK
}

func (t *Tile) QueryMaxCount(index int, it *Item, count int, flags Flags) (int, Outcome) {
	return max(1, count), OK
}

func (t *Tile) QueryRemove(it *Item, count int, flags Flags, actor *Creature) Outcome {
	if t.ThingIndex(it) < 0 {
		return NotPossible
	}
	if count == 0 || (it.IsStackable() && count > it.count) {
		return NotPossible
	}
	if !it.IsMovable() && !flags.Has(FlagIgnoreNotMovable) {
		return NotMovable
	}
	return OK
}

// QueryDestination sends items dropped into a hole to the tile below.
func (t *Tile) QueryDestination(index int, it *Item, flags Flags) (Cylinder, int, *Item) {
	if t.FloorChange() == catalogs.FloorChangeDown && t.pos.Z < MaxFloor {
		if below := t.world.Tile(t.pos.Offset(0, 0, 1)); below != nil {
			return below, IndexWhereever, below.TopDownItem()
		}
	}
	return t, IndexWhereever, t.TopDownItem()
}

func (t *Tile) AddThing(index int, it *Item) {
	it.parent = t
	switch {
	case it.def.IsGround():
		if old := t.ground; old != nil {
			old.parent = nil
			t.ground = it
			t.world.notifyTileUpdated(t, 0, it)
			t.world.discard(old)
			return
		}
		t.ground = it
	case it.def.AlwaysOnTop:
		i := sort.Search(len(t.top), func(i int) bool { return t.top[i].def.TopOrder > it.def.TopOrder })
		t.top = append(t.top, nil)
		copy(t.top[i+1:], t.top[i:])
		t.top[i] = it
	default:
		t.down = append(t.down, nil)
		copy(t.down[1:], t.down)
		t.down[0] = it
	}
	t.world.notifyTileAdded(t, t.ThingIndex(it), it)
}

func (t *Tile) RemoveThing(it *Item, count int) {
	index := t.ThingIndex(it)
	if index < 0 {
		return
	}
	if it.IsStackable() && count < it.count {
		it.count -= count
		t.world.notifyTileUpdated(t, index, it)
		return
	}
	switch {
	case t.ground == it:
		t.ground = nil
	case it.def.AlwaysOnTop:
		t.top = removeItem(t.top, it)
	default:
		t.down = removeItem(t.down, it)
	}
	it.parent = nil
	t.world.notifyTileRemoved(t, index)
}

func (t *Tile) UpdateThing(it *Item, id uint16, count int) {
	index := t.ThingIndex(it)
	if index < 0 {
		return
	}
	it.setID(id)
	it.setCount(count)
	t.world.notifyTileUpdated(t, index, it)
}

func (t *Tile) ReplaceThing(index int, it *Item) {
	old := t.ItemAt(index)
	if old == nil {
		return
	}
	switch {
	case t.ground == old:
		t.ground = it
	case old.def.AlwaysOnTop:
		t.top[indexOf(t.top, old)] = it
	default:
		t.down[indexOf(t.down, old)] = it
	}
	old.parent = nil
	it.parent = t
	t.world.notifyTileUpdated(t, index, it)
}

func (t *Tile) PostAddNotification(it *Item, oldParent Cylinder, index int) {
	t.world.autoCloseContainers(it)
}

func (t *Tile) PostRemoveNotification(it *Item, newParent Cylinder, index int) {
	t.world.autoCloseContainers(it)
}

func (t *Tile) addCreature(c *Creature) {
	t.creatures = append([]*Creature{c}, t.creatures...)
	c.tile = t
}

func (t *Tile) removeCreature(c *Creature) {
	for i, v := range t.creatures {
		if v == c {
			t.creatures = append(t.creatures[:i], t.creatures[i+1:]...)
			break
		}
	}
	if c.tile == t {
		c.tile = nil
	}
}

// queryAddCreature is the creature side of QueryAdd.
func (t *Tile) queryAddCreature(c *Creature, flags Flags) Outcome {
	if flags.Has(FlagNoLimit) {
		return OK
	}
	if t.ground == nil {
		return NotPossible
	}
	if t.blocksSolid() {
		return NotPossible
	}
	if !flags.Has(FlagIgnoreBlockCreature) && len(t.creatures) > 0 {
		return NotPossible
	}
	return OK
}

// creatureDestination redirects creatures stepping into a hole.
func (t *Tile) creatureDestination() *Tile {
	if t.FloorChange() == catalogs.FloorChangeDown && t.pos.Z < MaxFloor {
		if below := t.world.Tile(t.pos.Offset(0, 0, 1)); below != nil {
			return below
		}
	}
	return t
}

func removeItem(list []*Item, it *Item) []*Item {
	if i := indexOf(list, it); i >= 0 {
		return append(list[:i], list[i+1:]...)
	}
	return list
}

func indexOf(list []*Item, it *Item) int {
	for i, v := range list {
		if v == it {
			return i
		}
	}
	return -1
}
