package world

type Slot uint8

const (
	SlotWhereever Slot = iota
	SlotHead
	SlotNecklace
	SlotBackpack
	SlotArmor
	SlotRight
	SlotLeft
	SlotLegs
	SlotFeet
	SlotRing
	SlotAmmo

	slotFirst = SlotHead
	slotLast  = SlotAmmo
)

func (s Slot) Valid() bool { return s >= slotFirst && s <= slotLast }

var slotNames = map[string]Slot{
	"head":     SlotHead,
	"necklace": SlotNecklace,
	"backpack": SlotBackpack,
	"armor":    SlotArmor,
	"legs":     SlotLegs,
	"feet":     SlotFeet,
	"ring":     SlotRing,
	"ammo":     SlotAmmo,
}

// Inventory is a player's equipment. Its thing indexes are slot numbers.
type Inventory struct {
	owner    *Creature
	slots    [slotLast + 1]*Item
	weight   int
	capacity int
}

func newInventory(owner *Creature, capacity int) *Inventory {
	return &Inventory{owner: owner, capacity: capacity}
}

func (inv *Inventory) Owner() *Creature { return inv.owner }
func (inv *Inventory) Weight() int      { return inv.weight }
func (inv *Inventory) Capacity() int    { return inv.capacity }
func (inv *Inventory) FreeCapacity() int {
	return max(inv.capacity-inv.weight, 0)
}

func (inv *Inventory) Slot(s Slot) *Item {
	if !s.Valid() {
		return nil
	}
	return inv.slots[s]
}

func (inv *Inventory) Parent() Cylinder {
	if inv.owner.tile == nil {
		return nil
	}
	return inv.owner.tile
}

func (inv *Inventory) Position() Position { return inv.owner.Position() }
func (inv *Inventory) IsRemoved() bool    { return inv.owner.IsRemoved() }

func (inv *Inventory) Items() []*Item {
	var out []*Item
	for s := slotFirst; s <= slotLast; s++ {
		if it := inv.slots[s]; it != nil {
			out = append(out, it)
		}
	}
	return out
}

func (inv *Inventory) ItemAt(index int) *Item {
	return inv.Slot(Slot(index))
}

func (inv *Inventory) ThingIndex(it *Item) int {
	for s := slotFirst; s <= slotLast; s++ {
		if inv.slots[s] == it {
			return int(s)
		}
	}
	return -1
}

func (inv *Inventory) recomputeWeight() {
	w := 0
	for s := slotFirst; s <= slotLast; s++ {
		if it := inv.slots[s]; it != nil {
			w += it.Weight()
		}
	}
	inv.weight = w
}

func slotAccepts(s Slot, it *Item) bool {
	switch s {
	case SlotRight, SlotLeft, SlotAmmo:
		return true
	}
	want, ok := slotNames[it.def.Slot]
	return ok && want == s
}

// carries reports whether it already counts toward this inventory's weight.
func (inv *Inventory) carries(it *Item) bool {
	return it.parent != nil && TopParent(it.parent) == Cylinder(inv)
}

func (inv *Inventory) QueryAdd(index int, it *Item, count int, flags Flags, actor *Creature) Outcome {
	if !it.IsPickupable() {
		return NotPickupable
	}
	if flags.Has(FlagChildIsOwner) {
		if !flags.Has(FlagNoLimit) && !inv.carries(it) && inv.FreeCapacity() < it.weightOf(count) {
			return NotEnoughCapacity
		}
		return OK
	}
	s := Slot(index)
	if !s.Valid() {
		return NotEnoughRoom
	}
	if !slotAccepts(s, it) {
		return NotPossible
	}
	if !flags.Has(FlagNoLimit) && !inv.carries(it) && inv.FreeCapacity() < it.weightOf(count) {
		return NotEnoughCapacity
	}
	if cur := inv.slots[s]; cur != nil && cur != it && (!cur.IsStackable() || !cur.Equals(it)) {
		return NeedExchange
	}
	return OK
}

func (inv *Inventory) QueryMaxCount(index int, it *Item, count int, flags Flags) (int, Outcome) {
	if index == IndexWhereever || index == int(SlotWhereever) {
		n := 0
		for s := slotFirst; s <= slotLast; s++ {
			cur := inv.slots[s]
			switch {
			case cur == nil:
				if inv.QueryAdd(int(s), it, count, flags, nil) == OK {
					n += it.MaxStack()
				}
			case cur.container != nil:
				m, _ := cur.container.QueryMaxCount(IndexWhereever, it, count, flags)
				n += m
			case cur != it && cur.IsStackable() && cur.Equals(it):
				n += cur.MaxStack() - cur.count
			}
		}
		if n < count {
			return n, NotEnoughRoom
		}
		return n, OK
	}

	s := Slot(index)
	cur := inv.Slot(s)
	n := 0
	switch {
	case cur == nil:
		if inv.QueryAdd(index, it, count, flags, nil) == OK {
			return it.MaxStack(), OK
		}
	case cur.IsStackable() && cur.Equals(it) && cur != it:
		n = cur.MaxStack() - cur.count
	}
	if n < count {
		return n, NotEnoughRoom
	}
	return n, OK
}

func (inv *Inventory) QueryRemove(it *Item, count int, flags Flags, actor *Creature) Outcome {
	if inv.ThingIndex(it) < 0 {
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

// QueryDestination with no slot prefers an existing stack, then a free slot
// that takes the item, then a container with room.
func (inv *Inventory) QueryDestination(index int, it *Item, flags Flags) (Cylinder, int, *Item) {
	s := Slot(max(index, 0))
	if s.Valid() {
		cur := inv.slots[s]
		if cur != nil && cur.container != nil && cur != it {
			return cur.container, IndexWhereever, nil
		}
		return inv, index, cur
	}

	if !flags.Has(FlagIgnoreAutoStack) && it.IsStackable() {
		for s := slotFirst; s <= slotLast; s++ {
			cur := inv.slots[s]
			if cur != nil && cur != it && cur.Equals(it) && cur.count < cur.MaxStack() {
				return inv, int(s), cur
			}
		}
		var found *Item
		var foundIn *Container
		inv.eachContainer(func(c *Container) bool {
			for _, v := range c.items {
				if v != it && v.Equals(it) && v.count < v.MaxStack() {
					found, foundIn = v, c
					return false
				}
			}
			return true
		})
		if found != nil {
			return foundIn, foundIn.ThingIndex(found), found
		}
	}

	for s := slotFirst; s <= slotLast; s++ {
		if inv.slots[s] == nil && slotAccepts(s, it) && s != SlotRight && s != SlotLeft && s != SlotAmmo {
			if inv.QueryAdd(int(s), it, it.Count(), flags, nil) == OK {
				return inv, int(s), nil
			}
		}
	}
	var room *Container
	inv.eachContainer(func(c *Container) bool {
		if !c.Full() && !c.isAncestor(it) {
			room = c
			return false
		}
		return true
	})
	if room != nil {
		return room, IndexWhereever, nil
	}
	for _, s := range []Slot{SlotRight, SlotLeft, SlotAmmo} {
		if inv.slots[s] == nil && inv.QueryAdd(int(s), it, it.Count(), flags, nil) == OK {
			return inv, int(s), nil
		}
	}
	return inv, IndexWhereever, nil
}

// eachContainer visits carried containers breadth first.
func (inv *Inventory) eachContainer(fn func(c *Container) bool) {
	var queue []*Container
	for s := slotFirst; s <= slotLast; s++ {
		if it := inv.slots[s]; it != nil && it.container != nil {
			queue = append(queue, it.container)
		}
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if !fn(c) {
			return
		}
		for _, it := range c.items {
			if it.container != nil {
				queue = append(queue, it.container)
			}
		}
	}
}

func (inv *Inventory) AddThing(index int, it *Item) {
	s := Slot(index)
	if !s.Valid() {
		return
	}
	inv.slots[s] = it
	it.parent = inv
	inv.owner.world.notify.InventoryUpdated(inv.owner, s, it)
}

func (inv *Inventory) RemoveThing(it *Item, count int) {
	index := inv.ThingIndex(it)
	if index < 0 {
		return
	}
	s := Slot(index)
	if it.IsStackable() && count < it.count {
		it.count -= count
		inv.owner.world.notify.InventoryUpdated(inv.owner, s, it)
		return
	}
	inv.slots[s] = nil
	it.parent = nil
	inv.owner.world.notify.InventoryUpdated(inv.owner, s, nil)
}

func (inv *Inventory) UpdateThing(it *Item, id uint16, count int) {
	index := inv.ThingIndex(it)
	if index < 0 {
		return
	}
	it.setID(id)
	it.setCount(count)
	inv.owner.world.notify.InventoryUpdated(inv.owner, Slot(index), it)
}

func (inv *Inventory) ReplaceThing(index int, it *Item) {
	s := Slot(index)
	old := inv.Slot(s)
	if old == nil {
		return
	}
	inv.slots[s] = it
	old.parent = nil
	it.parent = inv
	inv.owner.world.notify.InventoryUpdated(inv.owner, s, it)
}

func (inv *Inventory) PostAddNotification(it *Item, oldParent Cylinder, index int) {
	inv.recomputeWeight()
	inv.owner.world.autoCloseContainers(it)
}

func (inv *Inventory) PostRemoveNotification(it *Item, newParent Cylinder, index int) {
	inv.recomputeWeight()
	inv.owner.world.autoCloseContainers(it)
}
