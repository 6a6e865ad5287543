package world

// Container is the cylinder side of a container item. items[0] is the front,
// where new items go when no index is given.
type Container struct {
	item  *Item
	items []*Item
}

func newContainer(it *Item) *Container {
	return &Container{item: it}
}

func (c *Container) Item() *Item      { return c.item }
func (c *Container) Capacity() int    { return c.item.def.Capacity }
func (c *Container) Size() int        { return len(c.items) }
func (c *Container) Full() bool       { return len(c.items) >= c.Capacity() }
func (c *Container) Items() []*Item   { return c.items }
func (c *Container) Parent() Cylinder { return c.item.parent }
func (c *Container) Position() Position {
	return c.item.Position()
}
func (c *Container) IsRemoved() bool { return c.item.IsRemoved() }

func (c *Container) contentWeight() int {
	w := 0
	for _, it := range c.items {
		w += it.Weight()
	}
	return w
}

func (c *Container) ItemAt(index int) *Item {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	return c.items[index]
}

func (c *Container) ThingIndex(it *Item) int {
	for i, v := range c.items {
		if v == it {
			return i
		}
	}
	return -1
}

// isAncestor reports whether it is this container's item or holds it.
func (c *Container) isAncestor(it *Item) bool {
	if it.container == nil {
		return false
	}
	return holdsItem(c, it)
}

func (c *Container) QueryAdd(index int, it *Item, count int, flags Flags, actor *Creature) Outcome {
	if flags.Has(FlagChildIsOwner) {
		// A nested container is asking on behalf of its contents.
		return OK
	}
	if !it.IsPickupable() {
		return NotPickupable
	}
	if c.isAncestor(it) {
		return NotPossible
	}
	if !flags.Has(FlagNoLimit) && index == IndexWhereever && c.Full() {
		return ContainerNotEnoughRoom
	}
	if top := TopParent(c); top != nil {
		if _, isTile := top.(*Tile); !isTile && top != Cylinder(c) {
			return top.QueryAdd(IndexWhereever, it, count, flags|FlagChildIsOwner, actor)
		}
	}
	return OK
}

func (c *Container) QueryMaxCount(index int, it *Item, count int, flags Flags) (int, Outcome) {
	if flags.Has(FlagNoLimit) {
		return max(1, count), OK
	}
	free := max(c.Capacity()-len(c.items), 0)
	if !it.IsStackable() {
		if free == 0 {
			return 0, ContainerNotEnoughRoom
		}
		return free, OK
	}
	n := 0
	if index == IndexWhereever {
		for i, v := range c.items {
			if v != it && v.Equals(it) && v.count < v.MaxStack() {
				if c.QueryAdd(i, it, count, flags, nil) == OK {
					n += v.MaxStack() - v.count
				}
			}
		}
	} else if dest := c.ItemAt(index); dest != nil && dest != it && dest.Equals(it) && dest.count < dest.MaxStack() {
		if c.QueryAdd(index, it, count, flags, nil) == OK {
			n = dest.MaxStack() - dest.count
		}
	}
	maxCount := free*it.MaxStack() + n
	if maxCount < count {
		return maxCount, ContainerNotEnoughRoom
	}
	return maxCount, OK
}

func (c *Container) QueryRemove(it *Item, count int, flags Flags, actor *Creature) Outcome {
	if c.ThingIndex(it) < 0 {
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

func (c *Container) QueryDestination(index int, it *Item, flags Flags) (Cylinder, int, *Item) {
	if index >= c.Capacity() {
		index = IndexWhereever
	}
	var dest *Item
	if index != IndexWhereever {
		dest = c.ItemAt(index)
		if dest != nil && dest.container != nil && dest != it {
			return dest.container, IndexWhereever, nil
		}
	}
	if !flags.Has(FlagIgnoreAutoStack) && it.IsStackable() && it.parent != Cylinder(c) {
		if dest != nil && dest.Equals(it) && dest.count < dest.MaxStack() {
			return c, index, dest
		}
		for i, v := range c.items {
			if v != it && v.Equals(it) && v.count < v.MaxStack() {
				return c, i, v
			}
		}
	}
	return c, index, dest
}

func (c *Container) AddThing(index int, it *Item) {
	if index < 0 || index > len(c.items) {
		index = 0
	}
	c.items = append(c.items, nil)
	copy(c.items[index+1:], c.items[index:])
	c.items[index] = it
	it.parent = c
	notifyContainer(c, ContainerAdd, index, it)
}

func (c *Container) RemoveThing(it *Item, count int) {
	index := c.ThingIndex(it)
	if index < 0 {
		return
	}
	if it.IsStackable() && count < it.count {
		it.count -= count
		notifyContainer(c, ContainerUpdate, index, it)
		return
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	it.parent = nil
	notifyContainer(c, ContainerRemove, index, it)
}

func (c *Container) UpdateThing(it *Item, id uint16, count int) {
	index := c.ThingIndex(it)
	if index < 0 {
		return
	}
	it.setID(id)
	it.setCount(count)
	notifyContainer(c, ContainerUpdate, index, it)
}

func (c *Container) ReplaceThing(index int, it *Item) {
	old := c.ItemAt(index)
	if old == nil {
		return
	}
	c.items[index] = it
	it.parent = c
	old.parent = nil
	notifyContainer(c, ContainerUpdate, index, it)
}

func (c *Container) PostAddNotification(it *Item, oldParent Cylinder, index int) {
	if p := c.Parent(); p != nil {
		p.PostAddNotification(it, oldParent, IndexWhereever)
	}
}

func (c *Container) PostRemoveNotification(it *Item, newParent Cylinder, index int) {
	if p := c.Parent(); p != nil {
		p.PostRemoveNotification(it, newParent, IndexWhereever)
	}
}

// Walk visits every item below c, breadth first.
func (c *Container) Walk(fn func(it *Item) bool) {
	queue := []*Container{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, it := range cur.items {
			if !fn(it) {
				return
			}
			if it.container != nil {
				queue = append(queue, it.container)
			}
		}
	}
}
