package world

// Flags adjust how cylinders answer queries.
type Flags uint32

const (
	// FlagNoLimit skips room, capacity and blocking checks.
	FlagNoLimit Flags = 1 << iota
	FlagIgnoreBlockItem
	FlagIgnoreBlockCreature
	// FlagChildIsOwner is set when a container forwards a capacity check to
	// the player carrying it.
	FlagChildIsOwner
	FlagIgnoreNotMovable
	FlagIgnoreAutoStack
)

func (f Flags) Has(b Flags) bool { return f&b != 0 }

// IndexWhereever lets the cylinder pick the slot.
const IndexWhereever = -1

// Cylinder is anything that holds items: map tiles, player inventories and
// containers. Queries never mutate; the transfer engine runs them all before
// calling a mutator.
type Cylinder interface {
	QueryAdd(index int, it *Item, count int, flags Flags, actor *Creature) Outcome
	// QueryMaxCount reports how many of it fit at index.
	QueryMaxCount(index int, it *Item, count int, flags Flags) (int, Outcome)
	QueryRemove(it *Item, count int, flags Flags, actor *Creature) Outcome
	// QueryDestination resolves where it really lands. It may return another
	// cylinder (a container in the slot, the tile below a hole) together with
	// the index there and an item at that index the engine may merge with.
	QueryDestination(index int, it *Item, flags Flags) (Cylinder, int, *Item)

	// ThingIndex returns -1 if it is not held here.
	ThingIndex(it *Item) int
	ItemAt(index int) *Item
	Items() []*Item

	AddThing(index int, it *Item)
	// RemoveThing takes count units; a partial stack keeps its identity.
	RemoveThing(it *Item, count int)
	UpdateThing(it *Item, id uint16, count int)
	ReplaceThing(index int, it *Item)

	PostAddNotification(it *Item, oldParent Cylinder, index int)
	PostRemoveNotification(it *Item, newParent Cylinder, index int)

	Parent() Cylinder
	Position() Position
	IsRemoved() bool
}

// Thing is an item or a creature.
type Thing interface {
	Parent() Cylinder
	Position() Position
	IsRemoved() bool
}

// TopParent walks up to the outermost holder: the tile for map items, the
// inventory for carried items.
func TopParent(c Cylinder) Cylinder {
	for c != nil {
		p := c.Parent()
		if p == nil {
			return c
		}
		if _, ok := p.(*Tile); ok {
			if _, inv := c.(*Inventory); inv {
				return c
			}
		}
		c = p
	}
	return nil
}

// holdsItem reports whether c, or any of its ancestors, is the container
// item it.
func holdsItem(c Cylinder, it *Item) bool {
	for ; c != nil; c = c.Parent() {
		if ct, ok := c.(*Container); ok && ct.item == it {
			return true
		}
	}
	return false
}
