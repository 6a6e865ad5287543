package world

// AddItem places a floating item into to. In test mode nothing changes and
// placed items may be checked too. On success the item is consumed: placed,
// merged into a stack, or split. remainder counts units that found no room
// after a split; the caller decides what to do with them. On failure the
// caller keeps the item.
func (w *World) AddItem(to Cylinder, it *Item, index int, flags Flags, test bool) (Outcome, int) {
	if it == nil || to == nil {
		return NotPossible, 0
	}
	if !test && it.parent != nil {
		return NotPossible, 0
	}
	dest, dIndex, toItem, ret := w.resolveDestination(to, index, it, flags)
	if ret != OK {
		return ret, 0
	}
	if ret := dest.QueryAdd(dIndex, it, it.Count(), flags, nil); ret != OK {
		return ret, 0
	}
	// The resolved holder may only take part of it; check the whole amount
	// against the cylinder we were asked about.
	maxCount, ret := to.QueryMaxCount(IndexWhereever, it, it.Count(), flags)
	if ret != OK {
		return ret, 0
	}
	if test {
		return OK, 0
	}

	if it.IsStackable() && toItem != nil && toItem != it && it.Equals(toItem) {
		m := min(it.count, maxCount)
		n := min(toItem.MaxStack()-toItem.count, m)
		if n > 0 {
			dest.UpdateThing(toItem, toItem.def.ID, toItem.count+n)
		}
		rest := m - n
		switch {
		case rest <= 0:
			w.discard(it)
			if i := dest.ThingIndex(toItem); i != -1 {
				dest.PostAddNotification(toItem, nil, i)
			}
			w.auditItem(AuditAdd, nil, toItem, m, dest.Position(), dest.Position())
			return OK, 0
		case rest != it.count:
			it.count = rest
			if r, _ := w.AddItem(to, it, IndexWhereever, flags, false); r != OK {
				w.discard(it)
				return OK, rest
			}
			return OK, 0
		}
	}

	dest.AddThing(dIndex, it)
	if i := dest.ThingIndex(it); i != -1 {
		dest.PostAddNotification(it, nil, i)
	}
	w.startDecay(it)
	w.auditItem(AuditAdd, nil, it, it.Count(), dest.Position(), dest.Position())
	return OK, 0
}

// RemoveItem takes count units of it out of the world; -1 takes all. Items
// that leave entirely are released at the end of the tick.
func (w *World) RemoveItem(it *Item, count int, test bool, flags Flags) Outcome {
	if it == nil || it.parent == nil {
		return NotPossible
	}
	c := it.parent
	if count < 0 {
		count = it.Count()
	}
	if !it.IsStackable() {
		count = 1
	}
	if ret := c.QueryRemove(it, count, flags|FlagIgnoreNotMovable, nil); ret != OK {
		return ret
	}
	if test {
		return OK
	}
	pos := it.Position()
	index := c.ThingIndex(it)
	w.closeTradesHolding(it)
	c.RemoveThing(it, count)
	if it.IsRemoved() {
		w.stopDecay(it)
		w.unregisterUnique(it)
		w.releaseItem(it)
	}
	c.PostRemoveNotification(it, nil, index)
	w.auditItem(AuditRemove, nil, it, count, pos, pos)
	return OK
}

// PlayerAddItem gives it to player. Units that do not fit are dropped on the
// player's tile when dropOnMap is set.
func (w *World) PlayerAddItem(player *Creature, it *Item, dropOnMap bool, slot Slot, flags Flags) Outcome {
	if player == nil || player.inv == nil || it == nil {
		return NotPossible
	}
	index := IndexWhereever
	if slot.Valid() {
		index = int(slot)
	}
	id := it.def.ID
	ret, remainder := w.AddItem(player.inv, it, index, flags, false)
	if remainder > 0 && player.tile != nil {
		rest := w.CreateItem(id, remainder)
		if r, _ := w.AddItem(player.tile, rest, IndexWhereever, FlagNoLimit, false); r != OK {
			w.discard(rest)
		}
	}
	if ret != OK && dropOnMap && player.tile != nil {
		ret, _ = w.AddItem(player.tile, it, IndexWhereever, FlagNoLimit, false)
	}
	return ret
}
