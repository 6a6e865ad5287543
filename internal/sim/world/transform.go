package world

// TransformItem changes it into type newID with sub-type newCount (-1 keeps
// the current one). The returned item is the one now in its place. It is nil
// when the transform removed the item. Decay restarts for the result.
func (w *World) TransformItem(it *Item, newID uint16, newCount int) (*Item, Outcome) {
	if it == nil {
		return nil, NotPossible
	}
	if it.def.ID == newID && (newCount == -1 || (newCount == it.count && newCount != 0)) {
		return it, OK
	}
	c := it.parent
	if c == nil {
		return it, NotPossible
	}
	index := c.ThingIndex(it)
	if index == -1 || it.def.NotTransformable {
		return it, NotPossible
	}
	newDef, ok := w.items.Get(newID)
	if !ok {
		return it, NotPossible
	}
	cur := it.def
	pos := it.Position()
	defer w.writeAudit(AuditEntry{Action: AuditTransform, Pos: pos.Array(), Item: cur.ID, Value: int(newID)})

	if cur.AlwaysOnTop != newDef.AlwaysOnTop {
		// Moving between the top and down lists of a tile.
		c.RemoveThing(it, it.count)
		c.PostRemoveNotification(it, c, index)
		it.setID(newID)
		if newCount != -1 {
			it.setCount(newCount)
		}
		c.AddThing(IndexWhereever, it)
		p := it.parent
		if p == nil {
			w.stopDecay(it)
			w.releaseItem(it)
			return nil, OK
		}
		p.PostAddNotification(it, c, p.ThingIndex(it))
		w.startDecay(it)
		return it, OK
	}

	if cur.Group == newDef.Group {
		if newCount == 0 && (it.IsStackable() || cur.HasCharges()) {
			if it.IsStackable() {
				return nil, w.RemoveItem(it, -1, false, 0)
			}
			target := newID
			if cur.ID == newDef.ID {
				target = cur.DecayTo
			}
			switch {
			case target == 0:
				return nil, w.RemoveItem(it, -1, false, 0)
			case target != newID:
				return w.replaceItem(c, index, it, target, -1)
			default:
				return w.TransformItem(it, target, -1)
			}
		}
		c.PostRemoveNotification(it, c, index)
		id, count := it.def.ID, it.count
		if cur.ID != newDef.ID {
			id = newID
		}
		if newCount != -1 && newDef.HasSubType() {
			count = newCount
		}
		c.UpdateThing(it, id, count)
		c.PostAddNotification(it, c, index)
		w.startDecay(it)
		return it, OK
	}

	return w.replaceItem(c, index, it, newID, newCount)
}

// replaceItem swaps it for a new item of type id at the same index.
func (w *World) replaceItem(c Cylinder, index int, it *Item, id uint16, count int) (*Item, Outcome) {
	if count < 0 {
		count = 0
	}
	n := w.CreateItem(id, count)
	if n == nil {
		return it, NotPossible
	}
	w.closeTradesHolding(it)
	c.ReplaceThing(index, n)
	c.PostAddNotification(n, c, index)
	it.parent = nil
	c.PostRemoveNotification(it, c, index)
	w.stopDecay(it)
	w.unregisterUnique(it)
	w.releaseItem(it)
	w.startDecay(n)
	return n, OK
}
