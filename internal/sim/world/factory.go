package world

// CreateItem builds a floating item of type id. count is the stack size for
// stackables and the sub-type otherwise; 0 picks the type default. The
// returned item holds the world reference and must be placed or discarded.
func (w *World) CreateItem(id uint16, count int) *Item {
	def, ok := w.items.Get(id)
	if !ok {
		return nil
	}
	it := &Item{cat: w.items, def: def}
	switch {
	case def.Stackable:
		it.count = min(max(count, 1), def.MaxStack)
	case def.HasCharges():
		if count > 0 {
			it.count = count
		} else {
			it.count = def.Charges
		}
	default:
		it.count = count
	}
	if def.DurationMs > 0 {
		it.SetDuration(def.DurationMs)
	}
	if def.IsContainer() {
		it.container = newContainer(it)
	}
	it.handle = w.reg.Items.Insert(it)
	return it
}

// clone copies type, sub-type and attributes, and container contents with
// them. The copy is floating.
func (w *World) clone(it *Item) *Item {
	c := &Item{cat: it.cat, def: it.def, count: it.count, Attrs: it.Attrs.clone()}
	c.Attrs.Remove(AttrUniqueID)
	if it.container != nil {
		c.container = newContainer(c)
		for _, child := range it.container.items {
			cc := w.clone(child)
			cc.parent = c.container
			c.container.items = append(c.container.items, cc)
		}
	}
	c.handle = w.reg.Items.Insert(c)
	return c
}

// discard drops a floating item, or one just taken out of the world, at the
// end of the tick.
func (w *World) discard(it *Item) {
	if it == nil {
		return
	}
	it.parent = nil
	w.releaseItem(it)
}

func (w *World) releaseItem(it *Item) {
	w.reg.Items.Release(it.handle)
}

func (w *World) acquireItem(it *Item) bool {
	return w.reg.Items.Acquire(it.handle)
}

// ItemByHandle resolves a handle to a live item.
func (w *World) ItemByHandle(h HandleRef) *Item {
	it, ok := w.reg.Items.Get(h)
	if !ok {
		return nil
	}
	return it
}
