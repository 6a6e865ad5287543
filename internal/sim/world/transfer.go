package world

import (
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/metrics"
)

// MoveOpts carries the optional parts of a move. Hooks only run for moves
// with an Actor. Escrow is an item the destination must not be, or be inside
// of. FromPos and ToPos default to the cylinders' positions.
type MoveOpts struct {
	Actor   *Creature
	Escrow  *Item
	FromPos *Position
	ToPos   *Position
}

// resolveDestination follows redirects until a cylinder answers for itself.
// Flags only apply to the first query.
func (w *World) resolveDestination(to Cylinder, index int, it *Item, flags Flags) (Cylinder, int, *Item, Outcome) {
	redirects := 0
	for {
		sub, subIndex, subItem := to.QueryDestination(index, it, flags)
		if sub == nil {
			return nil, 0, nil, NotPossible
		}
		if sub == to {
			return to, subIndex, subItem, OK
		}
		redirects++
		if redirects > w.cfg.MaxDestinationHops {
			return nil, 0, nil, NotPossible
		}
		to, index, flags = sub, subIndex, 0
	}
}

// MoveItem moves count units of it from from into to. It returns the item
// that now stands for the moved units: the stack they merged into, the split
// off copy, or it. A partial fill moves what fits and reports why the rest
// did not.
func (w *World) MoveItem(from, to Cylinder, index int, it *Item, count int, flags Flags, opt MoveOpts) (Outcome, *Item) {
	ret, moved := w.moveItem(from, to, index, it, count, flags, opt)
	metrics.Moves.WithLabelValues(ret.String()).Inc()
	f := w.fields(opt.Actor)
	f["outcome"] = ret.String()
	if it != nil {
		f["item"] = it.def.ID
	}
	w.log.WithFields(f).Debug("move item")
	return ret, moved
}

func (w *World) moveItem(from, to Cylinder, index int, it *Item, count int, flags Flags, opt MoveOpts) (Outcome, *Item) {
	if it == nil || from == nil || to == nil || from.ThingIndex(it) < 0 {
		return NotPossible, nil
	}
	if !it.IsStackable() {
		count = 1
	}

	mc := MoveContext{Actor: opt.Actor, Item: it, Count: count, FromPos: from.Position(), ToPos: to.Position(), From: from, To: to}
	if opt.FromPos != nil {
		mc.FromPos = *opt.FromPos
	}
	if opt.ToPos != nil {
		mc.ToPos = *opt.ToPos
	}
	if opt.Actor != nil {
		if ret := w.rules.PreMove(mc); ret != OK {
			return ret, nil
		}
	}

	to, index, toItem, ret := w.resolveDestination(to, index, it, flags)
	if ret != OK {
		return ret, nil
	}
	if toItem == it {
		return OK, it
	}
	if opt.Escrow != nil && holdsItem(to, opt.Escrow) {
		return NotEnoughRoom, nil
	}

	ret = to.QueryAdd(index, it, count, flags, opt.Actor)
	swap := ret == NeedExchange
	if ret != OK && !swap {
		return ret, nil
	}
	if ret := from.QueryRemove(it, count, flags, opt.Actor); ret != OK {
		return ret, nil
	}
	if swap {
		occupant, ret := w.exchange(from, to, index, it, toItem, flags, mc)
		if ret != OK {
			return ret, nil
		}
		toItem = nil
		if ret := to.QueryAdd(index, it, count, flags, opt.Actor); ret != OK {
			w.undoExchange(from, to, index, occupant)
			if ret == NeedExchange {
				return NotPossible, nil
			}
			return ret, nil
		}
	}

	maxCount, retMax := to.QueryMaxCount(index, it, count, flags)
	if retMax != OK && maxCount == 0 {
		return retMax, nil
	}
	m := 1
	if it.IsStackable() {
		m = min(count, maxCount)
	}

	w.closeTradesHolding(it)
	fromIndex := from.ThingIndex(it)
	whole := !it.IsStackable() || m >= it.count
	merge := it.IsStackable() && toItem != nil && toItem != it && toItem.Equals(it)

	var moveItem, updateItem *Item
	from.RemoveThing(it, m)
	if whole && !merge {
		moveItem = it
	} else {
		n := 0
		if merge {
			n = min(toItem.MaxStack()-toItem.count, m)
			if n > 0 {
				to.UpdateThing(toItem, toItem.def.ID, toItem.count+n)
				updateItem = toItem
			}
		}
		if rest := m - n; rest > 0 {
			moveItem = w.clone(it)
			moveItem.count = rest
		}
		if it.IsRemoved() {
			w.stopDecay(it)
			w.unregisterUnique(it)
			w.releaseItem(it)
		}
	}

	if moveItem != nil {
		to.AddThing(index, moveItem)
	}
	if fromIndex != -1 {
		from.PostRemoveNotification(it, to, fromIndex)
	}
	if moveItem != nil {
		if i := to.ThingIndex(moveItem); i != -1 {
			to.PostAddNotification(moveItem, from, i)
		}
	}
	if updateItem != nil {
		if i := to.ThingIndex(updateItem); i != -1 {
			to.PostAddNotification(updateItem, from, i)
		}
	}

	w.startDecay(moveItem)

	result := it
	switch {
	case updateItem != nil:
		result = updateItem
	case moveItem != nil:
		result = moveItem
	}
	if opt.Actor != nil {
		done := mc
		done.Item, done.Count, done.To = result, m, to
		w.rules.PostMove(done)
	}
	w.auditItem(AuditMove, opt.Actor, result, m, mc.FromPos, to.Position())

	if it.IsStackable() && maxCount < count {
		return retMax, result
	}
	return OK, result
}

// exchange moves the single occupant of a slot back into the source so that
// it can take its place. The occupant may not need another exchange itself.
func (w *World) exchange(from, to Cylinder, index int, it, occupant *Item, flags Flags, mc MoveContext) (*Item, Outcome) {
	if occupant == nil {
		occupant = to.ItemAt(index)
	}
	if occupant == nil || occupant == it {
		return nil, NotPossible
	}
	if _, ok := from.(*Inventory); ok {
		// The occupant would need the slot it is still holding.
		return nil, NotPossible
	}
	switch ret := from.QueryAdd(from.ThingIndex(it), occupant, occupant.Count(), 0, mc.Actor); ret {
	case OK:
	case NeedExchange:
		return nil, NotPossible
	default:
		return nil, ret
	}

	back := MoveContext{Actor: mc.Actor, Item: occupant, Count: occupant.Count(), FromPos: mc.ToPos, ToPos: mc.FromPos, From: to, To: from}
	if mc.Actor != nil {
		if ret := w.rules.PreMove(back); ret != OK {
			return nil, ret
		}
	}
	if n, ret := from.QueryMaxCount(IndexWhereever, occupant, occupant.Count(), 0); ret != OK && n == 0 {
		return nil, ret
	}
	if ret := to.QueryRemove(occupant, occupant.Count(), flags, mc.Actor); ret != OK {
		return nil, ret
	}

	w.closeTradesHolding(occupant)
	w.shift(to, from, IndexWhereever, occupant)
	if mc.Actor != nil && !occupant.IsRemoved() {
		w.rules.PostMove(back)
	}
	w.auditItem(AuditMove, mc.Actor, occupant, occupant.Count(), back.FromPos, back.ToPos)
	w.log.WithFields(logrus.Fields{"item": occupant.def.ID, "tick": w.tick.Load()}).Debug("exchanged occupant")
	return occupant, OK
}

// undoExchange puts the occupant back into its slot when the incoming item
// still does not fit there.
func (w *World) undoExchange(from, to Cylinder, index int, occupant *Item) {
	if occupant == nil || occupant.IsRemoved() || from.ThingIndex(occupant) < 0 {
		return
	}
	w.shift(from, to, index, occupant)
	w.log.WithFields(logrus.Fields{"item": occupant.def.ID, "tick": w.tick.Load()}).Debug("exchange undone")
}

// shift moves a whole item between cylinders and notifies both sides.
func (w *World) shift(from, to Cylinder, index int, it *Item) {
	old := from.ThingIndex(it)
	from.RemoveThing(it, it.Count())
	to.AddThing(index, it)
	if old != -1 {
		from.PostRemoveNotification(it, to, old)
	}
	if i := to.ThingIndex(it); i != -1 {
		to.PostAddNotification(it, from, i)
	}
}

func (w *World) unregisterUnique(it *Item) {
	if uid := it.UniqueID(); uid != 0 {
		if cur, ok := w.reg.Unique(uid); ok && cur == it {
			w.reg.UnregisterUnique(uid)
		}
	}
}
