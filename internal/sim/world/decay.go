package world

import "tilecraft.ai/internal/metrics"

// decayHost adapts the world to the decay wheel. The wheel holds one item
// reference per entry, taken in startDecay and dropped in Leave.
type decayHost struct{ w *World }

func (h decayHost) Remaining(k HandleRef) (int64, bool) {
	it := h.w.ItemByHandle(k)
	if it == nil || !it.CanDecay() {
		return 0, false
	}
	return it.Duration(), true
}

func (h decayHost) SetRemaining(k HandleRef, ms int64) {
	if it := h.w.ItemByHandle(k); it != nil {
		it.SetDuration(ms)
	}
}

func (h decayHost) Leave(k HandleRef) {
	if it := h.w.ItemByHandle(k); it != nil {
		it.decaying = false
	}
	h.w.reg.Items.Release(k)
}

func (h decayHost) Expire(k HandleRef) {
	if it := h.w.ItemByHandle(k); it != nil {
		h.w.decayItem(it)
	}
}

// startDecay registers it in the wheel once. Items already decaying, or
// without time left, are ignored.
func (w *World) startDecay(it *Item) {
	if it == nil || it.decaying || it.IsRemoved() || it.Duration() <= 0 {
		return
	}
	if !w.acquireItem(it) {
		return
	}
	if !w.wheel.Schedule(it.handle) {
		w.releaseItem(it)
		return
	}
	it.decaying = true
}

// stopDecay takes it off the wheel right away.
func (w *World) stopDecay(it *Item) {
	if it.decaying {
		w.wheel.Drop(it.handle)
	}
}

func (w *World) decayItem(it *Item) {
	if it.IsRemoved() {
		return
	}
	metrics.DecayExpired.Inc()
	pos := it.Position()
	from := it.def.ID
	if to := it.def.DecayTo; to != 0 {
		n, ret := w.TransformItem(it, to, -1)
		if ret != OK {
			w.log.WithFields(w.fields(nil)).WithField("item", from).Warn("decay transform failed")
			return
		}
		e := AuditEntry{Action: AuditDecay, Pos: pos.Array(), Item: from}
		if n != nil {
			e.Value = int(n.def.ID)
		}
		w.writeAudit(e)
		return
	}
	if ret := w.RemoveItem(it, -1, false, 0); ret != OK {
		w.log.WithFields(w.fields(nil)).WithField("item", from).Warn("decay remove failed")
		return
	}
	w.writeAudit(AuditEntry{Action: AuditDecay, Pos: pos.Array(), Item: from})
}
