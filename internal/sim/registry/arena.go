package registry

// Handle addresses a slot in an Arena. A handle whose generation no longer
// matches the slot is stale and resolves to nothing.
type Handle struct {
	Index uint32
	Gen   uint32
}

// Zero handles never resolve; generations start at 1.
func (h Handle) IsZero() bool { return h.Gen == 0 }

type slot[T any] struct {
	val  T
	gen  uint32
	refs int32
	live bool
}

// Arena stores entities by index with reference counts. Release does not
// drop a reference immediately: it is queued, and Flush applies all queued
// releases at once. Entities reached through a valid handle stay readable
// until the Flush that drops their last reference.
type Arena[T any] struct {
	slots   []slot[T]
	free    []uint32
	pending []Handle
	live    int
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v with one reference held by the caller.
func (a *Arena[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.val = v
	s.refs = 1
	s.live = true
	a.live++
	return Handle{Index: idx, Gen: s.gen}
}

func (a *Arena[T]) slot(h Handle) (*slot[T], bool) {
	if h.Gen == 0 || int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index]
	if !s.live || s.gen != h.Gen {
		return nil, false
	}
	return s, true
}

func (a *Arena[T]) Get(h Handle) (T, bool) {
	s, ok := a.slot(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.val, true
}

func (a *Arena[T]) Valid(h Handle) bool {
	_, ok := a.slot(h)
	return ok
}

// Acquire adds a reference. It reports false for stale handles.
func (a *Arena[T]) Acquire(h Handle) bool {
	s, ok := a.slot(h)
	if !ok {
		return false
	}
	s.refs++
	return true
}

// Release queues one reference drop for the next Flush.
func (a *Arena[T]) Release(h Handle) {
	if _, ok := a.slot(h); !ok {
		return
	}
	a.pending = append(a.pending, h)
}

// Refs returns the live reference count, ignoring queued releases.
func (a *Arena[T]) Refs(h Handle) int {
	s, ok := a.slot(h)
	if !ok {
		return 0
	}
	return int(s.refs)
}

// Pending is the number of queued releases.
func (a *Arena[T]) Pending() int { return len(a.pending) }

func (a *Arena[T]) Len() int { return a.live }

// Flush applies queued releases in order and frees every slot whose count
// reaches zero. It returns the values freed by this call.
func (a *Arena[T]) Flush() []T {
	if len(a.pending) == 0 {
		return nil
	}
	var freed []T
	// Releases queued while flushing wait for the next call.
	batch := a.pending
	a.pending = nil
	for _, h := range batch {
		s, ok := a.slot(h)
		if !ok {
			continue
		}
		s.refs--
		if s.refs > 0 {
			continue
		}
		freed = append(freed, s.val)
		var zero T
		s.val = zero
		s.live = false
		s.refs = 0
		a.live--
		a.free = append(a.free, h.Index)
	}
	return freed
}

// Each visits live entries in index order.
func (a *Arena[T]) Each(fn func(Handle, T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{Index: uint32(i), Gen: s.gen}, s.val) {
			return
		}
	}
}

// Reset drops every entry and pending release. Generations survive so that
// handles issued before the reset stay stale.
func (a *Arena[T]) Reset() {
	var zero T
	a.free = a.free[:0]
	for i := len(a.slots) - 1; i >= 0; i-- {
		s := &a.slots[i]
		s.val = zero
		s.live = false
		s.refs = 0
		a.free = append(a.free, uint32(i))
	}
	a.pending = nil
	a.live = 0
}
