package registry

import "sync/atomic"

// Registry owns the process-scoped entity tables: item and creature arenas,
// the unique-id index for quest items, and per-account storage values.
//
// It is created once per world and handed to the engines. Like the rest of the
// simulation it is only touched from the world loop goroutine.
type Registry[I, C any] struct {
	Items     *Arena[I]
	Creatures *Arena[C]

	uniques map[uint16]Handle
	storage map[uint32]map[uint32]int32

	closed atomic.Bool
}

func New[I, C any]() *Registry[I, C] {
	return &Registry[I, C]{
		Items:     NewArena[I](),
		Creatures: NewArena[C](),
		uniques:   map[uint16]Handle{},
		storage:   map[uint32]map[uint32]int32{},
	}
}

// RegisterUnique binds a unique id to an item. It fails if the id is taken.
func (r *Registry[I, C]) RegisterUnique(uid uint16, h Handle) bool {
	if uid == 0 {
		return false
	}
	if cur, ok := r.uniques[uid]; ok && r.Items.Valid(cur) {
		return false
	}
	r.uniques[uid] = h
	return true
}

func (r *Registry[I, C]) UnregisterUnique(uid uint16) {
	delete(r.uniques, uid)
}

func (r *Registry[I, C]) Unique(uid uint16) (I, bool) {
	h, ok := r.uniques[uid]
	if !ok {
		var zero I
		return zero, false
	}
	return r.Items.Get(h)
}

func (r *Registry[I, C]) SetAccountStorage(account, key uint32, v int32) {
	m := r.storage[account]
	if m == nil {
		m = map[uint32]int32{}
		r.storage[account] = m
	}
	m[key] = v
}

func (r *Registry[I, C]) AccountStorage(account, key uint32) (int32, bool) {
	v, ok := r.storage[account][key]
	return v, ok
}

// Flush ends a tick: queued item and creature releases are applied.
func (r *Registry[I, C]) Flush() (items []I, creatures []C) {
	return r.Items.Flush(), r.Creatures.Flush()
}

func (r *Registry[I, C]) Closed() bool { return r.closed.Load() }

// Close tears the registry down. Every outstanding handle becomes stale.
func (r *Registry[I, C]) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.Items.Reset()
	r.Creatures.Reset()
	r.uniques = map[uint16]Handle{}
	r.storage = map[uint32]map[uint32]int32{}
}
