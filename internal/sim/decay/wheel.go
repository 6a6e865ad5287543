package decay

import "fmt"

// Host is the owner of the decaying entities. The wheel never touches entity
// state directly.
type Host[K comparable] interface {
	// Remaining reports k's remaining duration in milliseconds. ok is false
	// when k can no longer decay (removed from the world, or decay stopped).
	Remaining(k K) (ms int64, ok bool)
	SetRemaining(k K, ms int64)
	// Expire runs when k's duration is used up.
	Expire(k K)
	// Leave is called exactly once for every k that leaves the wheel. For an
	// expiring entity it runs before Expire, so Expire may schedule k again.
	Leave(k K)
}

const pendingSlot = -1

// Wheel is a bucketed timer. Each call to Service handles the next bucket and
// stands for one interval of elapsed simulation time, so a full revolution is
// interval*buckets. The wheel has no notion of wall-clock time.
type Wheel[K comparable] struct {
	interval int64
	buckets  [][]K
	last     int
	pending  []K
	where    map[K]int
	host     Host[K]
}

func NewWheel[K comparable](intervalMs int64, buckets int, host Host[K]) (*Wheel[K], error) {
	if intervalMs <= 0 {
		return nil, fmt.Errorf("decay: interval must be positive, got %d", intervalMs)
	}
	if buckets < 2 {
		return nil, fmt.Errorf("decay: need at least 2 buckets, got %d", buckets)
	}
	if host == nil {
		return nil, fmt.Errorf("decay: nil host")
	}
	return &Wheel[K]{
		interval: intervalMs,
		buckets:  make([][]K, buckets),
		last:     buckets - 1,
		where:    map[K]int{},
		host:     host,
	}, nil
}

func (w *Wheel[K]) Interval() int64   { return w.interval }
func (w *Wheel[K]) Revolution() int64 { return w.interval * int64(len(w.buckets)) }

// Len counts entities in buckets and in the pending list.
func (w *Wheel[K]) Len() int { return len(w.where) }

// Bucket reports which bucket holds k. Pending entities report -1.
func (w *Wheel[K]) Bucket(k K) (int, bool) {
	b, ok := w.where[k]
	return b, ok
}

// Schedule adds k to the pending list. Pending entities are placed by the
// next Commit. It reports false if k is already on the wheel.
func (w *Wheel[K]) Schedule(k K) bool {
	if _, ok := w.where[k]; ok {
		return false
	}
	w.where[k] = pendingSlot
	w.pending = append(w.pending, k)
	return true
}

// Commit places pending entities into buckets by remaining time.
func (w *Wheel[K]) Commit() {
	if len(w.pending) == 0 {
		return
	}
	n := len(w.buckets)
	batch := w.pending
	w.pending = nil
	for _, k := range batch {
		if b, ok := w.where[k]; !ok || b != pendingSlot {
			continue
		}
		ms, ok := w.host.Remaining(k)
		if !ok {
			w.leave(k)
			continue
		}
		b := w.last
		if ms < w.Revolution() {
			b = (w.last + 1 + int(ms/w.interval)) % n
		}
		w.buckets[b] = append(w.buckets[b], k)
		w.where[k] = b
	}
}

// Service advances the wheel by one interval and handles the bucket that
// comes due. Entities scheduled during Service wait for the next Commit.
func (w *Wheel[K]) Service() {
	n := len(w.buckets)
	bucket := (w.last + 1) % n
	rev := w.Revolution()

	items := w.buckets[bucket]
	w.buckets[bucket] = nil
	keep := items[:0]
	for _, k := range items {
		if b, ok := w.where[k]; !ok || b != bucket {
			continue
		}
		ms, ok := w.host.Remaining(k)
		if !ok {
			w.leave(k)
			continue
		}
		dec := min(rev, ms)
		ms -= dec
		w.host.SetRemaining(k, ms)

		switch {
		case ms <= 0:
			w.expire(k)
		case ms < rev:
			offset := int((ms + w.interval/2) / w.interval)
			switch {
			case offset == 0:
				// Less than half an interval left.
				w.expire(k)
			case offset >= n:
				keep = append(keep, k)
			default:
				nb := (bucket + offset) % n
				w.buckets[nb] = append(w.buckets[nb], k)
				w.where[k] = nb
			}
		default:
			keep = append(keep, k)
		}
	}
	if len(keep) > 0 {
		w.buckets[bucket] = append(w.buckets[bucket], keep...)
	}
	w.last = bucket
}

// Drop removes k from the wheel without expiring it.
func (w *Wheel[K]) Drop(k K) {
	b, ok := w.where[k]
	if !ok {
		return
	}
	if b == pendingSlot {
		w.pending = removeKey(w.pending, k)
	} else {
		w.buckets[b] = removeKey(w.buckets[b], k)
	}
	w.leave(k)
}

func (w *Wheel[K]) expire(k K) {
	delete(w.where, k)
	w.host.Leave(k)
	w.host.Expire(k)
}

func (w *Wheel[K]) leave(k K) {
	delete(w.where, k)
	w.host.Leave(k)
}

func removeKey[K comparable](in []K, k K) []K {
	for i, v := range in {
		if v == k {
			return append(in[:i], in[i+1:]...)
		}
	}
	return in
}
