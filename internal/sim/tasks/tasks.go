package tasks

import "sort"

type Kind string

const (
	// KindAction is a request held back by the actor's action delay.
	KindAction Kind = "ACTION"
	// KindWalk is a request waiting for the actor to walk into range.
	KindWalk Kind = "WALK"
)

// Continuation is a deferred request. Payload is the original request value;
// the handler that runs it must re-check everything against current state.
type Continuation struct {
	Actor   uint32
	Kind    Kind
	DueTick uint64
	Payload any

	seq uint64
}

type key struct {
	actor uint32
	kind  Kind
}

// Scheduler holds at most one continuation per actor and kind. Arming again
// replaces the previous one.
type Scheduler struct {
	pending map[key]Continuation
	seq     uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: map[key]Continuation{}}
}

func (s *Scheduler) Arm(actor uint32, kind Kind, dueTick uint64, payload any) {
	s.seq++
	s.pending[key{actor, kind}] = Continuation{
		Actor:   actor,
		Kind:    kind,
		DueTick: dueTick,
		Payload: payload,
		seq:     s.seq,
	}
}

func (s *Scheduler) Pending(actor uint32, kind Kind) (Continuation, bool) {
	c, ok := s.pending[key{actor, kind}]
	return c, ok
}

func (s *Scheduler) Cancel(actor uint32) {
	delete(s.pending, key{actor, KindAction})
	delete(s.pending, key{actor, KindWalk})
}

func (s *Scheduler) CancelKind(actor uint32, kind Kind) {
	delete(s.pending, key{actor, kind})
}

func (s *Scheduler) Len() int { return len(s.pending) }

// Due removes and returns every continuation due at or before tick, ordered
// by due tick and then by arming order.
func (s *Scheduler) Due(tick uint64) []Continuation {
	var out []Continuation
	for k, c := range s.pending {
		if c.DueTick <= tick {
			out = append(out, c)
			delete(s.pending, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueTick != out[j].DueTick {
			return out[i].DueTick < out[j].DueTick
		}
		return out[i].seq < out[j].seq
	})
	return out
}
