package decay

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	remaining map[string]int64
	gone      map[string]bool
	expired   map[string]int
	leaves    map[string]int
	onExpire  func(k string)
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		remaining: map[string]int64{},
		gone:      map[string]bool{},
		expired:   map[string]int{},
		leaves:    map[string]int{},
	}
}

func (h *fakeHost) Remaining(k string) (int64, bool) {
	if h.gone[k] {
		return 0, false
	}
	ms, ok := h.remaining[k]
	return ms, ok
}
func (h *fakeHost) SetRemaining(k string, ms int64) { h.remaining[k] = ms }
func (h *fakeHost) Expire(k string) {
	h.expired[k]++
	if h.onExpire != nil {
		h.onExpire(k)
	}
}
func (h *fakeHost) Leave(k string) { h.leaves[k]++ }

func occurrences(w *Wheel[string], k string) int {
	n := 0
	for _, b := range w.buckets {
		for _, v := range b {
			if v == k {
				n++
			}
		}
	}
	for _, v := range w.pending {
		if v == k {
			n++
		}
	}
	return n
}

func TestWheel_ExpiresWithinOneInterval(t *testing.T) {
	for _, d := range []int64{100, 250, 600, 900, 1000, 1100, 1900, 2600, 5000} {
		t.Run(fmt.Sprintf("%dms", d), func(t *testing.T) {
			host := newFakeHost()
			w, err := NewWheel[string](250, 4, host)
			require.NoError(t, err)

			// Start mid-revolution.
			w.Service()
			w.Service()

			host.remaining["x"] = d
			require.True(t, w.Schedule("x"))
			w.Commit()

			elapsed := int64(0)
			for host.expired["x"] == 0 {
				require.LessOrEqual(t, elapsed, d+w.Interval(), "item outlived its duration")
				require.Equal(t, 1, occurrences(w, "x"), "item must sit in exactly one bucket")
				w.Service()
				elapsed += w.Interval()
			}
			assert.InDelta(t, d, elapsed, float64(w.Interval()))
			assert.Equal(t, 1, host.expired["x"])
			assert.Equal(t, 1, host.leaves["x"], "registration reference released once")
			assert.Equal(t, 0, w.Len())
			assert.Equal(t, 0, occurrences(w, "x"))
		})
	}
}

func TestWheel_ScheduleIsIdempotent(t *testing.T) {
	host := newFakeHost()
	w, err := NewWheel[string](250, 4, host)
	require.NoError(t, err)

	host.remaining["x"] = 3000
	assert.True(t, w.Schedule("x"))
	assert.False(t, w.Schedule("x"))
	w.Commit()
	assert.False(t, w.Schedule("x"))
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 1, occurrences(w, "x"))

	b, ok := w.Bucket("x")
	require.True(t, ok)
	assert.Equal(t, 3, b, "long durations wait a full revolution in the last bucket")
}

func TestWheel_RemovedEntityIsDroppedLazily(t *testing.T) {
	host := newFakeHost()
	w, err := NewWheel[string](250, 4, host)
	require.NoError(t, err)

	host.remaining["x"] = 400
	w.Schedule("x")
	w.Commit()
	host.gone["x"] = true

	for i := 0; i < 4; i++ {
		w.Service()
	}
	assert.Equal(t, 0, host.expired["x"])
	assert.Equal(t, 1, host.leaves["x"])
	assert.Equal(t, 0, w.Len())
}

func TestWheel_DropReleasesOnce(t *testing.T) {
	host := newFakeHost()
	w, err := NewWheel[string](250, 4, host)
	require.NoError(t, err)

	host.remaining["pending"] = 500
	host.remaining["placed"] = 500
	w.Schedule("placed")
	w.Commit()
	w.Schedule("pending")

	w.Drop("pending")
	w.Drop("placed")
	w.Drop("placed")
	assert.Equal(t, 1, host.leaves["pending"])
	assert.Equal(t, 1, host.leaves["placed"])
	assert.Equal(t, 0, w.Len())

	w.Commit()
	for i := 0; i < 8; i++ {
		w.Service()
	}
	assert.Empty(t, host.expired)
}

func TestWheel_ExpireMayReschedule(t *testing.T) {
	host := newFakeHost()
	w, err := NewWheel[string](250, 4, host)
	require.NoError(t, err)

	// The first expiry turns x into a new stage with its own duration.
	host.onExpire = func(k string) {
		if host.expired[k] == 1 {
			host.remaining[k] = 500
			require.True(t, w.Schedule(k))
		}
	}
	host.remaining["x"] = 100
	w.Schedule("x")
	w.Commit()

	w.Service()
	assert.Equal(t, 1, host.expired["x"])
	assert.Equal(t, 1, w.Len(), "rescheduled during expiry")
	w.Commit()

	for i := 0; i < 4 && host.expired["x"] < 2; i++ {
		w.Service()
	}
	assert.Equal(t, 2, host.expired["x"])
	assert.Equal(t, 2, host.leaves["x"])
}

func TestNewWheel_RejectsBadShape(t *testing.T) {
	_, err := NewWheel[string](0, 4, newFakeHost())
	assert.Error(t, err)
	_, err = NewWheel[string](250, 1, newFakeHost())
	assert.Error(t, err)
	_, err = NewWheel[string](250, 4, nil)
	assert.Error(t, err)
}
