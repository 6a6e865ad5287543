package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UniqueIndex(t *testing.T) {
	r := New[string, string]()
	h := r.Items.Insert("key")

	require.True(t, r.RegisterUnique(1001, h))
	other := r.Items.Insert("other key")
	assert.False(t, r.RegisterUnique(1001, other), "unique id already bound")
	assert.False(t, r.RegisterUnique(0, other))

	v, ok := r.Unique(1001)
	require.True(t, ok)
	assert.Equal(t, "key", v)

	// Once the holder is freed the id can be reused.
	r.Items.Release(h)
	r.Flush()
	_, ok = r.Unique(1001)
	assert.False(t, ok)
	assert.True(t, r.RegisterUnique(1001, other))

	r.UnregisterUnique(1001)
	_, ok = r.Unique(1001)
	assert.False(t, ok)
}

func TestRegistry_AccountStorage(t *testing.T) {
	r := New[int, int]()
	_, ok := r.AccountStorage(1, 2)
	assert.False(t, ok)
	r.SetAccountStorage(1, 2, 42)
	v, ok := r.AccountStorage(1, 2)
	require.True(t, ok)
	assert.Equal(t, int32(42), v)
}

func TestRegistry_CloseIsIdempotent(t *testing.T) {
	r := New[int, int]()
	ih := r.Items.Insert(1)
	ch := r.Creatures.Insert(2)
	r.SetAccountStorage(1, 1, 1)

	r.Close()
	r.Close()
	assert.True(t, r.Closed())
	assert.False(t, r.Items.Valid(ih))
	assert.False(t, r.Creatures.Valid(ch))
	_, ok := r.AccountStorage(1, 1)
	assert.False(t, ok)
}
