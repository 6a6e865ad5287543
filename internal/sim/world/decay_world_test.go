package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecay_FieldTransformsThenVanishes(t *testing.T) {
	audit := &memAudit{}
	w := newTestWorld(t, withAudit(audit))
	fire := placeItem(t, w, spawn, itemFireField, 0)
	tile := fire.Tile()

	w.advance(1)
	assert.Equal(t, 2, w.Registry().Items.Refs(fire.Handle()))
	assert.Equal(t, 1, w.wheel.Len())

	// 4000ms at 50ms a tick is 80 ticks, give or take one wheel interval.
	w.advance(74)
	assert.Equal(t, uint16(itemFireField), fire.ID())
	w.advance(10)
	require.Equal(t, uint16(itemDyingFire), fire.ID())
	assert.Same(t, tile, fire.Parent())
	assert.Equal(t, 1, w.wheel.Len())

	w.advance(50)
	assert.True(t, fire.IsRemoved())
	assert.Nil(t, tile.TopItem())
	assert.Zero(t, w.wheel.Len())
	assert.False(t, w.Registry().Items.Valid(fire.Handle()))
	assert.Contains(t, audit.actions(), AuditDecay)
}

func TestDecay_MovingKeepsSingleEntry(t *testing.T) {
	w := newTestWorld(t)
	torch := placeItem(t, w, spawn, itemLitTorch, 0)
	w.advance(1)

	ret, moved := w.MoveItem(torch.Tile(), w.Tile(spawn.Offset(1, 0, 0)), IndexWhereever, torch, 1, 0, MoveOpts{})
	require.Equal(t, OK, ret)
	require.Same(t, torch, moved)
	w.advance(1)

	assert.Equal(t, 1, w.wheel.Len())
	assert.Equal(t, 2, w.Registry().Items.Refs(torch.Handle()))
	assert.True(t, torch.IsDecaying())
}

func TestDecay_RemovedItemLeavesWheel(t *testing.T) {
	w := newTestWorld(t)
	torch := placeItem(t, w, spawn, itemLitTorch, 0)
	w.advance(1)
	require.Equal(t, 1, w.wheel.Len())

	require.Equal(t, OK, w.RemoveItem(torch, -1, false, 0))
	assert.Zero(t, w.wheel.Len())
	assert.False(t, torch.IsDecaying())
	w.advance(1)
	assert.False(t, w.Registry().Items.Valid(torch.Handle()))
}

func TestDecay_PlainItemsNeverScheduled(t *testing.T) {
	w := newTestWorld(t)
	sword := placeItem(t, w, spawn, itemSword, 0)
	w.advance(1)

	assert.False(t, sword.IsDecaying())
	assert.Zero(t, w.wheel.Len())
	assert.Equal(t, 1, w.Registry().Items.Refs(sword.Handle()))
}
