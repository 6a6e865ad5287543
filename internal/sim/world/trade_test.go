package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrade_ItemsChangeHands(t *testing.T) {
	audit := &memAudit{}
	w := newTestWorld(t, withAudit(audit))
	p1 := placePlayer(t, w, "ann", spawn)
	p2 := placePlayer(t, w, "bob", spawn.Offset(1, 0, 0))
	sword := equip(t, w, p1, SlotRight, itemSword, 0)
	helmet := equip(t, w, p2, SlotLeft, itemHelmet, 0)

	require.Equal(t, OK, w.RequestTrade(p1, p2, sword))
	assert.True(t, p2.IsTrading())
	assert.Same(t, p1, p2.TradePartner())
	assert.Nil(t, p2.TradeItem())
	assert.Equal(t, NotPossible, w.AcceptTrade(p2))

	require.Equal(t, OK, w.RequestTrade(p2, p1, helmet))
	assert.Equal(t, 2, w.Registry().Items.Refs(sword.Handle()))

	require.Equal(t, OK, w.AcceptTrade(p1))
	assert.Same(t, sword, p1.Inventory().Slot(SlotRight))
	require.Equal(t, OK, w.AcceptTrade(p2))

	assert.Same(t, sword, p2.Inventory().Slot(SlotRight))
	assert.Same(t, helmet, p1.Inventory().Slot(SlotHead))
	assert.Nil(t, p1.Inventory().Slot(SlotRight))
	assert.Nil(t, p2.Inventory().Slot(SlotLeft))
	assert.False(t, p1.IsTrading())
	assert.False(t, p2.IsTrading())

	w.advance(1)
	assert.Equal(t, 1, w.Registry().Items.Refs(sword.Handle()))
	assert.Equal(t, 1, w.Registry().Items.Refs(helmet.Handle()))
	assert.Contains(t, audit.actions(), AuditTrade)
}

func TestTrade_MovingEscrowClosesTrade(t *testing.T) {
	w := newTestWorld(t)
	p1 := placePlayer(t, w, "ann", spawn)
	p2 := placePlayer(t, w, "bob", spawn.Offset(1, 0, 0))
	sword := equip(t, w, p1, SlotRight, itemSword, 0)
	require.Equal(t, OK, w.RequestTrade(p1, p2, sword))

	ret, _ := w.MoveItem(p1.Inventory(), w.Tile(spawn.Offset(0, 1, 0)), IndexWhereever, sword, 1, 0, MoveOpts{Actor: p1})
	require.Equal(t, OK, ret)
	assert.False(t, p1.IsTrading())
	assert.False(t, p2.IsTrading())

	w.advance(1)
	assert.Equal(t, 1, w.Registry().Items.Refs(sword.Handle()))
}

func TestTrade_EscrowAndBusyPartners(t *testing.T) {
	w := newTestWorld(t)
	p1 := placePlayer(t, w, "ann", spawn)
	p2 := placePlayer(t, w, "bob", spawn.Offset(1, 0, 0))
	p3 := placePlayer(t, w, "cid", spawn.Offset(0, 1, 0))
	bp := equip(t, w, p1, SlotBackpack, itemBackpack, 0)
	coins := putInContainer(t, w, bp.Container(), itemGold, 10)
	sword := equip(t, w, p1, SlotRight, itemSword, 0)
	club := equip(t, w, p3, SlotRight, itemSword, 0)

	require.Equal(t, OK, w.RequestTrade(p1, p2, bp))
	assert.Equal(t, NotPossible, w.RequestTrade(p1, p3, coins))
	assert.Equal(t, AlreadyTrading, w.RequestTrade(p1, p3, sword))
	assert.Equal(t, PartnerAlreadyTrading, w.RequestTrade(p3, p2, club))

	require.True(t, w.CloseTrade(p2))
	assert.False(t, p1.IsTrading())
	assert.False(t, w.CloseTrade(p2))
}

func TestTrade_Range(t *testing.T) {
	w := newTestWorld(t)
	p1 := placePlayer(t, w, "ann", spawn)
	p2 := placePlayer(t, w, "bob", spawn.Offset(3, 0, 0))
	sword := equip(t, w, p1, SlotRight, itemSword, 0)
	floor := placeItem(t, w, spawn.Offset(-2, 0, 0), itemHelmet, 0)

	assert.Equal(t, DestinationOutOfReach, w.RequestTrade(p1, p2, sword))
	assert.Equal(t, NotPossible, w.RequestTrade(p1, p1, sword))

	require.Equal(t, OK, w.Teleport(p2, spawn.Offset(2, 0, 0), false))
	assert.Equal(t, DestinationOutOfReach, w.RequestTrade(p1, p2, floor))
	require.Equal(t, OK, w.RequestTrade(p1, p2, sword))

	// Walking away ends it.
	require.Equal(t, OK, w.Teleport(p2, spawn.Offset(5, 0, 0), false))
	assert.False(t, p1.IsTrading())
	assert.False(t, p2.IsTrading())
}
