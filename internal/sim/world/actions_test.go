package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilecraft.ai/internal/protocol"
)

// recorder collects the outcomes handed to a done callback.
type recorder struct{ got []Outcome }

func (r *recorder) done(ret Outcome) { r.got = append(r.got, ret) }

func moveReq(it *Item, to Position) MoveItemRequest {
	return MoveItemRequest{From: it.Position(), ItemType: it.def.ClientID, To: to, Count: it.Count()}
}

func TestPlayerMoveItem_Adjacent(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	coin := placeItem(t, w, spawn.Offset(1, 0, 0), itemGold, 12)
	var r recorder

	w.PlayerMoveItem(p, moveReq(coin, spawn.Offset(0, 1, 0)), r.done)
	require.Equal(t, []Outcome{OK}, r.got)
	assert.Equal(t, spawn.Offset(0, 1, 0), coin.Position())
}

func TestPlayerMoveItem_Rejections(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.BuildPlain(100, 100, 100, 100, 6, itemGrass))
	p := placePlayer(t, w, "ann", spawn)
	upstairs := placeItem(t, w, Position{X: 100, Y: 100, Z: 6}, itemGold, 1)
	chest := placeItem(t, w, spawn.Offset(1, 0, 0), itemChest, 0)
	coin := placeItem(t, w, spawn.Offset(-1, 0, 0), itemGold, 1)
	placeItem(t, w, spawn.Offset(-3, 0, 0), itemWall, 0)

	tests := []struct {
		name string
		req  MoveItemRequest
		want Outcome
	}{
		{name: "other floor", req: moveReq(upstairs, spawn), want: FirstGoUpstairs},
		{name: "not movable", req: moveReq(chest, spawn), want: NotMovable},
		{name: "wrong type", req: MoveItemRequest{From: coin.Position(), ItemType: itemSword, To: spawn}, want: NotPossible},
		{name: "too far", req: moveReq(coin, spawn.Offset(9, 0, 0)), want: DestinationOutOfReach},
		{name: "behind a wall", req: moveReq(coin, spawn.Offset(-5, 0, 0)), want: CannotThrow},
		{name: "no such tile", req: moveReq(coin, Position{X: 10, Y: 10, Z: 7}), want: NotPossible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r recorder
			w.PlayerMoveItem(p, tt.req, r.done)
			assert.Equal(t, []Outcome{tt.want}, r.got)
		})
	}
	assert.Equal(t, spawn.Offset(-1, 0, 0), coin.Position())
}

func TestPlayerMoveItem_WalksToFarItem(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	coin := placeItem(t, w, spawn.Offset(4, 0, 0), itemGold, 3)
	dest := spawn.Offset(0, 1, 0)
	var r recorder

	w.PlayerMoveItem(p, moveReq(coin, dest), r.done)
	assert.Empty(t, r.got)

	for i := 0; i < 20 && len(r.got) == 0; i++ {
		w.advance(1)
	}
	require.Equal(t, []Outcome{OK}, r.got)
	assert.Equal(t, dest, coin.Position())
	assert.Equal(t, 1, Chebyshev(p.Position(), spawn.Offset(4, 0, 0)))
}

func TestPlayerMoveItem_NoWay(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	require.NoError(t, w.BuildPlain(120, 100, 120, 100, 7, itemGrass))
	coin := placeItem(t, w, Position{X: 120, Y: 100, Z: 7}, itemGold, 1)
	var r recorder

	w.PlayerMoveItem(p, moveReq(coin, spawn), r.done)
	assert.Equal(t, []Outcome{ThereIsNoWay}, r.got)
}

func TestPlayerMoveItem_WaitsForActionDelay(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	a := placeItem(t, w, spawn.Offset(1, 0, 0), itemSword, 0)
	b := placeItem(t, w, spawn.Offset(-1, 0, 0), itemHelmet, 0)
	var first, second recorder

	w.PlayerMoveItem(p, moveReq(a, spawn), first.done)
	require.Equal(t, []Outcome{OK}, first.got)
	w.PlayerMoveItem(p, moveReq(b, spawn), second.done)
	assert.Empty(t, second.got)

	delay := int(w.cfg.MsToTicks(w.cfg.Actions.ActionDelayMs))
	w.advance(delay)
	assert.Empty(t, second.got)
	w.advance(1)
	require.Equal(t, []Outcome{OK}, second.got)
	assert.Equal(t, spawn, b.Position())
}

func TestHandleAct_NewCommandSupersedesParked(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	coin := placeItem(t, w, spawn.Offset(4, 0, 0), itemGold, 3)
	var parked recorder
	w.PlayerMoveItem(p, moveReq(coin, spawn), parked.done)
	require.Empty(t, parked.got)

	var acks []protocol.AckMsg
	w.StepOnce(nil, nil, []ActionEnvelope{{
		PlayerID: p.ID(),
		Act:      protocol.ActMsg{ID: "a1", Action: protocol.ActionTradeClose},
		Ack:      func(a protocol.AckMsg) { acks = append(acks, a) },
	}})

	assert.Equal(t, []Outcome{NotPossible}, parked.got)
	require.Len(t, acks, 1)
	assert.Equal(t, "a1", acks[0].AckFor)
	assert.False(t, acks[0].Accepted)
	assert.Equal(t, NotPossible.Code(), acks[0].Code)

	// The walk was dropped with the request.
	pos := p.Position()
	w.advance(10)
	assert.Equal(t, pos, p.Position())
	assert.Equal(t, spawn.Offset(4, 0, 0), coin.Position())
}

func TestHandleAct_MoveItemAck(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	coin := placeItem(t, w, spawn.Offset(1, 0, 0), itemGold, 5)
	from, to := coin.Position().Array(), InventoryPosition(SlotWhereever).Array()

	var acks []protocol.AckMsg
	w.StepOnce(nil, nil, []ActionEnvelope{
		{
			PlayerID: p.ID(),
			Act:      protocol.ActMsg{ID: "m1", Action: protocol.ActionMoveItem, From: &from, ItemType: itemGold, To: &to, Count: 5},
			Ack:      func(a protocol.AckMsg) { acks = append(acks, a) },
		},
		{
			PlayerID: 12345,
			Act:      protocol.ActMsg{ID: "m2", Action: protocol.ActionMoveItem},
			Ack:      func(a protocol.AckMsg) { acks = append(acks, a) },
		},
	})

	require.Len(t, acks, 2)
	assert.True(t, acks[0].Accepted)
	assert.Empty(t, acks[0].Code)
	assert.Same(t, coin, p.Inventory().Slot(SlotRight))
	assert.False(t, acks[1].Accepted)
	assert.Equal(t, "m2", acks[1].AckFor)
}

func TestContainers_OpenMoveAndAutoClose(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)
	chest := placeItem(t, w, spawn.Offset(1, 0, 0), itemChest, 0)
	coin := putInContainer(t, w, chest.Container(), itemGold, 9)

	cid, ret := w.OpenContainer(p, chest)
	require.Equal(t, OK, ret)
	assert.Same(t, chest.Container(), p.ContainerByID(cid))
	again, _ := w.OpenContainer(p, chest)
	assert.Equal(t, cid, again)

	var r recorder
	w.PlayerMoveItem(p, MoveItemRequest{
		From:     ContainerPosition(cid, 0),
		ItemType: itemGold,
		To:       InventoryPosition(SlotWhereever),
		Count:    9,
	}, r.done)
	require.Equal(t, []Outcome{OK}, r.got)
	assert.Same(t, p.Inventory(), coin.Parent())
	assert.Empty(t, chest.Container().Items())

	far := placeItem(t, w, spawn.Offset(5, 0, 0), itemChest, 0)
	_, ret = w.OpenContainer(p, far)
	assert.Equal(t, DestinationOutOfReach, ret)

	require.Equal(t, OK, w.Teleport(p, spawn.Offset(-4, 0, 0), false))
	assert.Nil(t, p.ContainerByID(cid))
	assert.Equal(t, NotPossible, w.CloseContainer(p, cid))
}

func TestCreatures_PlaceMoveRemove(t *testing.T) {
	w := newTestWorld(t)
	p := placePlayer(t, w, "ann", spawn)

	// The spawn square is taken, so the next creature lands nearby.
	m, ret := w.PlaceCreature(CreatureSpec{Name: "rat", Kind: KindMonster, Health: 5}, spawn)
	require.Equal(t, OK, ret)
	assert.NotEqual(t, spawn, m.Position())
	assert.LessOrEqual(t, Chebyshev(spawn, m.Position()), placeSearchRadius)

	assert.Equal(t, NotPossible, w.MoveCreature(p, spawn.Offset(2, 0, 0), 0))
	require.Equal(t, OK, w.MoveCreature(p, spawn.Offset(0, -1, 0), 0))
	assert.Same(t, w.Tile(spawn.Offset(0, -1, 0)), p.Tile())

	placeItem(t, w, spawn.Offset(0, -2, 0), itemWall, 0)
	assert.Equal(t, NotPossible, w.MoveCreature(p, spawn.Offset(0, -2, 0), 0))

	w.RemoveCreature(m)
	assert.True(t, m.IsRemoved())
	assert.Nil(t, w.Creature(m.ID()))
	w.advance(1)
	assert.False(t, w.Registry().Creatures.Valid(m.Handle()))
}

func TestStepOnce_JoinAndLeave(t *testing.T) {
	w := newTestWorld(t)
	resp := make(chan JoinResponse, 1)

	w.StepOnce([]JoinRequest{{Name: "ann", Resp: resp}}, nil, nil)
	j := <-resp
	require.Empty(t, j.Code)
	assert.Equal(t, protocol.TypeWelcome, j.Welcome.Type)
	assert.Equal(t, spawn.Array(), j.Welcome.Pos)
	assert.Equal(t, w.Items().Digest, j.Welcome.ItemsDigest)
	p := w.Player(j.Welcome.PlayerID)
	require.NotNil(t, p)

	w.StepOnce(nil, []uint32{p.ID()}, nil)
	assert.Nil(t, w.Player(p.ID()))
	assert.Equal(t, uint64(2), w.CurrentTick())
}
