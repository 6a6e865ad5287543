package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/world"
)

func TestSend_DropsOldest(t *testing.T) {
	out := make(chan []byte, 2)
	send(out, []byte("a"))
	send(out, []byte("b"))
	send(out, []byte("c"))

	require.Len(t, out, 2)
	assert.Equal(t, "b", string(<-out))
	assert.Equal(t, "c", string(<-out))

	send(nil, []byte("x"))
}

func join(t *testing.T, w *world.World, name string) (*world.Creature, chan []byte) {
	t.Helper()
	out := make(chan []byte, 64)
	resp := make(chan world.JoinResponse, 1)
	w.StepOnce([]world.JoinRequest{{Name: name, Out: out, Resp: resp}}, nil, nil)
	j := <-resp
	require.Empty(t, j.Code)
	return w.Player(j.Welcome.PlayerID), out
}

func drain(out chan []byte) []protocol.EventMsg {
	var evs []protocol.EventMsg
	for {
		select {
		case b := <-out:
			var ev protocol.EventMsg
			if json.Unmarshal(b, &ev) == nil {
				evs = append(evs, ev)
			}
		default:
			return evs
		}
	}
}

func kinds(evs []protocol.EventMsg) []string {
	var ks []string
	for _, ev := range evs {
		ks = append(ks, ev.Kind)
	}
	return ks
}

func TestFanout_BroadcastsToObservers(t *testing.T) {
	w := newWorld(t)
	ann, annOut := join(t, w, "ann")
	_, bobOut := join(t, w, "bob")

	assert.Contains(t, kinds(drain(annOut)), protocol.EventCreatureAppeared, "ann sees bob arrive")
	drain(bobOut)

	_, ret := w.PlaceItem(ann.Position().Offset(1, 0, 0), 201, 3)
	require.Equal(t, world.OK, ret)

	for _, out := range []chan []byte{annOut, bobOut} {
		evs := drain(out)
		require.Len(t, evs, 1)
		ev := evs[0]
		assert.Equal(t, protocol.TypeEvent, ev.Type)
		assert.Equal(t, protocol.EventTileAdd, ev.Kind)
		assert.Equal(t, w.CurrentTick(), ev.Tick)
		require.NotNil(t, ev.Item)
		assert.Equal(t, uint16(201), ev.Item.ID)
		assert.Equal(t, 3, ev.Item.Count)
	}
}

func TestFanout_ContainerEventsUseObserverIDs(t *testing.T) {
	w := newWorld(t)
	ann, annOut := join(t, w, "ann")
	_, bobOut := join(t, w, "bob")
	chest, ret := w.PlaceItem(ann.Position().Offset(0, 1, 0), 303, 0)
	require.Equal(t, world.OK, ret)

	cid, ret := w.OpenContainer(ann, chest)
	require.Equal(t, world.OK, ret)
	drain(annOut)
	drain(bobOut)

	coin := w.CreateItem(201, 4)
	require.NotNil(t, coin)
	ret, _ = w.AddItem(chest.Container(), coin, world.IndexWhereever, 0, false)
	require.Equal(t, world.OK, ret)

	evs := drain(annOut)
	require.Len(t, evs, 1)
	assert.Equal(t, protocol.EventContainerUpdate, evs[0].Kind)
	assert.Equal(t, uint32(cid), evs[0].Container)
	assert.Equal(t, world.ContainerAdd.String(), evs[0].Change)
	assert.Empty(t, drain(bobOut), "bob has not opened the chest")
}

func TestFanout_PlayerStats(t *testing.T) {
	w := newWorld(t)
	ann, out := join(t, w, "ann")
	drain(out)

	d := &world.CombatDamage{Primary: world.DamageComponent{Type: world.CombatManaDrain, Value: -10}}
	require.Equal(t, world.OK, w.ChangeMana(nil, ann, d))

	var stats *protocol.StatsView
	for _, ev := range drain(out) {
		if ev.Kind == protocol.EventPlayerStats {
			stats = ev.Stats
		}
	}
	require.NotNil(t, stats)
	assert.Equal(t, ann.Mana(), stats.Mana)
	assert.Equal(t, ann.MaxHealth(), stats.MaxHealth)
}
