package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilecraft.ai/internal/logger"
	"tilecraft.ai/internal/protocol"
)

func encode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func appeared(id uint32, x, y, z int) protocol.EventMsg {
	return protocol.EventMsg{
		Type:     protocol.TypeEvent,
		Kind:     protocol.EventCreatureAppeared,
		Creature: &protocol.CreatureView{ID: id, HealthPercent: 100, Pos: [3]int{x, y, z}},
	}
}

func TestBot_AttacksAdjacentCreature(t *testing.T) {
	b := newBot(logger.Discard())
	assert.Empty(t, b.think(), "nothing before WELCOME")

	b.handle(encode(t, protocol.WelcomeMsg{Type: protocol.TypeWelcome, PlayerID: 5, Pos: [3]int{100, 100, 7}}))
	b.handle(encode(t, appeared(9, 103, 100, 7)))
	b.handle(encode(t, appeared(8, 101, 101, 6)))
	assert.Empty(t, b.think(), "nobody adjacent on this floor")

	b.handle(encode(t, appeared(12, 101, 99, 7)))
	b.handle(encode(t, appeared(11, 99, 100, 7)))
	acts := b.think()
	require.Len(t, acts, 1)
	assert.Equal(t, protocol.ActionAttack, acts[0].Action)
	assert.Equal(t, uint32(11), acts[0].Target)

	b.handle(encode(t, protocol.EventMsg{Type: protocol.TypeEvent, Kind: protocol.EventCreatureDisappeared, Creature: &protocol.CreatureView{ID: 11}}))
	acts = b.think()
	require.Len(t, acts, 1)
	assert.Equal(t, uint32(12), acts[0].Target)
	assert.NotEqual(t, acts[0].ID, b.act(protocol.ActionAttack).ID, "act ids are unique")
}

func TestBot_AcceptsTrades(t *testing.T) {
	b := newBot(logger.Discard())
	acts := b.handle(encode(t, protocol.EventMsg{Type: protocol.TypeEvent, Kind: protocol.EventTradeOffer, Change: "offer"}))
	require.Len(t, acts, 1)
	assert.Equal(t, protocol.ActionTradeAccept, acts[0].Action)
	assert.Empty(t, b.handle([]byte("not json")))
}
