package ws

import (
	"encoding/json"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/world"
)

// Fanout is the world's notifier. It encodes each event once and queues it on
// every observing player's outbound channel. It runs on the world goroutine.
type Fanout struct {
	log   logrus.FieldLogger
	clock atomic.Pointer[func() uint64]
}

var _ world.Notifier = (*Fanout)(nil)

func NewFanout(log logrus.FieldLogger) *Fanout {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fanout{log: log.WithField("component", "fanout")}
}

// SetClock sets where event ticks come from, normally World.CurrentTick.
func (f *Fanout) SetClock(tick func() uint64) { f.clock.Store(&tick) }

func (f *Fanout) tick() uint64 {
	if c := f.clock.Load(); c != nil {
		return (*c)()
	}
	return 0
}

func (f *Fanout) encode(ev protocol.EventMsg) []byte {
	ev.Type = protocol.TypeEvent
	ev.Tick = f.tick()
	b, err := json.Marshal(ev)
	if err != nil {
		f.log.WithError(err).WithField("kind", ev.Kind).Warn("encode event")
		return nil
	}
	return b
}

func (f *Fanout) broadcast(obs []*world.Creature, ev protocol.EventMsg) {
	var b []byte
	for _, c := range obs {
		if !c.IsPlayer() || c.Out() == nil {
			continue
		}
		if b == nil {
			if b = f.encode(ev); b == nil {
				return
			}
		}
		send(c.Out(), b)
	}
}

func (f *Fanout) unicast(c *world.Creature, ev protocol.EventMsg) {
	if c == nil || c.Out() == nil {
		return
	}
	if b := f.encode(ev); b != nil {
		send(c.Out(), b)
	}
}

func posPtr(p world.Position) *[3]int {
	a := p.Array()
	return &a
}

func intPtr(v int) *int { return &v }

func itemView(it *world.Item) *protocol.ItemView {
	if it == nil {
		return nil
	}
	return &protocol.ItemView{ID: it.ID(), Count: it.Count()}
}

func creatureView(c *world.Creature) *protocol.CreatureView {
	return &protocol.CreatureView{
		ID:            c.ID(),
		Name:          c.Name(),
		HealthPercent: c.HealthPercent(),
		Pos:           c.Position().Array(),
	}
}

func (f *Fanout) CreatureAppeared(obs []*world.Creature, c *world.Creature) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventCreatureAppeared, Pos: posPtr(c.Position()), Creature: creatureView(c)})
}

func (f *Fanout) CreatureDisappeared(obs []*world.Creature, c *world.Creature, pos world.Position, stackPos int) {
	f.broadcast(obs, protocol.EventMsg{
		Kind:     protocol.EventCreatureDisappeared,
		Pos:      posPtr(pos),
		StackPos: intPtr(stackPos),
		Creature: &protocol.CreatureView{ID: c.ID(), Name: c.Name(), Pos: pos.Array()},
	})
}

func (f *Fanout) CreatureMoved(obs []*world.Creature, c *world.Creature, from world.Position, fromStack int, to world.Position, teleport bool) {
	f.broadcast(obs, protocol.EventMsg{
		Kind:     protocol.EventCreatureMoved,
		Pos:      posPtr(from),
		To:       posPtr(to),
		StackPos: intPtr(fromStack),
		Creature: creatureView(c),
		Teleport: teleport,
	})
}

func (f *Fanout) TileThingAdded(obs []*world.Creature, pos world.Position, stackPos int, it *world.Item) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventTileAdd, Pos: posPtr(pos), StackPos: intPtr(stackPos), Item: itemView(it)})
}

func (f *Fanout) TileThingRemoved(obs []*world.Creature, pos world.Position, stackPos int) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventTileRemove, Pos: posPtr(pos), StackPos: intPtr(stackPos)})
}

func (f *Fanout) TileThingUpdated(obs []*world.Creature, pos world.Position, stackPos int, it *world.Item) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventTileUpdate, Pos: posPtr(pos), StackPos: intPtr(stackPos), Item: itemView(it)})
}

// ContainerUpdated is addressed per observer since container ids are private
// to each player.
func (f *Fanout) ContainerUpdated(obs []*world.Creature, ct *world.Container, change world.ContainerChange, index int, it *world.Item) {
	for _, c := range obs {
		cid := c.ContainerID(ct)
		if cid < 0 {
			continue
		}
		f.unicast(c, protocol.EventMsg{
			Kind:      protocol.EventContainerUpdate,
			Container: uint32(cid),
			Change:    change.String(),
			StackPos:  intPtr(index),
			Item:      itemView(it),
		})
	}
}

func (f *Fanout) InventoryUpdated(owner *world.Creature, slot world.Slot, it *world.Item) {
	f.unicast(owner, protocol.EventMsg{Kind: protocol.EventInventoryUpdate, Slot: int(slot), Item: itemView(it)})
}

func (f *Fanout) CreatureHealthChanged(obs []*world.Creature, c *world.Creature) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventHealth, Creature: creatureView(c)})
}

func (f *Fanout) PlayerStatsChanged(c *world.Creature) {
	f.unicast(c, protocol.EventMsg{Kind: protocol.EventPlayerStats, Stats: &protocol.StatsView{
		Health:    c.Health(),
		MaxHealth: c.MaxHealth(),
		Mana:      c.Mana(),
		MaxMana:   c.MaxMana(),
	}})
}

func (f *Fanout) AnimatedText(obs []*world.Creature, pos world.Position, color world.TextColor, text string) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventAnimatedText, Pos: posPtr(pos), Color: int(color), Text: text})
}

func (f *Fanout) MagicEffect(obs []*world.Creature, pos world.Position, effect world.Effect) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventMagicEffect, Pos: posPtr(pos), Effect: int(effect)})
}

func (f *Fanout) DistanceEffect(obs []*world.Creature, from, to world.Position, effect world.Effect) {
	f.broadcast(obs, protocol.EventMsg{Kind: protocol.EventDistanceEffect, Pos: posPtr(from), To: posPtr(to), Effect: int(effect)})
}

func (f *Fanout) TradeOffer(to, owner *world.Creature, it *world.Item, counter bool) {
	change := "offer"
	if counter {
		change = "counter"
	}
	f.unicast(to, protocol.EventMsg{Kind: protocol.EventTradeOffer, Creature: creatureView(owner), Item: itemView(it), Change: change})
}

func (f *Fanout) TradeClosed(to *world.Creature) {
	f.unicast(to, protocol.EventMsg{Kind: protocol.EventTradeClose})
}
