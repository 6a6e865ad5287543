package world

import (
	"context"
	"time"

	"tilecraft.ai/internal/metrics"
	"tilecraft.ai/internal/protocol"
)

// New players start with these.
const (
	playerHealth   = 150
	playerMana     = 50
	playerCapacity = 40000
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []uint32
	var pendingCalls []call

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case c := <-w.calls:
			pendingCalls = append(pendingCalls, c)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			for _, c := range pendingCalls {
				c.fn(w)
				close(c.done)
			}
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingCalls = pendingCalls[:0]
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick with the same ordering as the
// loop. It is meant for tests and tools that drive the world directly.
func (w *World) StepOnce(joins []JoinRequest, leaves []uint32, actions []ActionEnvelope) uint64 {
	tick := w.tick.Load()
	w.step(joins, leaves, actions)
	return tick
}

func (w *World) step(joins []JoinRequest, leaves []uint32, actions []ActionEnvelope) {
	start := time.Now()
	now := w.tick.Load()

	// Leaves and joins apply at the tick boundary, before any command.
	for _, id := range leaves {
		if c := w.Player(id); c != nil {
			w.RemoveCreature(c)
		}
	}
	for _, req := range joins {
		resp := w.joinPlayer(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}

	w.stepWalkers()
	w.runDue(now)

	// Commands run in inbox order.
	for _, env := range actions {
		w.handleAct(env)
	}

	if every := w.cfg.DecayEveryTicks(); every > 0 && now%every == 0 {
		w.wheel.Service()
	}
	w.cleanup()

	metrics.Tick.Set(float64(now))
	metrics.DecayingItems.Set(float64(w.wheel.Len()))
	metrics.PendingReleases.Set(float64(w.reg.Items.Pending() + w.reg.Creatures.Pending()))
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	w.tick.Add(1)
}

// cleanup places newly scheduled decays and frees what lost its last
// reference this tick. Freeing a container or a creature releases what it
// held, so the flush repeats until nothing more goes.
func (w *World) cleanup() {
	w.wheel.Commit()
	for {
		items, creatures := w.reg.Flush()
		if len(items) == 0 && len(creatures) == 0 {
			return
		}
		for _, it := range items {
			if it.container == nil {
				continue
			}
			for _, child := range it.container.items {
				child.parent = nil
				w.releaseItem(child)
			}
			it.container.items = nil
		}
		for _, c := range creatures {
			if c.inv == nil {
				continue
			}
			for s := slotFirst; s <= slotLast; s++ {
				if it := c.inv.slots[s]; it != nil {
					c.inv.slots[s] = nil
					it.parent = nil
					w.releaseItem(it)
				}
			}
		}
	}
}

func (w *World) joinPlayer(req JoinRequest) JoinResponse {
	c, ret := w.PlaceCreature(CreatureSpec{
		Name:     req.Name,
		Kind:     KindPlayer,
		Health:   playerHealth,
		Mana:     playerMana,
		Capacity: playerCapacity,
	}, w.spawnPosition())
	if ret != OK {
		w.log.WithFields(w.fields(nil)).WithField("name", req.Name).Warn("no free tile at spawn")
		return JoinResponse{Code: protocol.ErrWorldBusy}
	}
	c.out = req.Out
	return JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        c.id,
		Tick:            w.tick.Load(),
		Pos:             c.Position().Array(),
		WorldParams: protocol.WorldParams{
			TickRateHz:      w.cfg.TickRateHz,
			DecayIntervalMs: w.cfg.Decay.IntervalMs,
			ViewRangeX:      w.cfg.Spectators.RangeX,
			ViewRangeY:      w.cfg.Spectators.RangeY,
		},
		ItemsDigest: w.items.Digest,
	}}
}
