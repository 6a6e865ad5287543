package world

import (
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/tasks"
)

// MoveItemRequest is a player's move as addressed by the client. Positions
// may point into the inventory or an open container.
type MoveItemRequest struct {
	From      Position
	FromStack int
	ItemType  uint16
	To        Position
	Count     int
}

// deferred is a parked request. retry runs it again from the top; done
// reports the outcome if it is superseded instead.
type deferred struct {
	retry func()
	done  func(Outcome)
}

// park holds a request until due. A request already parked under the same
// kind is answered NotPossible.
func (w *World) park(p *Creature, kind tasks.Kind, due uint64, d deferred) {
	if old, ok := w.tasks.Pending(p.id, kind); ok {
		if od, ok := old.Payload.(deferred); ok {
			od.done(NotPossible)
		}
	}
	w.tasks.Arm(p.id, kind, due, d)
}

// supersede answers every parked request of p. A new command replaces them.
func (w *World) supersede(p *Creature) {
	for _, kind := range []tasks.Kind{tasks.KindAction, tasks.KindWalk} {
		if c, ok := w.tasks.Pending(p.id, kind); ok {
			w.tasks.CancelKind(p.id, kind)
			if d, ok := c.Payload.(deferred); ok {
				d.done(NotPossible)
			}
		}
	}
	p.walk = nil
}

func (w *World) runDue(now uint64) {
	for _, c := range w.tasks.Due(now) {
		d, ok := c.Payload.(deferred)
		if !ok {
			continue
		}
		if w.Creature(c.Actor) == nil {
			d.done(NotPossible)
			continue
		}
		d.retry()
	}
}

// PlayerMoveItem runs a client move for p. done is called once, possibly on
// a later tick when the request had to wait for the action delay or a walk.
func (w *World) PlayerMoveItem(p *Creature, req MoveItemRequest, done func(Outcome)) {
	w.playerMoveItem(p, req, false, done)
}

func (w *World) playerMoveItem(p *Creature, req MoveItemRequest, walked bool, done func(Outcome)) {
	if p == nil || p.IsRemoved() || !p.IsPlayer() {
		done(NotPossible)
		return
	}
	now := w.tick.Load()
	if p.nextActionTick > now {
		w.park(p, tasks.KindAction, p.nextActionTick, deferred{
			retry: func() { w.playerMoveItem(p, req, walked, done) },
			done:  done,
		})
		return
	}

	from, it := w.thingAt(p, req.From, req.FromStack, req.ItemType)
	if it == nil || it.def.ClientID != req.ItemType {
		done(NotPossible)
		return
	}
	if !it.IsMovable() || it.UniqueID() != 0 {
		done(NotMovable)
		return
	}
	to, index := w.cylinderAt(p, req.To)
	if to == nil {
		done(NotPossible)
		return
	}

	playerPos := p.Position()
	fromPos := it.Position()
	if playerPos.Z != fromPos.Z {
		if playerPos.Z > fromPos.Z {
			done(FirstGoUpstairs)
		} else {
			done(FirstGoDownstairs)
		}
		return
	}
	if !Adjacent(playerPos, fromPos) {
		w.walkThenRetry(p, fromPos, walked, done, func() { w.playerMoveItem(p, req, true, done) })
		return
	}

	toPos := to.Position()
	a := w.cfg.Actions
	if abs(playerPos.X-toPos.X) > a.ThrowRangeX || abs(playerPos.Y-toPos.Y) > a.ThrowRangeY || abs(fromPos.Z-toPos.Z)*4 > a.ThrowRangeX {
		done(DestinationOutOfReach)
		return
	}
	if !w.sight.Clear(fromPos, toPos) {
		done(CannotThrow)
		return
	}

	count := req.Count
	if count <= 0 {
		count = it.Count()
	}
	ret, moved := w.MoveItem(from, to, index, it, count, 0, MoveOpts{Actor: p, FromPos: &req.From, ToPos: &req.To})
	if moved != nil {
		p.nextActionTick = now + w.cfg.MsToTicks(a.ActionDelayMs)
	}
	done(ret)
}

// walkThenRetry sends p towards pos and parks retry until the walk has had
// time to progress. A request that already walked and still is not there
// fails with ThereIsNoWay.
func (w *World) walkThenRetry(p *Creature, pos Position, walked bool, done func(Outcome), retry func()) {
	if walked && len(p.walk) == 0 {
		done(ThereIsNoWay)
		return
	}
	if len(p.walk) == 0 {
		path, ok := w.pathing.PathTo(p, pos)
		if !ok || len(path) == 0 {
			done(ThereIsNoWay)
			return
		}
		p.walk = path
	}
	due := w.tick.Load() + max(w.cfg.MsToTicks(w.cfg.Actions.WalkRetryMs), 1)
	w.park(p, tasks.KindWalk, due, deferred{retry: retry, done: done})
}

// stepWalkers advances every walking creature by one square.
func (w *World) stepWalkers() {
	for _, c := range w.sortedCreatures() {
		if len(c.walk) == 0 {
			continue
		}
		next := c.walk[0]
		c.walk = c.walk[1:]
		if ret := w.MoveCreature(c, next, 0); ret != OK {
			c.walk = nil
		}
	}
}

// thingAt resolves a client position to the item there and its holder.
// Map positions use the stack position, falling back to the topmost movable
// item of the expected type.
func (w *World) thingAt(p *Creature, pos Position, stack int, itemType uint16) (Cylinder, *Item) {
	if pos.IsInventory() {
		if cid, index, ok := pos.ContainerRef(); ok {
			ct := p.ContainerByID(cid)
			if ct == nil {
				return nil, nil
			}
			return ct, ct.ItemAt(index)
		}
		if s, ok := pos.InventorySlot(); ok && p.inv != nil {
			return p.inv, p.inv.Slot(s)
		}
		return nil, nil
	}
	t := w.Tile(pos)
	if t == nil {
		return nil, nil
	}
	if it := t.ItemAt(stack); it != nil && it.def.ClientID == itemType {
		return t, it
	}
	for _, it := range []*Item{t.TopDownItem(), t.TopItem()} {
		if it != nil && it.def.ClientID == itemType {
			return t, it
		}
	}
	return t, nil
}

// cylinderAt resolves a client destination and the index inside it.
func (w *World) cylinderAt(p *Creature, pos Position) (Cylinder, int) {
	if pos.IsInventory() {
		if cid, index, ok := pos.ContainerRef(); ok {
			if ct := p.ContainerByID(cid); ct != nil {
				return ct, index
			}
			return nil, 0
		}
		if p.inv == nil {
			return nil, 0
		}
		if s, ok := pos.InventorySlot(); ok {
			return p.inv, int(s)
		}
		if Slot(pos.Y) == SlotWhereever {
			return p.inv, IndexWhereever
		}
		return nil, 0
	}
	if t := w.Tile(pos); t != nil {
		return t, IndexWhereever
	}
	return nil, 0
}

// handleAct runs one client command and answers it through env.Ack.
func (w *World) handleAct(env ActionEnvelope) {
	act := env.Act
	done := func(ret Outcome) { w.ack(env, ret) }
	p := w.Player(env.PlayerID)
	if p == nil {
		done(NotPossible)
		return
	}
	w.supersede(p)

	switch act.Action {
	case protocol.ActionMoveItem:
		if act.From == nil || act.To == nil {
			done(NotPossible)
			return
		}
		w.PlayerMoveItem(p, MoveItemRequest{
			From:      PositionFromArray(*act.From),
			FromStack: act.FromStack,
			ItemType:  act.ItemType,
			To:        PositionFromArray(*act.To),
			Count:     act.Count,
		}, done)
	case protocol.ActionTradeOffer:
		if act.From == nil {
			done(NotPossible)
			return
		}
		_, it := w.thingAt(p, PositionFromArray(*act.From), act.FromStack, act.ItemType)
		done(w.RequestTrade(p, w.Player(act.Target), it))
	case protocol.ActionTradeAccept:
		done(w.AcceptTrade(p))
	case protocol.ActionTradeClose:
		if !w.CloseTrade(p) {
			done(NotPossible)
			return
		}
		done(OK)
	case protocol.ActionAttack:
		done(w.Attack(p, w.Creature(act.Target)))
	case protocol.ActionOpenContainer:
		if act.From == nil {
			done(NotPossible)
			return
		}
		_, it := w.thingAt(p, PositionFromArray(*act.From), act.FromStack, act.ItemType)
		_, ret := w.OpenContainer(p, it)
		done(ret)
	case protocol.ActionCloseContainer:
		done(w.CloseContainer(p, uint8(act.Target)))
	default:
		done(NotPossible)
	}
}

func (w *World) ack(env ActionEnvelope, ret Outcome) {
	if ret != OK {
		w.log.WithFields(w.fields(nil)).WithFields(logrus.Fields{
			"player": env.PlayerID,
			"action": env.Act.Action,
			"code":   ret.String(),
		}).Debug("action rejected")
	}
	if env.Ack == nil {
		return
	}
	a := protocol.AckMsg{
		Type:     protocol.TypeAck,
		AckFor:   env.Act.ID,
		Accepted: ret == OK,
		Tick:     w.tick.Load(),
	}
	if ret != OK {
		a.Code = ret.Code()
		a.Message = ret.String()
	}
	env.Ack(a)
}
