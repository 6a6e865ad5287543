package world

import "github.com/sirupsen/logrus"

// placeSearchRadius bounds the search for a free tile around a spawn point.
const placeSearchRadius = 2

func (w *World) spawnPosition() Position {
	return PositionFromArray(w.cfg.Spawn)
}

// PlaceCreature puts a new creature on the first free tile at or around pos.
func (w *World) PlaceCreature(spec CreatureSpec, pos Position) (*Creature, Outcome) {
	t := w.freeTileNear(pos)
	if t == nil {
		return nil, NotPossible
	}
	c := w.newCreature(spec)
	t.addCreature(c)
	w.creatures[c.id] = c
	w.notify.CreatureAppeared(w.tileObservers(t.pos), c)
	w.log.WithFields(w.fields(c)).WithFields(logrus.Fields{"kind": c.kind.String(), "pos": t.pos.String()}).Info("creature placed")
	return c, OK
}

func (w *World) freeTileNear(pos Position) *Tile {
	for r := 0; r <= placeSearchRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				t := w.Tile(pos.Offset(dx, dy, 0))
				if t != nil && t.queryAddCreature(nil, 0) == OK {
					return t
				}
			}
		}
	}
	return nil
}

// RemoveCreature takes c off the map. Its handle is released at the end of
// the tick, and with it anything it carries.
func (w *World) RemoveCreature(c *Creature) {
	if c == nil || c.removed {
		return
	}
	w.CloseTrade(c)
	w.tasks.Cancel(c.id)
	c.walk = nil
	for _, cid := range c.OpenContainerIDs() {
		w.CloseContainer(c, cid)
	}
	if t := c.tile; t != nil {
		pos := t.pos
		stack := t.CreatureIndex(c)
		obs := w.tileObservers(pos)
		t.removeCreature(c)
		w.notify.CreatureDisappeared(obs, c, pos, stack)
	}
	c.removed = true
	delete(w.creatures, c.id)
	w.reg.Creatures.Release(c.handle)
	w.log.WithFields(w.fields(c)).Info("creature removed")
}

// creatureTarget follows floor changes from t, at most MaxDestinationHops
// times.
func (w *World) creatureTarget(t *Tile) (*Tile, Outcome) {
	for hops := 0; ; hops++ {
		next := t.creatureDestination()
		if next == t {
			return t, OK
		}
		if hops >= w.cfg.MaxDestinationHops {
			return nil, NotPossible
		}
		t = next
	}
}

// MoveCreature steps c onto a neighbouring tile.
func (w *World) MoveCreature(c *Creature, to Position, flags Flags) Outcome {
	if c == nil || c.IsRemoved() {
		return NotPossible
	}
	from := c.Position()
	if !Adjacent(from, to) || from == to {
		return NotPossible
	}
	t := w.Tile(to)
	if t == nil {
		return NotPossible
	}
	dest, ret := w.creatureTarget(t)
	if ret != OK {
		return ret
	}
	if ret := dest.queryAddCreature(c, flags); ret != OK {
		return ret
	}
	w.relocate(c, dest, false)
	return OK
}

// Teleport moves c to pos regardless of distance or blocking.
func (w *World) Teleport(c *Creature, pos Position, push bool) Outcome {
	if c == nil || c.IsRemoved() {
		return NotPossible
	}
	t := w.Tile(pos)
	if t == nil {
		return NotPossible
	}
	dest, ret := w.creatureTarget(t)
	if ret != OK {
		return ret
	}
	if dest == c.tile {
		return OK
	}
	if ret := dest.queryAddCreature(c, FlagNoLimit); ret != OK {
		return ret
	}
	w.relocate(c, dest, !push)
	return OK
}

func (w *World) relocate(c *Creature, dest *Tile, teleport bool) {
	src := c.tile
	from := src.pos
	stack := src.CreatureIndex(c)
	obs := w.tileObservers(from)
	for _, o := range w.tileObservers(dest.pos) {
		if !containsCreature(obs, o) {
			obs = append(obs, o)
		}
	}
	src.removeCreature(c)
	dest.addCreature(c)
	w.notify.CreatureMoved(obs, c, from, stack, dest.pos, teleport)

	w.closeDistantContainers(c)
	w.checkTradeRange(c)
	if p := c.tradePartner; p != nil {
		w.checkTradeRange(p)
	}
}

// OpenContainer gives the container item it a container id for player. An
// already open container keeps its id.
func (w *World) OpenContainer(player *Creature, it *Item) (uint8, Outcome) {
	if player == nil || !player.IsPlayer() || it == nil || it.container == nil || it.IsRemoved() {
		return 0, NotPossible
	}
	if !w.canReachContainer(player, it.container) {
		return 0, DestinationOutOfReach
	}
	if id := player.ContainerID(it.container); id >= 0 {
		return uint8(id), OK
	}
	for cid := uint8(0); cid < MaxOpenContainers; cid++ {
		if _, used := player.open[cid]; !used {
			player.open[cid] = it.container
			w.notify.ContainerUpdated([]*Creature{player}, it.container, ContainerOpen, int(cid), it)
			return cid, OK
		}
	}
	return 0, NotPossible
}

func (w *World) CloseContainer(player *Creature, cid uint8) Outcome {
	if player == nil {
		return NotPossible
	}
	ct, ok := player.open[cid]
	if !ok {
		return NotPossible
	}
	delete(player.open, cid)
	w.notify.ContainerUpdated([]*Creature{player}, ct, ContainerClose, int(cid), nil)
	return OK
}

// canReachContainer holds for containers the player carries, and for
// containers on or in a neighbouring map tile.
func (w *World) canReachContainer(player *Creature, ct *Container) bool {
	if ct.IsRemoved() {
		return false
	}
	if owner := carrierOf(ct); owner != nil {
		return owner == player
	}
	return Adjacent(ct.Position(), player.Position())
}

// autoCloseContainers closes, for every player, the open containers that are
// it or nested in it once they are out of that player's reach.
func (w *World) autoCloseContainers(it *Item) {
	if it == nil || it.container == nil {
		return
	}
	for _, p := range w.sortedCreatures() {
		if len(p.open) == 0 {
			continue
		}
		for _, cid := range p.OpenContainerIDs() {
			ct := p.open[cid]
			if ct != it.container && !holdsItem(ct, it) {
				continue
			}
			if !w.canReachContainer(p, ct) {
				w.CloseContainer(p, cid)
			}
		}
	}
}

func (w *World) closeDistantContainers(player *Creature) {
	for _, cid := range player.OpenContainerIDs() {
		if !w.canReachContainer(player, player.open[cid]) {
			w.CloseContainer(player, cid)
		}
	}
}
