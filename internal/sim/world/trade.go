package world

import "github.com/sirupsen/logrus"

// RequestTrade offers it to partner. When partner already offered something
// to player, both offers are shown to both sides.
func (w *World) RequestTrade(player, partner *Creature, it *Item) Outcome {
	if player == nil || partner == nil || it == nil || player == partner || partner.IsRemoved() || !partner.IsPlayer() {
		return NotPossible
	}
	pp, tp := player.Position(), partner.Position()
	r := w.cfg.Trade.Range
	if pp.Z != tp.Z || !InRange(pp, tp, r, r) {
		return DestinationOutOfReach
	}
	if it.IsRemoved() || !it.IsPickupable() || !it.IsMovable() || it.UniqueID() != 0 {
		return NotPossible
	}
	if !Adjacent(it.Position(), pp) {
		return DestinationOutOfReach
	}
	if w.inEscrow(it) {
		return NotPossible
	}
	if it.container != nil && w.cfg.Trade.MaxItems > 0 {
		n := 0
		eachItemDeep(it.container, func(*Item) { n++ })
		if n+1 > w.cfg.Trade.MaxItems {
			return NotPossible
		}
	}

	if player.trade != tradeNone && !(player.trade == tradeAcknowledge && player.tradePartner == partner) {
		return AlreadyTrading
	}
	if partner.trade != tradeNone && partner.tradePartner != player {
		return PartnerAlreadyTrading
	}
	if !w.acquireItem(it) {
		return NotPossible
	}

	player.trade = tradeInitiated
	player.tradePartner = partner
	player.tradeItem = it
	w.tradeItems[it] = player.id

	if partner.trade == tradeNone {
		partner.trade = tradeAcknowledge
		partner.tradePartner = player
	} else if counter := partner.tradeItem; counter != nil {
		w.notify.TradeOffer(player, partner, counter, true)
		w.notify.TradeOffer(partner, player, it, true)
	}
	w.notify.TradeOffer(player, player, it, false)

	w.writeAudit(AuditEntry{Action: AuditTrade, Actor: player.id, Target: partner.id, Pos: it.Position().Array(), Item: it.def.ID, Count: it.Count(), Outcome: "OFFER"})
	w.log.WithFields(w.fields(player)).WithFields(logrus.Fields{"partner": partner.id, "item": it.def.ID}).Debug("trade offered")
	return OK
}

// AcceptTrade marks player's side as accepted. Once both sides accept the
// items change hands, or the trade is closed with the reason.
func (w *World) AcceptTrade(player *Creature) Outcome {
	if player == nil || (player.trade != tradeAcknowledge && player.trade != tradeInitiated) {
		return NotPossible
	}
	partner := player.tradePartner
	if partner == nil || partner.IsRemoved() {
		w.CloseTrade(player)
		return NotPossible
	}
	if player.tradeItem == nil {
		// Nothing offered yet.
		return NotPossible
	}
	player.trade = tradeAccepted
	if partner.trade != tradeAccepted {
		return OK
	}

	a, b := player.tradeItem, partner.tradeItem
	player.trade, partner.trade = tradeTransfer, tradeTransfer
	delete(w.tradeItems, a)
	delete(w.tradeItems, b)

	ret := w.exchangeTradeItems(player, partner, a, b)

	w.endTrade(player)
	w.endTrade(partner)
	w.releaseItem(a)
	w.releaseItem(b)

	e := AuditEntry{Action: AuditTrade, Actor: player.id, Target: partner.id, Pos: player.Position().Array(), Item: a.def.ID, Value: int(b.def.ID), Outcome: ret.String()}
	w.writeAudit(e)
	w.log.WithFields(w.fields(player)).WithFields(logrus.Fields{"partner": partner.id, "outcome": ret.String()}).Info("trade finished")
	return ret
}

// exchangeTradeItems checks both transfers before doing either. Each item
// is moved with the other one as escrow so it cannot land inside it.
func (w *World) exchangeTradeItems(player, partner *Creature, a, b *Item) Outcome {
	if a.IsRemoved() || b.IsRemoved() {
		return NotPossible
	}
	if ret, _ := w.AddItem(partner.inv, a, IndexWhereever, 0, true); ret != OK {
		return ret
	}
	if ret, _ := w.AddItem(player.inv, b, IndexWhereever, 0, true); ret != OK {
		return ret
	}
	if ret := w.RemoveItem(a, a.Count(), true, 0); ret != OK {
		return ret
	}
	if ret := w.RemoveItem(b, b.Count(), true, 0); ret != OK {
		return ret
	}
	fromA, fromB := a.parent, b.parent
	ret, _ := w.MoveItem(fromA, partner.inv, IndexWhereever, a, a.Count(), FlagIgnoreAutoStack, MoveOpts{Escrow: b})
	if ret != OK {
		return ret
	}
	ret, _ = w.MoveItem(fromB, player.inv, IndexWhereever, b, b.Count(), FlagIgnoreAutoStack, MoveOpts{Escrow: a})
	return ret
}

// CloseTrade cancels player's trade and its partner's. It does nothing while
// the items are changing hands.
func (w *World) CloseTrade(player *Creature) bool {
	if player == nil || player.trade == tradeNone {
		return false
	}
	partner := player.tradePartner
	if player.trade == tradeTransfer || (partner != nil && partner.trade == tradeTransfer) {
		return false
	}
	w.cancelTrade(player)
	if partner != nil && partner.tradePartner == player {
		w.cancelTrade(partner)
	}
	w.log.WithFields(w.fields(player)).Debug("trade closed")
	return true
}

func (w *World) cancelTrade(c *Creature) {
	if it := c.tradeItem; it != nil {
		delete(w.tradeItems, it)
		w.releaseItem(it)
	}
	w.endTrade(c)
}

func (w *World) endTrade(c *Creature) {
	c.trade = tradeNone
	c.tradeItem = nil
	c.tradePartner = nil
	w.notify.TradeClosed(c)
}

// inEscrow reports whether it is offered in a trade, or is inside or holds an
// offered item.
func (w *World) inEscrow(it *Item) bool {
	for escrow := range w.tradeItems {
		if tradeOverlaps(escrow, it) {
			return true
		}
	}
	return false
}

// closeTradesHolding cancels trades whose escrowed item is it, contains it or
// sits inside it. It is called before any change to it.
func (w *World) closeTradesHolding(it *Item) {
	if it == nil || len(w.tradeItems) == 0 {
		return
	}
	var owners []uint32
	for escrow, owner := range w.tradeItems {
		if tradeOverlaps(escrow, it) {
			owners = append(owners, owner)
		}
	}
	for _, id := range owners {
		if c := w.creatures[id]; c != nil {
			w.CloseTrade(c)
		}
	}
}

func tradeOverlaps(escrow, it *Item) bool {
	if escrow == it {
		return true
	}
	if escrow.container != nil && it.parent != nil && holdsItem(it.parent, escrow) {
		return true
	}
	return it.container != nil && escrow.parent != nil && holdsItem(escrow.parent, it)
}

// checkTradeRange closes c's trade once its offer or partner is out of reach.
func (w *World) checkTradeRange(c *Creature) {
	if c.trade == tradeNone || c.trade == tradeTransfer {
		return
	}
	pos := c.Position()
	if it := c.tradeItem; it != nil {
		ip := it.Position()
		if ip.Z != pos.Z || !InRange(ip, pos, 1, 1) {
			w.CloseTrade(c)
			return
		}
	}
	if p := c.tradePartner; p != nil {
		r := w.cfg.Trade.Range
		pp := p.Position()
		if pp.Z != pos.Z || !InRange(pp, pos, r, r) {
			w.CloseTrade(c)
		}
	}
}
