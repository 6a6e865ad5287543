package world

import (
	"strconv"

	"tilecraft.ai/internal/metrics"
)

// ChangeHealth applies d to target. Positive totals heal, negative ones
// damage; both go through the target's health hook once when d has an
// origin. NotPossible means the change was refused outright; blocked or
// absorbed damage still reports OK.
func (w *World) ChangeHealth(attacker, target *Creature, d *CombatDamage) Outcome {
	if target == nil || d == nil || target.IsRemoved() {
		return NotPossible
	}
	if d.Primary.Value > 0 {
		return w.heal(attacker, target, d)
	}
	if d.Primary.Type == CombatHealing {
		return OK
	}
	return w.damage(attacker, target, d)
}

func (w *World) heal(attacker, target *Creature, d *CombatDamage) Outcome {
	if target.IsDead() {
		return NotPossible
	}
	if blackSkullBlocked(attacker, target) {
		return NotPossible
	}
	if w.hooked(EventHealthChange, target, d) {
		w.rules.OnHealthChange(target, attacker, d)
		return w.ChangeHealth(attacker, target, d)
	}

	before := target.health
	target.health = min(target.maxHealth, target.health+d.Primary.Value)
	gained := target.health - before
	if gained == 0 {
		return OK
	}
	pos := target.Position()
	obs := w.tileObservers(pos)
	if !target.ghost {
		w.notify.AnimatedText(obs, pos, TextMayaBlue, "+"+strconv.Itoa(gained))
	}
	w.healthChanged(obs, target)
	metrics.CombatEvents.WithLabelValues("heal").Inc()
	w.auditCombat(AuditHeal, attacker, target, gained)
	return OK
}

func (w *World) damage(attacker, target *Creature, d *CombatDamage) Outcome {
	pos := target.Position()
	if target.invulnerable || target.ghost {
		if !target.ghost {
			w.notify.MagicEffect(w.tileObservers(pos), pos, EffectPoff)
		}
		return OK
	}
	if blackSkullBlocked(attacker, target) || sameFaction(attacker, target) {
		return NotPossible
	}

	primary, secondary := abs(d.Primary.Value), abs(d.Secondary.Value)
	if primary+secondary == 0 {
		return OK
	}
	if w.hooked(EventHealthChange, target, d) {
		w.rules.OnHealthChange(target, attacker, d)
		return w.ChangeHealth(attacker, target, d)
	}

	if target.manaShield && d.Primary.Type != CombatUndefined {
		absorbed := min(target.mana, primary+secondary)
		if absorbed != 0 {
			if w.hooked(EventManaChange, target, d) {
				w.rules.OnManaChange(target, attacker, d)
				primary, secondary = abs(d.Primary.Value), abs(d.Secondary.Value)
				if primary+secondary == 0 {
					return OK
				}
				absorbed = min(target.mana, primary+secondary)
			}
			target.mana -= absorbed
			obs := w.tileObservers(pos)
			w.notify.MagicEffect(obs, pos, EffectLoseEnergy)
			w.notify.AnimatedText(obs, pos, TextBlue, strconv.Itoa(-absorbed))
			if target.IsPlayer() {
				w.notify.PlayerStatsChanged(target)
			}
			metrics.CombatEvents.WithLabelValues("mana_shield").Inc()
			w.auditCombat(AuditMana, attacker, target, -absorbed)

			primary -= absorbed
			if primary < 0 {
				secondary = max(0, secondary+primary)
				primary = 0
			}
		}
	}

	d.Primary.Value, d.Secondary.Value = -primary, -secondary
	if primary+secondary == 0 {
		return OK
	}

	hp := target.health
	if primary >= hp {
		primary, secondary = hp, 0
	} else if secondary != 0 {
		secondary = min(secondary, hp-primary)
	}
	d.Primary.Value, d.Secondary.Value = -primary, -secondary
	total := primary + secondary
	if total == 0 {
		return OK
	}

	if total >= hp && w.rules.Subscribes(EventPrepareDeath, target) && !w.rules.OnPrepareDeath(target, attacker) {
		return NotPossible
	}

	obs := w.tileObservers(pos)
	w.hitEffect(obs, pos, target, d.Primary.Type, primary)
	w.hitEffect(obs, pos, target, d.Secondary.Type, secondary)

	target.health -= total
	w.healthChanged(obs, target)
	metrics.CombatEvents.WithLabelValues("damage").Inc()
	w.auditCombat(AuditDamage, attacker, target, -total)

	if target.health <= 0 {
		w.die(target, attacker)
	}
	return OK
}

// hooked reports whether the ev hook should see d, and marks it seen. Each
// hook runs at most once per damage, so a hook that applies d again does not
// re-enter itself.
func (w *World) hooked(ev HookEvent, target *Creature, d *CombatDamage) bool {
	bit := uint8(1) << ev
	if d.Origin == OriginNone || d.hooks&bit != 0 || !w.rules.Subscribes(ev, target) {
		return false
	}
	d.hooks |= bit
	return true
}

func (w *World) hitEffect(obs []*Creature, pos Position, target *Creature, t CombatType, amount int) {
	if amount == 0 {
		return
	}
	color, effect := w.typeInfo(t, target)
	if effect != EffectNone {
		w.notify.MagicEffect(obs, pos, effect)
	}
	if color != TextNone {
		w.notify.AnimatedText(obs, pos, color, strconv.Itoa(amount))
	}
}

func (w *World) healthChanged(obs []*Creature, target *Creature) {
	w.notify.CreatureHealthChanged(obs, target)
	if target.IsPlayer() {
		w.notify.PlayerStatsChanged(target)
	}
}

// ChangeMana applies the total of d to a player's mana. Other creatures have
// no mana pool and accept any change.
func (w *World) ChangeMana(attacker, target *Creature, d *CombatDamage) Outcome {
	if target == nil || d == nil || target.IsRemoved() {
		return NotPossible
	}
	if !target.IsPlayer() {
		return OK
	}
	change := d.Total()
	pos := target.Position()

	if change > 0 {
		if blackSkullBlocked(attacker, target) {
			return NotPossible
		}
		if w.hooked(EventManaChange, target, d) {
			w.rules.OnManaChange(target, attacker, d)
			return w.ChangeMana(attacker, target, d)
		}
		before := target.mana
		target.mana = min(target.maxMana, target.mana+change)
		if gained := target.mana - before; gained != 0 {
			w.notify.PlayerStatsChanged(target)
			metrics.CombatEvents.WithLabelValues("mana").Inc()
			w.auditCombat(AuditMana, attacker, target, gained)
		}
		return OK
	}

	if target.invulnerable || target.ghost {
		if !target.ghost {
			w.notify.MagicEffect(w.tileObservers(pos), pos, EffectPoff)
		}
		return NotPossible
	}
	if blackSkullBlocked(attacker, target) {
		return NotPossible
	}

	loss := min(target.mana, -change)
	if b := w.blockComponent(target, CombatManaDrain, &loss, false, false, false); b != BlockNone {
		w.notify.MagicEffect(w.tileObservers(pos), pos, EffectPoff)
		return NotPossible
	}
	if loss <= 0 {
		return OK
	}

	if w.hooked(EventManaChange, target, d) {
		w.rules.OnManaChange(target, attacker, d)
		return w.ChangeMana(attacker, target, d)
	}

	target.mana -= loss
	w.notify.AnimatedText(w.tileObservers(pos), pos, TextBlue, strconv.Itoa(-loss))
	w.notify.PlayerStatsChanged(target)
	metrics.CombatEvents.WithLabelValues("mana").Inc()
	w.auditCombat(AuditMana, attacker, target, -loss)
	return OK
}

// die removes a dead monster from the map. Players come back at the spawn
// point with full health.
func (w *World) die(target, killer *Creature) {
	metrics.CombatEvents.WithLabelValues("death").Inc()
	w.auditCombat(AuditDeath, killer, target, 0)
	w.log.WithFields(w.fields(killer)).WithField("target", target.id).Info("creature died")
	if !target.IsPlayer() {
		w.RemoveCreature(target)
		return
	}
	w.CloseTrade(target)
	target.health = target.maxHealth
	target.mana = target.maxMana
	w.tasks.Cancel(target.id)
	target.walk = nil
	if ret := w.Teleport(target, w.spawnPosition(), true); ret != OK {
		w.healthChanged(w.tileObservers(target.Position()), target)
	}
}

func (w *World) auditCombat(action string, attacker, target *Creature, value int) {
	e := AuditEntry{Action: action, Pos: target.Position().Array(), Target: target.id, Value: value}
	if attacker != nil {
		e.Actor = attacker.id
	}
	w.writeAudit(e)
}
