package world

// Attack makes attacker hit an adjacent target once. A hit that is fully
// blocked still counts as an attack.
func (w *World) Attack(attacker, target *Creature) Outcome {
	if attacker == nil || target == nil || attacker == target || attacker.IsRemoved() || target.IsRemoved() {
		return NotPossible
	}
	ap, tp := attacker.Position(), target.Position()
	if ap.Z != tp.Z {
		return NotPossible
	}
	if !Adjacent(ap, tp) {
		return DestinationOutOfReach
	}
	now := w.tick.Load()
	if attacker.nextAttackTick > now {
		return YouAreExhausted
	}
	attacker.nextAttackTick = now + w.cfg.MsToTicks(w.cfg.Actions.AttackDelayMs)

	d := CombatDamage{
		Primary: DamageComponent{Type: CombatPhysical, Value: -w.uniform(0, attacker.attack)},
		Origin:  OriginMelee,
	}
	if w.BlockHit(attacker, target, &d, true, true, false, false) {
		return OK
	}
	return w.ChangeHealth(attacker, target, &d)
}
