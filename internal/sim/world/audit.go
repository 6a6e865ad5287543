package world

// AuditEntry is one applied world change. Failed requests are not audited.
type AuditEntry struct {
	Tick    uint64 `json:"tick"`
	Actor   uint32 `json:"actor,omitempty"`
	Action  string `json:"action"`
	Pos     [3]int `json:"pos"`
	To      [3]int `json:"to,omitempty"`
	Item    uint16 `json:"item,omitempty"`
	Count   int    `json:"count,omitempty"`
	Target  uint32 `json:"target,omitempty"`
	Value   int    `json:"value,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

const (
	AuditMove      = "MOVE"
	AuditAdd       = "ADD"
	AuditRemove    = "REMOVE"
	AuditTransform = "TRANSFORM"
	AuditDecay     = "DECAY"
	AuditDamage    = "DAMAGE"
	AuditHeal      = "HEAL"
	AuditMana      = "MANA"
	AuditDeath     = "DEATH"
	AuditTrade     = "TRADE"
)

// AuditLogger receives entries on the world goroutine. Implementations must
// not block.
type AuditLogger interface {
	WriteAudit(e AuditEntry) error
}

func (w *World) auditItem(action string, actor *Creature, it *Item, count int, from, to Position) {
	e := AuditEntry{Action: action, Pos: from.Array(), To: to.Array(), Count: count}
	if it != nil {
		e.Item = it.def.ID
	}
	if actor != nil {
		e.Actor = actor.id
	}
	w.writeAudit(e)
}

func (w *World) writeAudit(e AuditEntry) {
	if w.audit == nil {
		return
	}
	e.Tick = w.tick.Load()
	if err := w.audit.WriteAudit(e); err != nil {
		w.log.WithFields(w.fields(nil)).WithError(err).Warn("audit write failed")
	}
}
