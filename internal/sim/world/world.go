package world

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/decay"
	"tilecraft.ai/internal/sim/registry"
	"tilecraft.ai/internal/sim/tasks"
	"tilecraft.ai/internal/sim/tuning"
)

type Registry = registry.Registry[*Item, *Creature]

type HandleRef = registry.Handle

func NewRegistry() *Registry { return registry.New[*Item, *Creature]() }

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	// Code is set when the player could not be placed.
	Code string
}

// ActionEnvelope carries one client command into the world loop. Ack is
// called on the world goroutine once the command has an outcome; commands
// parked behind a walk or the action delay are acked when they finally run.
type ActionEnvelope struct {
	PlayerID uint32
	Act      protocol.ActMsg
	Ack      func(protocol.AckMsg)
}

type call struct {
	fn   func(*World)
	done chan struct{}
}

// Deps are the collaborators the engines consume. Nil members fall back to
// no-op or built-in defaults.
type Deps struct {
	Rules      Rules
	Notifier   Notifier
	Spectators Spectators
	Pathing    Pathing
	Sight      Sight
	Audit      AuditLogger
	Log        logrus.FieldLogger
	Registry   *Registry
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg   tuning.Tuning
	cats  *catalogs.Catalogs
	items *catalogs.ItemCatalog
	reg   *Registry

	tick atomic.Uint64

	tiles     map[Position]*Tile
	creatures map[uint32]*Creature

	wheel *decay.Wheel[HandleRef]
	tasks *tasks.Scheduler

	// tradeItems maps escrowed items to the id of the player offering them.
	tradeItems map[*Item]uint32

	rules      Rules
	notify     Notifier
	spectators Spectators
	pathing    Pathing
	sight      Sight
	audit      AuditLogger
	log        logrus.FieldLogger
	rng        *rand.Rand

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan uint32
	calls chan call
	stop  chan struct{}

	nextPlayerNum  uint32
	nextMonsterNum uint32
	nextNpcNum     uint32
}

func New(cfg tuning.Tuning, cats *catalogs.Catalogs, deps Deps) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	if cats == nil {
		return nil, fmt.Errorf("world: nil catalogs")
	}
	w := &World{
		cfg:        cfg,
		cats:       cats,
		items:      &cats.Items,
		reg:        deps.Registry,
		tiles:      map[Position]*Tile{},
		creatures:  map[uint32]*Creature{},
		tasks:      tasks.NewScheduler(),
		tradeItems: map[*Item]uint32{},
		rules:      deps.Rules,
		notify:     deps.Notifier,
		spectators: deps.Spectators,
		pathing:    deps.Pathing,
		sight:      deps.Sight,
		audit:      deps.Audit,
		log:        deps.Log,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		inbox:      make(chan ActionEnvelope, 1024),
		join:       make(chan JoinRequest, 64),
		leave:      make(chan uint32, 64),
		calls:      make(chan call, 16),
		stop:       make(chan struct{}),
	}
	if w.reg == nil {
		w.reg = NewRegistry()
	}
	if w.rules == nil {
		w.rules = NopRules{}
	}
	if w.notify == nil {
		w.notify = NopNotifier{}
	}
	if w.spectators == nil {
		w.spectators = rangeSpectators{w: w}
	}
	if w.pathing == nil {
		w.pathing = gridPathing{w: w}
	}
	if w.sight == nil {
		w.sight = lineSight{w: w}
	}
	if w.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		w.log = l
	}
	wheel, err := decay.NewWheel[HandleRef](int64(cfg.Decay.IntervalMs), cfg.Decay.Buckets, decayHost{w: w})
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	w.wheel = wheel
	return w, nil
}

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- uint32         { return w.leave }

func (w *World) CurrentTick() uint64          { return w.tick.Load() }
func (w *World) Tuning() tuning.Tuning        { return w.cfg }
func (w *World) Items() *catalogs.ItemCatalog { return w.items }
func (w *World) Registry() *Registry          { return w.reg }

// Do runs fn on the world goroutine at the next tick boundary and waits for
// it to finish.
func (w *World) Do(ctx context.Context, fn func(*World)) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case w.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tile returns nil where the map has no tile.
func (w *World) Tile(pos Position) *Tile {
	return w.tiles[pos]
}

// EnsureTile returns the tile at pos, creating an empty one.
func (w *World) EnsureTile(pos Position) *Tile {
	if t := w.tiles[pos]; t != nil {
		return t
	}
	t := &Tile{world: w, pos: pos}
	w.tiles[pos] = t
	return t
}

// BuildPlain lays ground item groundID over the rectangle [x0,x1]x[y0,y1] on
// floor z. Map loading proper lives outside the world; this is for tools,
// tests and the default starter map.
func (w *World) BuildPlain(x0, y0, x1, y1, z int, groundID uint16) error {
	def, ok := w.items.Get(groundID)
	if !ok || !def.IsGround() {
		return fmt.Errorf("world: %d is not a ground item", groundID)
	}
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			t := w.EnsureTile(Position{X: x, Y: y, Z: z})
			if t.ground != nil {
				continue
			}
			g := w.CreateItem(groundID, 0)
			g.parent = t
			t.ground = g
		}
	}
	return nil
}

// PlaceItem creates an item of type id on the map at pos, ignoring room
// checks, and starts its decay.
func (w *World) PlaceItem(pos Position, id uint16, count int) (*Item, Outcome) {
	t := w.EnsureTile(pos)
	it := w.CreateItem(id, count)
	if it == nil {
		return nil, NotPossible
	}
	if ret, _ := w.AddItem(t, it, IndexWhereever, FlagNoLimit, false); ret != OK {
		w.discard(it)
		return nil, ret
	}
	return it, OK
}

func (w *World) Creature(id uint32) *Creature {
	c := w.creatures[id]
	if c == nil || c.removed {
		return nil
	}
	return c
}

func (w *World) Player(id uint32) *Creature {
	if c := w.Creature(id); c != nil && c.IsPlayer() {
		return c
	}
	return nil
}

// sortedCreatures iterates in id order so that rolls and notifications are
// reproducible across runs.
func (w *World) sortedCreatures() []*Creature {
	out := make([]*Creature, 0, len(w.creatures))
	for _, c := range w.creatures {
		if !c.removed {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (w *World) uniform(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + w.rng.Intn(hi-lo+1)
}

func (w *World) fields(actor *Creature) logrus.Fields {
	f := logrus.Fields{"tick": w.tick.Load()}
	if actor != nil {
		f["actor"] = actor.id
	}
	return f
}
