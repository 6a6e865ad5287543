package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelOutcome = "outcome"
	LabelKind    = "kind"
	LabelResult  = "result"
)

// World loop
var (
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tilecraft_tick_duration_seconds",
			Help:    "Time spent stepping one world tick.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	Tick = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilecraft_tick",
			Help: "Current world tick.",
		},
	)

	PendingReleases = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilecraft_pending_releases",
			Help: "Entity references queued for end-of-tick release.",
		},
	)

	DecayingItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilecraft_decaying_items",
			Help: "Items registered in the decay wheel.",
		},
	)

	TasksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tilecraft_tasks_dropped_total",
			Help: "Tasks rejected because the world inbox was full.",
		},
	)
)

// Engine
var (
	Moves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tilecraft_item_moves_total",
			Help: "Item move requests by outcome.",
		},
		[]string{LabelOutcome},
	)

	CombatEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tilecraft_combat_events_total",
			Help: "Applied combat changes by kind.",
		},
		[]string{LabelKind},
	)

	DecayExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tilecraft_decay_expired_total",
			Help: "Items that reached the end of their duration.",
		},
	)
)

// Transport
var (
	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilecraft_sessions",
			Help: "Connected websocket sessions.",
		},
	)

	ReplayedActs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tilecraft_replayed_acts_total",
			Help: "Commands answered from the dedupe cache.",
		},
	)

	DroppedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tilecraft_dropped_messages_total",
			Help: "Outbound messages dropped for slow clients.",
		},
	)
)

// Object storage mirror
var (
	MirrorUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tilecraft_mirror_uploads_total",
			Help: "Finished log files handed to the object storage mirror, by result.",
		},
		[]string{LabelResult},
	)

	MirrorQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilecraft_mirror_queue_depth",
			Help: "Files waiting for upload.",
		},
	)
)
