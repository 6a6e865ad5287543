package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	PlayerID        uint32      `json:"player_id"`
	Tick            uint64      `json:"tick"`
	Pos             [3]int      `json:"pos"`
	WorldParams     WorldParams `json:"world_params"`
	ItemsDigest     string      `json:"items_digest"`
}

type WorldParams struct {
	TickRateHz      int `json:"tick_rate_hz"`
	DecayIntervalMs int `json:"decay_interval_ms"`
	ViewRangeX      int `json:"view_range_x"`
	ViewRangeY      int `json:"view_range_y"`
}

// Actions carried by ACT.
const (
	ActionMoveItem    = "MOVE_ITEM"
	ActionTradeOffer  = "TRADE_OFFER"
	ActionTradeAccept = "TRADE_ACCEPT"
	ActionTradeClose  = "TRADE_CLOSE"
	ActionAttack      = "ATTACK"

	ActionOpenContainer  = "OPEN_CONTAINER"
	ActionCloseContainer = "CLOSE_CONTAINER"
)

// ACT (client -> server)
//
// Positions with x == 65535 address the player's inventory: y is the slot, or
// 0x40|cid for an open container with z as the index inside it.
type ActMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	From            *[3]int `json:"from,omitempty"`
	FromStack       int     `json:"from_stack,omitempty"`
	ItemType        uint16  `json:"item_type,omitempty"`
	To              *[3]int `json:"to,omitempty"`
	Count           int     `json:"count,omitempty"`
	Target          uint32  `json:"target,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type     string `json:"type"`
	AckFor   string `json:"ack_for"`
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Tick     uint64 `json:"tick"`
}

// Event kinds carried by EVENT.
const (
	EventCreatureAppeared    = "CREATURE_APPEARED"
	EventCreatureDisappeared = "CREATURE_DISAPPEARED"
	EventCreatureMoved       = "CREATURE_MOVED"
	EventTileAdd             = "TILE_ADD"
	EventTileRemove          = "TILE_REMOVE"
	EventTileUpdate          = "TILE_UPDATE"
	EventContainerUpdate     = "CONTAINER_UPDATE"
	EventInventoryUpdate     = "INVENTORY_UPDATE"
	EventHealth              = "HEALTH"
	EventPlayerStats         = "PLAYER_STATS"
	EventAnimatedText        = "ANIMATED_TEXT"
	EventMagicEffect         = "MAGIC_EFFECT"
	EventDistanceEffect      = "DISTANCE_EFFECT"
	EventTradeOffer          = "TRADE_OFFER"
	EventTradeClose          = "TRADE_CLOSE"
)

// EVENT (server -> client)
type EventMsg struct {
	Type      string        `json:"type"`
	Tick      uint64        `json:"tick"`
	Kind      string        `json:"kind"`
	Pos       *[3]int       `json:"pos,omitempty"`
	To        *[3]int       `json:"to,omitempty"`
	StackPos  *int          `json:"stack_pos,omitempty"`
	Item      *ItemView     `json:"item,omitempty"`
	Creature  *CreatureView `json:"creature,omitempty"`
	Container uint32        `json:"container,omitempty"`
	Change    string        `json:"change,omitempty"`
	Slot      int           `json:"slot,omitempty"`
	Color     int           `json:"color,omitempty"`
	Text      string        `json:"text,omitempty"`
	Effect    int           `json:"effect,omitempty"`
	Teleport  bool          `json:"teleport,omitempty"`
	Stats     *StatsView    `json:"stats,omitempty"`
}

type ItemView struct {
	ID    uint16 `json:"id"`
	Count int    `json:"count,omitempty"`
}

type CreatureView struct {
	ID            uint32 `json:"id"`
	Name          string `json:"name"`
	HealthPercent int    `json:"health_percent"`
	Pos           [3]int `json:"pos"`
}

type StatsView struct {
	Health    int `json:"health"`
	MaxHealth int `json:"max_health"`
	Mana      int `json:"mana"`
	MaxMana   int `json:"max_mana"`
}
