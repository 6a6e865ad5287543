package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// World routing/state.
	ErrWorldBusy = "E_WORLD_BUSY"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNotPossible   = "E_NOT_POSSIBLE"
	ErrNoCapacity    = "E_NO_CAPACITY"
	ErrNoRoom        = "E_NO_ROOM"
	ErrNotMovable    = "E_NOT_MOVABLE"
	ErrNotPickupable = "E_NOT_PICKUPABLE"
	ErrOutOfReach    = "E_OUT_OF_REACH"
	ErrNoLineOfSight = "E_NO_LINE_OF_SIGHT"
	ErrNoPath        = "E_NO_PATH"
	ErrTradeBusy     = "E_TRADE_BUSY"
	ErrNoMoney       = "E_NO_MONEY"
	ErrWrongFloor    = "E_WRONG_FLOOR"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrBadRequest:      {},
	ErrNotPossible:     {},
	ErrNoCapacity:      {},
	ErrNoRoom:          {},
	ErrNotMovable:      {},
	ErrNotPickupable:   {},
	ErrOutOfReach:      {},
	ErrNoLineOfSight:   {},
	ErrNoPath:          {},
	ErrTradeBusy:       {},
	ErrNoMoney:         {},
	ErrWrongFloor:      {},
	ErrRateLimit:       {},
	ErrInvalidTarget:   {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
