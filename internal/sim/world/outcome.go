package world

import "tilecraft.ai/internal/protocol"

// Outcome is the result of every transfer, combat and player action. The set
// is closed; callers branch on it instead of on errors.
type Outcome uint8

const (
	OK Outcome = iota
	NotPossible
	NotEnoughCapacity
	NotEnoughRoom
	ContainerNotEnoughRoom
	NotMovable
	NotPickupable
	DestinationOutOfReach
	CannotThrow
	ThereIsNoWay
	AlreadyTrading
	PartnerAlreadyTrading
	NeedExchange
	NotEnoughMoney
	FirstGoUpstairs
	FirstGoDownstairs
	YouAreExhausted
)

var outcomeNames = [...]string{
	OK:                     "OK",
	NotPossible:            "NOT_POSSIBLE",
	NotEnoughCapacity:      "NOT_ENOUGH_CAPACITY",
	NotEnoughRoom:          "NOT_ENOUGH_ROOM",
	ContainerNotEnoughRoom: "CONTAINER_NOT_ENOUGH_ROOM",
	NotMovable:             "NOT_MOVABLE",
	NotPickupable:          "NOT_PICKUPABLE",
	DestinationOutOfReach:  "DESTINATION_OUT_OF_REACH",
	CannotThrow:            "CANNOT_THROW",
	ThereIsNoWay:           "THERE_IS_NO_WAY",
	AlreadyTrading:         "ALREADY_TRADING",
	PartnerAlreadyTrading:  "PARTNER_ALREADY_TRADING",
	NeedExchange:           "NEED_EXCHANGE",
	NotEnoughMoney:         "NOT_ENOUGH_MONEY",
	FirstGoUpstairs:        "FIRST_GO_UPSTAIRS",
	FirstGoDownstairs:      "FIRST_GO_DOWNSTAIRS",
	YouAreExhausted:        "YOU_ARE_EXHAUSTED",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "UNKNOWN"
}

// ParseOutcome maps a name back to its outcome. Unknown names fail.
func ParseOutcome(name string) (Outcome, bool) {
	for i, n := range outcomeNames {
		if n == name {
			return Outcome(i), true
		}
	}
	return NotPossible, false
}

// Code is the stable protocol error code reported to clients.
func (o Outcome) Code() string {
	switch o {
	case OK:
		return ""
	case NotEnoughCapacity:
		return protocol.ErrNoCapacity
	case NotEnoughRoom, ContainerNotEnoughRoom, NeedExchange:
		return protocol.ErrNoRoom
	case NotMovable:
		return protocol.ErrNotMovable
	case NotPickupable:
		return protocol.ErrNotPickupable
	case DestinationOutOfReach:
		return protocol.ErrOutOfReach
	case CannotThrow:
		return protocol.ErrNoLineOfSight
	case ThereIsNoWay:
		return protocol.ErrNoPath
	case AlreadyTrading, PartnerAlreadyTrading:
		return protocol.ErrTradeBusy
	case NotEnoughMoney:
		return protocol.ErrNoMoney
	case FirstGoUpstairs, FirstGoDownstairs:
		return protocol.ErrWrongFloor
	case YouAreExhausted:
		return protocol.ErrRateLimit
	default:
		return protocol.ErrNotPossible
	}
}
