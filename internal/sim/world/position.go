package world

import "fmt"

// Floors run from 0 (highest) to MaxFloor (deepest); GroundFloor is sea level.
const (
	MaxFloor    = 15
	GroundFloor = 7
)

// InventoryX marks a position that addresses a player's inventory or one of
// the containers they have open rather than a map tile.
const InventoryX = 0xFFFF

const containerFlag = 0x40

type Position struct {
	X, Y, Z int
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }

func (p Position) Offset(dx, dy, dz int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p Position) Array() [3]int { return [3]int{p.X, p.Y, p.Z} }

func PositionFromArray(a [3]int) Position { return Position{X: a[0], Y: a[1], Z: a[2]} }

func (p Position) IsInventory() bool { return p.X == InventoryX }

// InventorySlot decodes an inventory slot position.
func (p Position) InventorySlot() (Slot, bool) {
	if !p.IsInventory() || p.Y&containerFlag != 0 {
		return 0, false
	}
	s := Slot(p.Y)
	return s, s.Valid()
}

// ContainerRef decodes an open-container position into (container id, index).
func (p Position) ContainerRef() (cid uint8, index int, ok bool) {
	if !p.IsInventory() || p.Y&containerFlag == 0 {
		return 0, 0, false
	}
	return uint8(p.Y & 0x0F), p.Z, true
}

func InventoryPosition(s Slot) Position { return Position{X: InventoryX, Y: int(s)} }

func ContainerPosition(cid uint8, index int) Position {
	return Position{X: InventoryX, Y: containerFlag | int(cid&0x0F), Z: index}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Chebyshev is the king-move distance on one floor, ignoring Z.
func Chebyshev(a, b Position) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// Adjacent reports whether b is reachable from a without walking.
func Adjacent(a, b Position) bool {
	return a.Z == b.Z && Chebyshev(a, b) <= 1
}

func InRange(a, b Position, rx, ry int) bool {
	return abs(a.X-b.X) <= rx && abs(a.Y-b.Y) <= ry
}
