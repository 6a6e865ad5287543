package world

// Pathing plans a walk for c that ends next to to. An empty path means c is
// already there.
type Pathing interface {
	PathTo(c *Creature, to Position) ([]Position, bool)
}

// Sight reports whether a thrown item can travel from one square to another.
type Sight interface {
	Clear(from, to Position) bool
}

const maxPathRadius = 12

var neighbourSteps = [8][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}

type gridPathing struct{ w *World }

func (g gridPathing) walkable(c *Creature, p Position) bool {
	t := g.w.Tile(p)
	if t == nil || t.ground == nil || t.blocksSolid() {
		return false
	}
	for _, o := range t.creatures {
		if o != c {
			return false
		}
	}
	return true
}

// PathTo is a breadth first search on c's floor bounded to a square around
// the start.
func (g gridPathing) PathTo(c *Creature, to Position) ([]Position, bool) {
	start := c.Position()
	if start.Z != to.Z {
		return nil, false
	}
	if Chebyshev(start, to) <= 1 {
		return nil, true
	}
	prev := map[Position]Position{start: start}
	queue := []Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if Chebyshev(cur, to) <= 1 {
			var path []Position
			for p := cur; p != start; p = prev[p] {
				path = append(path, p)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, true
		}
		for _, d := range neighbourSteps {
			next := cur.Offset(d[0], d[1], 0)
			if _, seen := prev[next]; seen || Chebyshev(next, start) > maxPathRadius {
				continue
			}
			if !g.walkable(c, next) {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	return nil, false
}

type lineSight struct{ w *World }

// Clear walks the Bresenham line between the squares. Endpoints do not block.
func (s lineSight) Clear(from, to Position) bool {
	if from.Z != to.Z {
		return false
	}
	x0, y0, x1, y1 := from.X, from.Y, to.X, to.Y
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if x0 == x1 && y0 == y1 {
			return true
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
		if x0 == x1 && y0 == y1 {
			return true
		}
		if t := s.w.Tile(Position{X: x0, Y: y0, Z: from.Z}); t != nil && t.blocksSolid() {
			return false
		}
	}
}
