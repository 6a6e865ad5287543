package world

import "sort"

// Money sums the worth of all currency held in c, nested containers
// included.
func (w *World) Money(c Cylinder) int64 {
	if c == nil {
		return 0
	}
	var total int64
	eachItemDeep(c, func(it *Item) {
		total += it.def.Worth * int64(it.count)
	})
	return total
}

// RemoveMoney takes amount out of c. Stacks of the lowest total worth go
// first; when a stack is worth more than what is left, enough units are
// taken from it and the difference is paid back with AddMoney.
func (w *World) RemoveMoney(c Cylinder, amount int64, flags Flags) Outcome {
	if c == nil || amount < 0 {
		return NotPossible
	}
	if amount == 0 {
		return OK
	}
	var coins []*Item
	var total int64
	eachItemDeep(c, func(it *Item) {
		if it.def.IsCurrency() {
			coins = append(coins, it)
			total += it.def.Worth * int64(it.count)
		}
	})
	if total < amount {
		return NotEnoughMoney
	}
	sort.SliceStable(coins, func(i, j int) bool {
		return coins[i].def.Worth*int64(coins[i].count) < coins[j].def.Worth*int64(coins[j].count)
	})

	for _, it := range coins {
		worth := it.def.Worth * int64(it.count)
		if worth <= amount {
			if ret := w.RemoveItem(it, -1, false, flags); ret != OK {
				return ret
			}
			amount -= worth
			if amount == 0 {
				break
			}
			continue
		}
		unit := it.def.Worth
		n := (amount + unit - 1) / unit
		change := unit*n - amount
		if ret := w.RemoveItem(it, int(n), false, flags); ret != OK {
			return ret
		}
		if change > 0 {
			w.AddMoney(c, change, flags)
		}
		break
	}
	return OK
}

// AddMoney pays amount into c using the largest coins first. Coins the
// cylinder cannot take are dropped on its tile.
func (w *World) AddMoney(c Cylinder, amount int64, flags Flags) {
	if c == nil || amount <= 0 {
		return
	}
	for _, id := range w.items.Currency {
		def, _ := w.items.Get(id)
		n := amount / def.Worth
		if n == 0 {
			continue
		}
		amount -= n * def.Worth
		for n > 0 {
			count := min(n, int64(def.MaxStack))
			n -= count
			w.addOrDrop(c, w.CreateItem(id, int(count)), flags)
		}
	}
}

func (w *World) addOrDrop(c Cylinder, it *Item, flags Flags) {
	if it == nil {
		return
	}
	ret, rest := w.AddItem(c, it, IndexWhereever, flags, false)
	if ret == OK && rest == 0 {
		return
	}
	t := tileOf(c)
	if ret != OK {
		if t == nil {
			w.discard(it)
			return
		}
		if r, _ := w.AddItem(t, it, IndexWhereever, FlagNoLimit, false); r != OK {
			w.discard(it)
		}
		return
	}
	if t != nil {
		if extra := w.CreateItem(it.def.ID, rest); extra != nil {
			if r, _ := w.AddItem(t, extra, IndexWhereever, FlagNoLimit, false); r != OK {
				w.discard(extra)
			}
		}
	}
}

// tileOf walks up to the map tile c stands on.
func tileOf(c Cylinder) *Tile {
	for ; c != nil; c = c.Parent() {
		if t, ok := c.(*Tile); ok {
			return t
		}
	}
	return nil
}
