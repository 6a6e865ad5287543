package world

// FindItemOfType searches c and then the containers it holds, breadth first,
// for an item of type id. deep extends the search into containers nested
// inside those. subType -1 matches any sub-type.
func (w *World) FindItemOfType(c Cylinder, id uint16, deep bool, subType int) *Item {
	if c == nil {
		return nil
	}
	var queue []*Container
	for _, it := range c.Items() {
		if matchesType(it, id, subType) {
			return it
		}
		if it.container != nil {
			queue = append(queue, it.container)
		}
	}
	for i := 0; i < len(queue); i++ {
		for _, it := range queue[i].items {
			if matchesType(it, id, subType) {
				return it
			}
			if deep && it.container != nil {
				queue = append(queue, it.container)
			}
		}
	}
	return nil
}

func matchesType(it *Item, id uint16, subType int) bool {
	return it.def.ID == id && (subType == -1 || subType == it.count)
}

// eachItemDeep visits every item in c, nested containers included, breadth
// first.
func eachItemDeep(c Cylinder, fn func(it *Item)) {
	queue := []Cylinder{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, it := range cur.Items() {
			fn(it)
			if it.container != nil {
				queue = append(queue, it.container)
			}
		}
	}
}
