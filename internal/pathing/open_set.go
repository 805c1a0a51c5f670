package pathing

// openSet is a binary min-heap of indices into the search's node slice,
// ordered by f and then by lower g.
type openSet struct {
	nodes *[]searchNode
	items []int32
}

func (o *openSet) len() int { return len(o.items) }

func (o *openSet) less(a, b int32) bool {
	na, nb := &(*o.nodes)[a], &(*o.nodes)[b]
	if na.f != nb.f {
		return na.f < nb.f
	}
	return na.g < nb.g
}

func (o *openSet) push(idx int32) {
	o.items = append(o.items, idx)
	i := len(o.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !o.less(idx, o.items[parent]) {
			break
		}
		o.items[i] = o.items[parent]
		i = parent
	}
	o.items[i] = idx
}

func (o *openSet) pop() int32 {
	top := o.items[0]
	last := o.items[len(o.items)-1]
	o.items = o.items[:len(o.items)-1]
	if len(o.items) == 0 {
		return top
	}

	i := 0
	for {
		left := 2*i + 1
		if left >= len(o.items) {
			break
		}
		smallest := left
		if right := left + 1; right < len(o.items) && o.less(o.items[right], o.items[left]) {
			smallest = right
		}
		if !o.less(o.items[smallest], last) {
			break
		}
		o.items[i] = o.items[smallest]
		i = smallest
	}
	o.items[i] = last
	return top
}
