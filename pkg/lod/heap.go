package lod

// heapEntry orders a vertex by collapse cost, then by insertion.
type heapEntry struct {
	vertex VertexIndex
	cost   float32
	seq    uint64
}

// costHeap is the collapse priority queue. It keeps Vertex.heapIndex current
// so entries can be removed or replaced in place.
type costHeap struct {
	d       *Data
	entries []heapEntry
	seq     uint64
}

func (h *costHeap) Len() int { return len(h.entries) }

func (h *costHeap) Less(i, j int) bool {
	a, b := &h.entries[i], &h.entries[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.seq < b.seq
}

func (h *costHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.d.Vertices[h.entries[i].vertex].heapIndex = i
	h.d.Vertices[h.entries[j].vertex].heapIndex = j
}

func (h *costHeap) Push(x interface{}) {
	e := x.(heapEntry)
	e.seq = h.seq
	h.seq++
	h.d.Vertices[e.vertex].heapIndex = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *costHeap) Pop() interface{} {
	n := len(h.entries)
	e := h.entries[n-1]
	h.d.Vertices[e.vertex].heapIndex = -1
	h.entries = h.entries[:n-1]
	return e
}

// peek returns the cheapest entry. The heap must not be empty.
func (h *costHeap) peek() heapEntry {
	return h.entries[0]
}
