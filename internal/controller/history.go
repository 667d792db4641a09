package controller

// DefaultHistoryCap is the number of invocations retained when no cap is configured.
const DefaultHistoryCap = 200

// history is a bounded, insertion-ordered ring of invocations. The oldest
// entry is evicted first. It is owned by the store goroutine and not
// safe for concurrent use.
type history struct {
	data  []Invocation
	head  int
	count int
	size  int
}

func newHistory(size int) *history {
	if size <= 0 {
		size = DefaultHistoryCap
	}
	return &history{
		data: make([]Invocation, size),
		size: size,
	}
}

// push appends inv, evicting the oldest entry when full.
func (h *history) push(inv Invocation) {
	h.data[h.head] = inv
	h.head = (h.head + 1) % h.size
	if h.count < h.size {
		h.count++
	}
}

// index returns the ring position of id, or -1 if it was evicted or never recorded.
func (h *history) index(id uint64) int {
	start := (h.head - h.count + h.size) % h.size
	for i := h.count - 1; i >= 0; i-- {
		idx := (start + i) % h.size
		if h.data[idx].ID == id {
			return idx
		}
	}
	return -1
}

func (h *history) get(id uint64) (Invocation, bool) {
	idx := h.index(id)
	if idx < 0 {
		return Invocation{}, false
	}
	return h.data[idx], true
}

// replace overwrites the entry with inv.ID. It reports false if the entry is gone.
func (h *history) replace(inv Invocation) bool {
	idx := h.index(inv.ID)
	if idx < 0 {
		return false
	}
	h.data[idx] = inv
	return true
}

func (h *history) len() int {
	return h.count
}

// list returns a copy of all entries, oldest first.
func (h *history) list() []Invocation {
	if h.count == 0 {
		return nil
	}
	out := make([]Invocation, h.count)
	start := (h.head - h.count + h.size) % h.size
	for i := 0; i < h.count; i++ {
		out[i] = h.data[(start+i)%h.size]
	}
	return out
}
