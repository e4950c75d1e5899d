package questionnaire

// Deque is a growable ring buffer of question indices.
type Deque struct {
	buf  []int
	head int
	size int
}

// NewDeque returns an empty deque with room for capacity items.
func NewDeque(capacity int) *Deque {
	if capacity < 1 {
		capacity = 1
	}
	return &Deque{buf: make([]int, capacity)}
}

// Len returns the number of queued items.
func (d *Deque) Len() int {
	return d.size
}

// Front returns the head without removing it.
func (d *Deque) Front() (int, bool) {
	if d.size == 0 {
		return 0, false
	}
	return d.buf[d.head], true
}

// PopFront removes and returns the head.
func (d *Deque) PopFront() (int, bool) {
	if d.size == 0 {
		return 0, false
	}
	v := d.buf[d.head]
	d.head = (d.head + 1) % len(d.buf)
	d.size--
	return v, true
}

// PushBack appends v at the tail.
func (d *Deque) PushBack(v int) {
	d.growIfFull()
	d.buf[(d.head+d.size)%len(d.buf)] = v
	d.size++
}

// PushFront makes v the new head.
func (d *Deque) PushFront(v int) {
	d.growIfFull()
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.size++
}

// Contains reports whether v is queued.
func (d *Deque) Contains(v int) bool {
	for i := 0; i < d.size; i++ {
		if d.buf[(d.head+i)%len(d.buf)] == v {
			return true
		}
	}
	return false
}

// Values copies the items from head to tail.
func (d *Deque) Values() []int {
	out := make([]int, d.size)
	for i := range out {
		out[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	return out
}

func (d *Deque) growIfFull() {
	if d.size < len(d.buf) {
		return
	}
	grown := make([]int, len(d.buf)*2)
	copy(grown, d.Values())
	d.buf = grown
	d.head = 0
}

// History keeps the most recent retired indices, evicting the oldest past capacity.
type History struct {
	items    []int
	capacity int
}

// NewHistory returns an empty history bounded to capacity entries.
func NewHistory(capacity int) *History {
	return &History{items: make([]int, 0, capacity), capacity: capacity}
}

// Push appends v and reports the evicted entry, if any.
func (h *History) Push(v int) (evicted int, ok bool) {
	h.items = append(h.items, v)
	if len(h.items) > h.capacity {
		evicted = h.items[0]
		h.items = append(h.items[:0], h.items[1:]...)
		return evicted, true
	}
	return 0, false
}

// Pop removes and returns the newest entry.
func (h *History) Pop() (int, bool) {
	if len(h.items) == 0 {
		return 0, false
	}
	v := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return v, true
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.items)
}

// Values copies the entries from oldest to newest.
func (h *History) Values() []int {
	out := make([]int, len(h.items))
	copy(out, h.items)
	return out
}
