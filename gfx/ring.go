package gfx

const minRingCapacity = 8

// ring is the FIFO queue of free layer indices.
type ring struct {
	items      []int
	head, size int
}

func (r *ring) Len() int {
	return r.size
}

func (r *ring) Push(item int) {
	if r.size == len(r.items) {
		r.grow()
	}
	r.items[(r.head+r.size)%len(r.items)] = item
	r.size++
}

func (r *ring) Pop() (int, bool) {
	if r.size == 0 {
		return 0, false
	}
	item := r.items[r.head]
	r.head = (r.head + 1) % len(r.items)
	r.size--
	return item, true
}

// Items returns queued items in the order they are popped.
func (r *ring) Items() []int {
	items := make([]int, 0, r.size)
	for i := range r.size {
		items = append(items, r.items[(r.head+i)%len(r.items)])
	}
	return items
}

func (r *ring) grow() {
	capacity := 2 * len(r.items)
	if capacity < minRingCapacity {
		capacity = minRingCapacity
	}
	items := make([]int, capacity)
	copy(items, r.Items())
	r.items = items
	r.head = 0
}
