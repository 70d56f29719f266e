package bulkhead

// minQueueCapacity is the backing-array size allocated on the first push.
const minQueueCapacity = 8

// waiterQueue is a FIFO ring buffer of waiters with O(1) amortized pushBack
// and O(1) popFront. The backing array doubles when full and never shrinks:
// occupancy is bounded by the queue limit plus transiently settled entries,
// so eager shrinking would only churn allocations.
//
// Entries are never removed from the middle. A waiter that settles while
// queued stays in place, marked dead, and is pruned from the front by the
// pump.
type waiterQueue struct {
	items []*waiter
	head  int
	size  int
}

// pushBack appends w to the tail, growing the backing array if needed.
func (q *waiterQueue) pushBack(w *waiter) {
	if q.size == len(q.items) {
		q.grow()
	}

	q.items[(q.head+q.size)%len(q.items)] = w
	q.size++
}

// popFront removes and returns the oldest waiter, or false when empty.
func (q *waiterQueue) popFront() (*waiter, bool) {
	if q.size == 0 {
		return nil, false
	}

	w := q.items[q.head]
	q.items[q.head] = nil
	q.head = (q.head + 1) % len(q.items)
	q.size--

	return w, true
}

// peekFront returns the oldest waiter without removing it, or false when
// empty.
func (q *waiterQueue) peekFront() (*waiter, bool) {
	if q.size == 0 {
		return nil, false
	}

	return q.items[q.head], true
}

// length returns the current occupancy, including settled entries that have
// not been pruned yet.
func (q *waiterQueue) length() int { return q.size }

// grow doubles the backing array and linearizes the ring starting at head.
func (q *waiterQueue) grow() {
	capacity := len(q.items) * 2
	if capacity == 0 {
		capacity = minQueueCapacity
	}

	items := make([]*waiter, capacity)
	for i := 0; i < q.size; i++ {
		items[i] = q.items[(q.head+i)%len(q.items)]
	}

	q.items = items
	q.head = 0
}
