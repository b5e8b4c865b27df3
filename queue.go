package trampoline

const (
	// normalQueueCapacity is the initial capacity of the normal queue.
	normalQueueCapacity = 16

	// lateQueueCapacity is the initial capacity of the late queue.
	lateQueueCapacity = 16

	// minQueueCapacity is the smallest backing store a Queue will allocate.
	// Capacities are always a power of 2, so the cursors wrap with a mask.
	minQueueCapacity = 4
)

// Queue is a growable ring buffer of entries, supporting O(1) push at the
// tail, unshift at the head, and shift from the head.
//
// Thread Safety: Queue is NOT thread-safe. It is owned by an [Engine], and
// only mutated from the engine's single logical thread.
//
// Growth doubles the backing store, copying entries in queue order, and the
// store never shrinks. Shifted slots are zeroed, so the queue does not retain
// references to completed work.
type Queue struct {
	buf    []Entry
	head   int // index of the first entry
	length int // entry count
}

// NewQueue creates a queue with room for at least capacity entries before it
// needs to grow.
func NewQueue(capacity int) *Queue {
	return &Queue{buf: make([]Entry, roundCapacity(capacity))}
}

// roundCapacity returns the smallest power of 2 >= n, and >= minQueueCapacity.
func roundCapacity(n int) int {
	c := minQueueCapacity
	for c < n {
		c <<= 1
	}
	return c
}

// Push appends a callback entry at the tail.
func (q *Queue) Push(fn Callback, receiver, arg any) {
	q.pushBack(callbackEntry(fn, receiver, arg))
}

// PushSettlement appends a settlement entry at the tail.
func (q *Queue) PushSettlement(target Settler) {
	q.pushBack(settlementEntry(target))
}

// Unshift inserts a callback entry at the head, ahead of everything already
// queued.
func (q *Queue) Unshift(fn Callback, receiver, arg any) {
	q.ensureCapacity(q.length + 1)
	q.head = (q.head - 1) & (len(q.buf) - 1)
	q.buf[q.head] = callbackEntry(fn, receiver, arg)
	q.length++
}

// Shift removes and returns the entry at the head.
// Returns false if the queue is empty.
func (q *Queue) Shift() (Entry, bool) {
	if q.length == 0 {
		return Entry{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = Entry{}
	q.head = (q.head + 1) & (len(q.buf) - 1)
	q.length--
	if q.length == 0 {
		q.head = 0
	}
	return e, true
}

// Len returns the number of entries (not slots) in the queue.
func (q *Queue) Len() int {
	return q.length
}

// Cap returns the size of the backing store.
func (q *Queue) Cap() int {
	return len(q.buf)
}

func (q *Queue) pushBack(e Entry) {
	q.ensureCapacity(q.length + 1)
	q.buf[(q.head+q.length)&(len(q.buf)-1)] = e
	q.length++
}

func (q *Queue) ensureCapacity(size int) {
	if size <= len(q.buf) {
		return
	}
	q.resize(roundCapacity(size))
}

// resize moves the entries to a new store, unwrapping them so that the head
// is at index 0.
func (q *Queue) resize(capacity int) {
	buf := make([]Entry, capacity)
	if q.length > 0 {
		n := copy(buf, q.buf[q.head:min(q.head+q.length, len(q.buf))])
		copy(buf[n:], q.buf[:q.length-n])
	}
	q.buf = buf
	q.head = 0
}
