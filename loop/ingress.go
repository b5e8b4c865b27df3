package loop

import (
	"sync"
)

// chunkSize is the number of tasks per node in the ingress linked list.
// 128 tasks * 8 bytes/task + overhead = ~1KB per chunk.
const chunkSize = 128

// ingress is a chunked linked-list queue of tasks.
//
// Thread Safety: NOT thread-safe, the Loop guards it with its mutex.
//
// Fixed-size chunks provide cache locality and amortize allocations, and
// exhausted chunks are recycled via a sync.Pool.
type ingress struct { // betteralign:ignore
	head   *chunk
	tail   *chunk
	length int
}

var chunkPool = sync.Pool{
	New: func() any {
		return &chunk{}
	},
}

// chunk is a fixed-size node, with read/write cursors for O(1) push/pop.
type chunk struct {
	tasks   [chunkSize]func()
	next    *chunk
	readPos int // first unread slot
	pos     int // first unused slot
}

func newChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

// returnChunk clears any remaining task references, then pools the chunk.
func returnChunk(c *chunk) {
	for i := c.readPos; i < c.pos; i++ {
		c.tasks[i] = nil
	}
	c.pos = 0
	c.readPos = 0
	c.next = nil
	chunkPool.Put(c)
}

func (q *ingress) push(task func()) {
	if q.tail == nil {
		q.tail = newChunk()
		q.head = q.tail
	} else if q.tail.pos == len(q.tail.tasks) {
		c := newChunk()
		q.tail.next = c
		q.tail = c
	}
	q.tail.tasks[q.tail.pos] = task
	q.tail.pos++
	q.length++
}

// pop removes and returns the oldest task, or false if empty.
func (q *ingress) pop() (func(), bool) {
	if q.length == 0 {
		return nil, false
	}

	c := q.head
	task := c.tasks[c.readPos]
	c.tasks[c.readPos] = nil
	c.readPos++
	q.length--

	if c.readPos == c.pos {
		if c == q.tail {
			// only chunk, reuse it in place
			c.pos = 0
			c.readPos = 0
		} else {
			q.head = c.next
			returnChunk(c)
		}
	}

	return task, true
}

// popBatch moves up to len(buf) tasks into buf, returning the count.
func (q *ingress) popBatch(buf []func()) int {
	n := 0
	for n < len(buf) {
		task, ok := q.pop()
		if !ok {
			break
		}
		buf[n] = task
		n++
	}
	return n
}

// clear discards every queued task, returning the chunks to the pool.
func (q *ingress) clear() {
	for c := q.head; c != nil; {
		next := c.next
		returnChunk(c)
		c = next
	}
	q.head = nil
	q.tail = nil
	q.length = 0
}

func (q *ingress) len() int {
	return q.length
}
