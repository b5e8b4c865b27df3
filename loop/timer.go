package loop

import (
	"time"
)

// timer is a task scheduled to run once its deadline has passed.
type timer struct {
	when time.Time
	task func()
	seq  uint64 // tie-breaker, so equal deadlines run in scheduling order
}

// timerHeap is a min-heap of timers, ordered by deadline then seq.
type timerHeap []timer

// Implement heap.Interface for timerHeap
func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(timer))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = timer{} // release the task for GC
	*h = old[:n-1]
	return x
}
