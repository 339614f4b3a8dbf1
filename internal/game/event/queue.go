package event

import (
	"container/heap"
	"fmt"
)

// Priority orders events within one phase queue. Higher drains first.
type Priority uint8

const (
	Low Priority = iota
	Normal
	High
	Critical
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Normal:
		return "normal"
	case High:
		return "high"
	case Critical:
		return "critical"
	}
	return fmt.Sprintf("priority(%d)", uint8(p))
}

// Phase is a stage of a turn. Any is a queue of its own and, for handlers,
// a wildcard.
type Phase uint8

const (
	Input Phase = iota
	IntentQueue
	Resolution
	Aftermath
	Any
	numPhases
)

// Phases lists every phase in canonical drain order.
func Phases() []Phase { return []Phase{Input, IntentQueue, Resolution, Aftermath, Any} }

func (p Phase) String() string {
	switch p {
	case Input:
		return "input"
	case IntentQueue:
		return "intent_queue"
	case Resolution:
		return "resolution"
	case Aftermath:
		return "aftermath"
	case Any:
		return "any"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

type queued struct {
	priority Priority
	seq      uint64
	event    Event
}

// phaseQueue is a max-heap on (priority desc, seq asc).
type phaseQueue []queued

func (q phaseQueue) Len() int { return len(q) }

func (q phaseQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q phaseQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *phaseQueue) Push(x any) { *q = append(*q, x.(queued)) }

func (q *phaseQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = queued{}
	*q = old[:n-1]
	return it
}

func (q *phaseQueue) push(it queued) { heap.Push(q, it) }

// drain pops every entry in order and leaves q empty.
func (q *phaseQueue) drain() []Event {
	out := make([]Event, 0, q.Len())
	for q.Len() > 0 {
		out = append(out, heap.Pop(q).(queued).event)
	}
	return out
}

// ring is a fixed-capacity history buffer.
type ring struct {
	buf   []Event
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Event, max(capacity, 0))}
}

func (r *ring) add(e Event) {
	if len(r.buf) == 0 {
		return
	}
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

// last returns up to n most recent entries, oldest first.
func (r *ring) last(n int) []Event {
	n = min(max(n, 0), r.size)
	out := make([]Event, n)
	for i := range n {
		out[i] = r.buf[(r.start+r.size-n+i)%len(r.buf)]
	}
	return out
}

func (r *ring) reset() {
	clear(r.buf)
	r.start, r.size = 0, 0
}
