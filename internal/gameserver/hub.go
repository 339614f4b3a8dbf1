package gameserver

import "sync"

// FrameHub fans frames out to subscribers. A subscriber whose channel is
// full misses that frame; the loop never blocks on a slow reader.
type FrameHub struct {
	mu          sync.Mutex
	latest      *Frame
	seq         uint64
	subscribers map[chan<- Frame]struct{}
}

// NewFrameHub creates a hub with no subscribers.
func NewFrameHub() *FrameHub {
	return &FrameHub{subscribers: make(map[chan<- Frame]struct{})}
}

// Subscribe registers ch to receive every published frame. If a frame has
// already been published it is offered to ch immediately.
//
// Precondition: ch must not be nil.
func (h *FrameHub) Subscribe(ch chan<- Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[ch] = struct{}{}
	if h.latest != nil {
		select {
		case ch <- *h.latest:
		default:
		}
	}
}

// Unsubscribe removes ch from the subscriber list.
func (h *FrameHub) Unsubscribe(ch chan<- Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, ch)
}

// Publish stamps f with the next sequence number and offers it to every
// subscriber.
//
// Postcondition: Latest returns f.
func (h *FrameHub) Publish(f Frame) {
	h.mu.Lock()
	h.seq++
	f.Seq = h.seq
	h.latest = &f
	subs := make([]chan<- Frame, 0, len(h.subscribers))
	for ch := range h.subscribers {
		subs = append(subs, ch)
	}
	h.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// Latest returns the most recent frame, if any.
func (h *FrameHub) Latest() (Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return Frame{}, false
	}
	return *h.latest, true
}
