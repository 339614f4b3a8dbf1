package session

import "time"

// DefaultTickRate is the outer loop cadence.
const DefaultTickRate = 16 * time.Millisecond

// Clock counts completed game turns and accumulated play time.
//
// Invariant: Turn only increases.
type Clock struct {
	Turn     uint32
	Elapsed  time.Duration
	TickRate time.Duration
}

// NewClock returns a zeroed clock; tickRate <= 0 means DefaultTickRate.
func NewClock(tickRate time.Duration) *Clock {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Clock{TickRate: tickRate}
}

// Tick adds one loop interval of play time.
func (c *Clock) Tick() { c.Elapsed += c.TickRate }

// EndTurn advances the turn counter and returns the new turn number.
func (c *Clock) EndTurn() uint32 {
	c.Turn++
	return c.Turn
}
