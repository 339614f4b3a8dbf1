package event

import (
	"slices"

	"go.uber.org/zap"
)

// MaxDispatchDepth bounds how deeply handlers may publish from inside a
// dispatch before the bus stops delivering synchronously.
const MaxDispatchDepth = 16

// DefaultHistorySize is the history capacity used when none is configured.
const DefaultHistorySize = 1000

// Handler receives events delivered by the bus.
type Handler interface {
	Name() string
	Priority() Priority
	// RunInPhases lists the phases in which ProcessPhaseEvents delivers to
	// this handler. Any matches every phase.
	RunInPhases() []Phase
	Handle(e Event)
}

// Middleware inspects an event before any handler sees it.
type Middleware interface {
	Name() string
	Priority() Priority
	// BeforeHandle returns false to veto delivery of e.
	BeforeHandle(e Event) bool
}

// FuncHandler adapts a function to Handler.
type FuncHandler struct {
	HandlerName     string
	HandlerPriority Priority
	Phases          []Phase
	Fn              func(Event)
}

// NewHandler returns a Normal-priority handler that runs in every phase.
func NewHandler(name string, fn func(Event)) *FuncHandler {
	return &FuncHandler{HandlerName: name, HandlerPriority: Normal, Phases: []Phase{Any}, Fn: fn}
}

func (h *FuncHandler) Name() string         { return h.HandlerName }
func (h *FuncHandler) Priority() Priority   { return h.HandlerPriority }
func (h *FuncHandler) RunInPhases() []Phase { return h.Phases }
func (h *FuncHandler) Handle(e Event)       { h.Fn(e) }

// Bus is the single event bus of a session. It is not safe for concurrent
// use; re-entrant publishing from handlers is supported.
//
// Invariant: every accepted event is queued in exactly one phase queue and
// recorded in history, whether or not it is dispatched.
type Bus struct {
	logger     *zap.Logger
	current    Phase
	queues     [numPhases]phaseQueue
	delayed    []Event
	seq        uint64
	history    *ring
	global     []Handler
	phased     [numPhases][]Handler
	middleware []Middleware
	depth      int
}

// NewBus creates a bus with the given history capacity. A non-positive
// capacity disables history.
func NewBus(logger *zap.Logger, historySize int) *Bus {
	return &Bus{
		logger:  logger.Named("event"),
		current: Input,
		history: newRing(historySize),
	}
}

// Publish queues e in the current phase at Normal priority and delivers it
// to every global subscriber.
func (b *Bus) Publish(e Event) {
	b.PublishWithPriority(e, Normal)
}

// PublishWithPriority is Publish with an explicit priority.
func (b *Bus) PublishWithPriority(e Event, p Priority) {
	b.enqueue(e, p, b.current)
	b.dispatch(e, b.global)
}

// PublishToPhase queues e for phase without synchronous delivery.
//
// Postcondition: a later DrainPhase(phase) returns e ordered by
// (priority desc, publish order asc).
func (b *Bus) PublishToPhase(e Event, p Priority, phase Phase) {
	b.enqueue(e, p, phase)
}

// PublishDelayed holds e until the next NextFrame call.
func (b *Bus) PublishDelayed(e Event) {
	b.delayed = append(b.delayed, e)
}

// NextFrame publishes every delayed event in order.
func (b *Bus) NextFrame() {
	pending := b.delayed
	b.delayed = nil
	for _, e := range pending {
		b.Publish(e)
	}
}

func (b *Bus) enqueue(e Event, p Priority, phase Phase) {
	if phase >= numPhases {
		phase = Any
	}
	b.seq++
	b.queues[phase].push(queued{priority: p, seq: b.seq, event: e})
	b.history.add(e)
}

// dispatch delivers e to handlers unless a middleware vetoes it or the
// recursion bound is reached.
func (b *Bus) dispatch(e Event, handlers []Handler) {
	if len(handlers) == 0 {
		return
	}
	if b.depth >= MaxDispatchDepth {
		b.logger.Warn("event dispatch depth exceeded; event queued only",
			zap.String("event", TypeName(e)),
			zap.Int("depth", b.depth),
		)
		return
	}
	for _, m := range b.middleware {
		if !m.BeforeHandle(e) {
			b.logger.Debug("event vetoed",
				zap.String("event", TypeName(e)),
				zap.String("middleware", m.Name()),
			)
			return
		}
	}
	b.depth++
	defer func() { b.depth-- }()
	for _, h := range handlers {
		h.Handle(e)
	}
}

// DrainPhase removes and returns every queued event of phase in delivery order.
func (b *Bus) DrainPhase(phase Phase) []Event {
	if phase >= numPhases {
		return nil
	}
	return b.queues[phase].drain()
}

// Drain empties every phase queue in canonical order and concatenates the
// results.
func (b *Bus) Drain() []Event {
	var out []Event
	for _, p := range Phases() {
		out = append(out, b.DrainPhase(p)...)
	}
	return out
}

// ProcessPhaseEvents drains phase and delivers each event to the handlers
// subscribed for phase (or Any) whose RunInPhases includes phase or Any.
// It returns the drained events.
func (b *Bus) ProcessPhaseEvents(phase Phase) []Event {
	events := b.DrainPhase(phase)
	var handlers []Handler
	for _, h := range b.phased[phase] {
		if runsIn(h, phase) {
			handlers = append(handlers, h)
		}
	}
	if phase != Any {
		for _, h := range b.phased[Any] {
			if runsIn(h, phase) {
				handlers = append(handlers, h)
			}
		}
	}
	sortHandlers(handlers)
	for _, e := range events {
		b.dispatch(e, handlers)
	}
	return events
}

func runsIn(h Handler, phase Phase) bool {
	for _, p := range h.RunInPhases() {
		if p == phase || p == Any {
			return true
		}
	}
	return false
}

// HasEvents reports whether any phase queue is non-empty.
func (b *Bus) HasEvents() bool { return b.Len() > 0 }

// Len is the number of queued events across all phases, excluding delayed ones.
func (b *Bus) Len() int {
	n := 0
	for i := range b.queues {
		n += b.queues[i].Len()
	}
	return n
}

// SubscribeAll registers h for every Publish.
func (b *Bus) SubscribeAll(h Handler) {
	b.global = append(b.global, h)
	sortHandlers(b.global)
}

// SubscribeForPhase registers h for ProcessPhaseEvents(phase).
func (b *Bus) SubscribeForPhase(phase Phase, h Handler) {
	if phase >= numPhases {
		phase = Any
	}
	b.phased[phase] = append(b.phased[phase], h)
	sortHandlers(b.phased[phase])
}

// RegisterMiddleware adds m; middleware run highest priority first,
// registration order among equals.
func (b *Bus) RegisterMiddleware(m Middleware) {
	b.middleware = append(b.middleware, m)
	slices.SortStableFunc(b.middleware, func(x, y Middleware) int {
		return int(y.Priority()) - int(x.Priority())
	})
}

func sortHandlers(hs []Handler) {
	slices.SortStableFunc(hs, func(x, y Handler) int {
		return int(y.Priority()) - int(x.Priority())
	})
}

// SetCurrentPhase sets the phase that Publish queues into.
func (b *Bus) SetCurrentPhase(p Phase) { b.current = p }

// CurrentPhase returns the phase that Publish queues into.
func (b *Bus) CurrentPhase() Phase { return b.current }

// History returns up to n most recent events, oldest first.
func (b *Bus) History(n int) []Event { return b.history.last(n) }

// Clear drops queued, delayed, and historical events and resets the phase
// to Input. Subscribers and middleware are kept.
func (b *Bus) Clear() {
	for i := range b.queues {
		b.queues[i] = nil
	}
	b.delayed = nil
	b.history.reset()
	b.current = Input
	b.seq = 0
}
