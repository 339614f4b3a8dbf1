package event

import "go.uber.org/zap"

// LoggingMiddleware logs every dispatched event at debug level and never vetoes.
type LoggingMiddleware struct {
	logger *zap.Logger
}

// NewLoggingMiddleware returns a middleware that records events on logger.
func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) Name() string       { return "logging" }
func (m *LoggingMiddleware) Priority() Priority { return Low }

func (m *LoggingMiddleware) BeforeHandle(e Event) bool {
	m.logger.Debug("event",
		zap.String("type", TypeName(e)),
		zap.Stringer("category", e.Category()),
	)
	return true
}

// FilterMiddleware vetoes every event whose type name is in Block.
type FilterMiddleware struct {
	Block          map[string]bool
	FilterPriority Priority
}

// NewFilterMiddleware blocks the named event types at Critical priority.
func NewFilterMiddleware(types ...string) *FilterMiddleware {
	m := &FilterMiddleware{Block: make(map[string]bool, len(types)), FilterPriority: Critical}
	for _, t := range types {
		m.Block[t] = true
	}
	return m
}

func (m *FilterMiddleware) Name() string       { return "filter" }
func (m *FilterMiddleware) Priority() Priority { return m.FilterPriority }

func (m *FilterMiddleware) BeforeHandle(e Event) bool {
	return !m.Block[TypeName(e)]
}
