package session

import "github.com/cory-johannsen/dungeon/internal/game/event"

// DefaultMessageLimit is the message log capacity used when none is configured.
const DefaultMessageLimit = 100

// Message is one line of the player-visible log.
type Message struct {
	Text  string         `json:"text"`
	Level event.LogLevel `json:"level"`
	Turn  uint32         `json:"turn"`
}

// MessageLog keeps the most recent LogMessage events, oldest first. It is
// subscribed to the session bus and sees every LogMessage published.
//
// Invariant: Len() <= limit.
type MessageLog struct {
	limit    int
	messages []Message
	clock    *Clock
}

// NewMessageLog creates an empty log; limit <= 0 means DefaultMessageLimit.
func NewMessageLog(limit int, clock *Clock) *MessageLog {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return &MessageLog{limit: limit, clock: clock}
}

func (l *MessageLog) Name() string               { return "message_log" }
func (l *MessageLog) Priority() event.Priority   { return event.Low }
func (l *MessageLog) RunInPhases() []event.Phase { return []event.Phase{event.Any} }

func (l *MessageLog) Handle(e event.Event) {
	m, ok := e.(event.LogMessage)
	if !ok || m.Level == event.LogDebug {
		return
	}
	var turn uint32
	if l.clock != nil {
		turn = l.clock.Turn
	}
	l.Add(Message{Text: m.Message, Level: m.Level, Turn: turn})
}

// Add appends m, evicting the oldest message when full.
func (l *MessageLog) Add(m Message) {
	if len(l.messages) == l.limit {
		copy(l.messages, l.messages[1:])
		l.messages = l.messages[:l.limit-1]
	}
	l.messages = append(l.messages, m)
}

// Len returns the number of retained messages.
func (l *MessageLog) Len() int { return len(l.messages) }

// Last returns up to n of the newest messages, oldest first.
func (l *MessageLog) Last(n int) []Message {
	if n > len(l.messages) {
		n = len(l.messages)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Message, n)
	copy(out, l.messages[len(l.messages)-n:])
	return out
}

// Texts returns every retained message text, oldest first.
func (l *MessageLog) Texts() []string {
	out := make([]string, len(l.messages))
	for i, m := range l.messages {
		out[i] = m.Text
	}
	return out
}

// Reset replaces the log contents with texts, keeping the newest limit.
func (l *MessageLog) Reset(texts []string) {
	l.messages = l.messages[:0]
	for _, t := range texts {
		l.Add(Message{Text: t, Level: event.LogInfo})
	}
}
