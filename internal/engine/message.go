package engine

import "strings"

const (
	PayloadKey = "payload"
	TopicKey   = "topic"
)

// Message is an inbound control message or an outbound sample. Fields other
// than payload and topic are carried through untouched.
type Message map[string]any

// Payload returns the payload field, or nil.
func (m Message) Payload() any {
	return m[PayloadKey]
}

// Topic returns the selector with surrounding space removed, if a non-blank
// string topic is present.
func (m Message) Topic() (string, bool) {
	s, ok := m[TopicKey].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Clone returns a shallow copy.
func (m Message) Clone() Message {
	out := make(Message, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Sink consumes emitted samples. Emit must not block.
type Sink interface {
	Emit(Message)
}

type SinkFunc func(Message)

func (f SinkFunc) Emit(m Message) { f(m) }
