package chat

import (
	"sync"

	"github.com/google/uuid"
)

// History is an ordered, concurrency-safe message log identified by a UUIDv7.
type History struct {
	mu       sync.RWMutex
	id       string
	messages []Message
}

// NewHistory returns a History seeded with msgs.
func NewHistory(msgs ...Message) *History {
	h := &History{id: uuid.Must(uuid.NewV7()).String()}
	h.Append(msgs...)
	return h
}

// ID returns the identifier assigned at creation.
func (h *History) ID() string { return h.id }

// Append adds msgs at the end of the log.
func (h *History) Append(msgs ...Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range msgs {
		h.messages = append(h.messages, m.Clone())
	}
}

// Messages returns a copy of the log.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	for i, m := range h.messages {
		out[i] = m.Clone()
	}
	return out
}

// Last returns the most recent message, if any.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1].Clone(), true
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Reset drops all messages, keeping the ID.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
