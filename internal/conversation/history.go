package conversation

import "time"

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation history
type Turn struct {
	Role    Role
	Content string
	At      time.Time
}

// History is an ordered, bounded sequence of conversation turns.
// Appends beyond the cap evict the oldest turns first. The system
// prompt is not stored here; it is prepended per request.
//
// History is not safe for concurrent use; the Engine serializes access.
type History struct {
	turns    []Turn
	maxTurns int
}

// NewHistory creates a history bounded to maxTurns entries
func NewHistory(maxTurns int) *History {
	return &History{
		turns:    make([]Turn, 0, maxTurns),
		maxTurns: maxTurns,
	}
}

// Append adds a turn, evicting the oldest turn if the cap is reached
func (h *History) Append(role Role, content string) {
	if len(h.turns) >= h.maxTurns {
		overflow := len(h.turns) - h.maxTurns + 1
		h.turns = append(h.turns[:0], h.turns[overflow:]...)
	}
	h.turns = append(h.turns, Turn{
		Role:    role,
		Content: content,
		At:      time.Now(),
	})
}

// Turns returns a copy of the history in order
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of stored turns
func (h *History) Len() int {
	return len(h.turns)
}

// Clear removes all turns
func (h *History) Clear() {
	h.turns = h.turns[:0]
}
