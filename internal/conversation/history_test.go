package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendAndOrder(t *testing.T) {
	h := NewHistory(10)

	h.Append(RoleUser, "hello")
	h.Append(RoleAssistant, "hi there")

	turns := h.Turns()
	assert.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "hi there", turns[1].Content)
}

func TestHistory_EvictsOldestAtCap(t *testing.T) {
	h := NewHistory(4)

	for i := 0; i < 6; i++ {
		h.Append(RoleUser, fmt.Sprintf("turn-%d", i))
	}

	turns := h.Turns()
	assert.Len(t, turns, 4)
	assert.Equal(t, "turn-2", turns[0].Content)
	assert.Equal(t, "turn-5", turns[3].Content)
}

func TestHistory_TurnsReturnsCopy(t *testing.T) {
	h := NewHistory(4)
	h.Append(RoleUser, "original")

	turns := h.Turns()
	turns[0].Content = "mutated"

	assert.Equal(t, "original", h.Turns()[0].Content)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(4)
	h.Append(RoleUser, "hello")
	h.Append(RoleAssistant, "hi")

	h.Clear()

	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Turns())
}
