package wake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_IsWake(t *testing.T) {
	m := NewMatcher([]string{"alvin", "alwin"}, []string{"goodbye"})

	tests := []struct {
		name       string
		transcript string
		want       bool
	}{
		{"exact phrase", "alvin", true},
		{"phrase inside sentence", "hey alvin how are you", true},
		{"uppercase", "ALVIN, are you there?", true},
		{"punctuated greeting", "Hi, Alvin!", true},
		{"alternate spelling", "Alwin what time is it", true},
		{"no wake phrase", "what is the weather like", false},
		{"empty transcript", "", false},
		{"farewell is not a wake", "goodbye", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.IsWake(tt.transcript))
		})
	}
}

func TestMatcher_IsFarewell(t *testing.T) {
	m := NewMatcher([]string{"alvin"}, []string{"goodbye", "thank you"})

	tests := []struct {
		name       string
		transcript string
		want       bool
	}{
		{"exact phrase", "goodbye", true},
		{"multi-word phrase", "okay, thank you!", true},
		{"punctuation between words is stripped", "Thank... you", true},
		{"mixed case", "GoodBye Alvin", true},
		{"no farewell", "tell me a joke", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.IsFarewell(tt.transcript))
		})
	}
}

func TestMatcher_EmptyPhraseListNeverMatches(t *testing.T) {
	m := NewMatcher(nil, nil)

	assert.False(t, m.IsWake("alvin"))
	assert.False(t, m.IsFarewell("goodbye"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hi alvin", normalize("  Hi,   Alvin!  "))
	assert.Equal(t, "whats up", normalize("What's up?"))
	assert.Equal(t, "", normalize("...!?"))
}
