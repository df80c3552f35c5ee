package wake

import "strings"

// Matcher scans transcripts for wake and farewell phrases.
// Matching is case-insensitive substring matching after stripping
// sentence punctuation, so "Hi, Alvin!" triggers the phrase "alvin".
type Matcher struct {
	wakePhrases     []string
	farewellPhrases []string
}

// NewMatcher creates a matcher from the configured phrase lists.
// Phrases are normalized once at construction.
func NewMatcher(wakePhrases, farewellPhrases []string) *Matcher {
	return &Matcher{
		wakePhrases:     normalizeAll(wakePhrases),
		farewellPhrases: normalizeAll(farewellPhrases),
	}
}

// IsWake reports whether the transcript contains a wake phrase
func (m *Matcher) IsWake(transcript string) bool {
	return containsAny(normalize(transcript), m.wakePhrases)
}

// IsFarewell reports whether the transcript contains a farewell phrase
func (m *Matcher) IsFarewell(transcript string) bool {
	return containsAny(normalize(transcript), m.farewellPhrases)
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func normalizeAll(phrases []string) []string {
	result := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = normalize(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// normalize lowercases and strips sentence punctuation, collapsing
// the runs of whitespace that stripping can leave behind.
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '.', ',', '!', '?', ';', ':', '\'', '"':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
