package booking

import "strings"

// DefaultPhrases are the confirmation texts shown by the scheduling widget in
// Spanish and English.
var DefaultPhrases = []string{
	"reserva confirmada",
	"cita confirmada",
	"tu cita ha sido agendada",
	"gracias por tu reserva",
	"appointment confirmed",
	"booking confirmed",
	"reservation confirmed",
	"you're booked",
	"thank you for booking",
}

// Matcher performs case-insensitive substring matching against a fixed phrase
// set. Runs of whitespace in the inspected text count as a single space.
type Matcher struct {
	phrases []string
}

// NewMatcher builds a matcher. An empty list selects DefaultPhrases.
func NewMatcher(phrases []string) *Matcher {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	m := &Matcher{}
	for _, p := range phrases {
		p = normalize(p)
		if p != "" {
			m.phrases = append(m.phrases, p)
		}
	}
	return m
}

// Match returns the first phrase found in text.
func (m *Matcher) Match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	text = normalize(text)
	for _, p := range m.phrases {
		if strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

// Phrases returns the normalized phrase set.
func (m *Matcher) Phrases() []string {
	out := make([]string, len(m.phrases))
	copy(out, m.phrases)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
