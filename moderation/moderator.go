// Package moderation masks forbidden words in message content before it
// is persisted or relayed. Matching is accent/spacing tolerant: patterns
// are searched against a normalized view of the text while masking is
// applied to the original runes.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	maskingChar rune
}

// NewModerator builds the Aho-Corasick automaton from the censored word
// list. An empty list yields a nil Moderator, which censors nothing.
func NewModerator(censoredWords []string, maskingChar rune) (*Moderator, error) {
	if len(censoredWords) == 0 {
		return nil, nil
	}
	patterns := make([][]rune, len(censoredWords))
	for i, word := range censoredWords {
		patterns[i] = normalizeRunes([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, maskingChar: maskingChar}, nil
}

// Censor replaces every matched span with the masking character while
// preserving the original length and spacing. A nil Moderator is a no-op.
func (m *Moderator) Censor(original string) string {
	if m == nil {
		return original
	}

	origRunes := []rune(original)
	normalized := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))
	for i, r := range origRunes {
		if isNoise(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.maskingChar
		}
	}

	return string(origRunes)
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if isNoise(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}

// isNoise identifies characters ignored during pattern matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
