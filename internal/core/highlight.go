package core

import "strings"

// Segment is a run of text that either matches the search term or not.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits text into segments, marking every case-insensitive,
// literal occurrence of term. An empty term yields a single unmatched
// segment. The term is never interpreted as a pattern.
func Highlight(text, term string) []Segment {
	term = strings.TrimSpace(term)
	if text == "" {
		return nil
	}
	if term == "" {
		return []Segment{{Text: text}}
	}

	lower := strings.ToLower(text)
	needle := strings.ToLower(term)
	// Case folding can change byte lengths; fall back to no highlight
	// rather than slicing at misaligned offsets.
	if len(lower) != len(text) || len(needle) != len(term) {
		return []Segment{{Text: text}}
	}

	var out []Segment
	pos := 0
	for {
		i := strings.Index(lower[pos:], needle)
		if i < 0 {
			break
		}
		start := pos + i
		if start > pos {
			out = append(out, Segment{Text: text[pos:start]})
		}
		out = append(out, Segment{Text: text[start : start+len(needle)], Match: true})
		pos = start + len(needle)
	}
	if pos < len(text) {
		out = append(out, Segment{Text: text[pos:]})
	}
	return out
}
