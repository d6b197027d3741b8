package cue

import "strings"

// Cue is one image cue embedded in narrative text: a marker line of the form
// [IMAGE n] immediately followed by one line of free-text prompt.
// Index is 1-based document order; the numeric label on the marker is not
// assumed unique or monotonic.
type Cue struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

// match records the line positions of one well-formed marker+prompt pair.
type match struct {
	marker int
	prompt int
}

// ExtractPrompts returns the prompt line of every well-formed marker+prompt
// pair, in document order. Malformed constructs (marker on the last line,
// marker followed by a blank line or another marker) are ordinary text.
func ExtractPrompts(text string) []Cue {
	lines, matches := scan(text)
	cues := make([]Cue, 0, len(matches))
	for i, m := range matches {
		cues = append(cues, Cue{
			Index:  i + 1,
			Prompt: strings.TrimSpace(stripCR(lines[m.prompt])),
		})
	}
	return cues
}

// StripPromptLines blanks each matched prompt line but keeps the marker
// line, for human-facing rendering. Re-scanning the result finds the same
// markers and no pairs: a marker over a blank line never matches.
func StripPromptLines(text string) string {
	return strip(text, false)
}

// StripBoth removes marker and prompt line together. The result is safe as
// input to speech synthesis: narration must never vocalize cue markup.
func StripBoth(text string) string {
	return strip(text, true)
}

func strip(text string, dropMarker bool) string {
	lines, matches := scan(text)
	drop := make(map[int]bool, len(matches)*2)
	blank := make(map[int]bool, len(matches))
	for _, m := range matches {
		if dropMarker {
			drop[m.marker] = true
			drop[m.prompt] = true
			continue
		}
		// Removing the prompt line outright would slide the next prose line
		// up under the marker, where a re-scan would pair them. Blanking it
		// keeps the marker unmatched.
		blank[m.prompt] = true
	}
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		switch {
		case drop[i]:
		case blank[i]:
			kept = append(kept, "")
		default:
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// scan walks the text line by line and collects well-formed pairs. A prompt
// line must be non-blank and not itself a marker; each line belongs to at
// most one pair.
func scan(text string) ([]string, []match) {
	lines := strings.Split(text, "\n")
	var matches []match
	for i := 0; i < len(lines)-1; i++ {
		if !isMarker(lines[i]) {
			continue
		}
		next := strings.TrimSpace(stripCR(lines[i+1]))
		if next == "" || isMarker(lines[i+1]) {
			continue
		}
		matches = append(matches, match{marker: i, prompt: i + 1})
		i++ // prompt line consumed
	}
	return lines, matches
}

// isMarker reports whether a line is exactly "[IMAGE n]" for a decimal n,
// ignoring surrounding whitespace.
func isMarker(line string) bool {
	s := strings.TrimSpace(stripCR(line))
	const prefix = "[IMAGE "
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, "]") {
		return false
	}
	digits := s[len(prefix) : len(s)-1]
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

func stripCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}
