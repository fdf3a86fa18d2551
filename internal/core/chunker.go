package core

import (
	"strings"
)

const (
	// MinChunkChars is the floor for the configured chunk size.
	MinChunkChars = 400

	// boundaryBackoffFloor is how far into the window a sentence boundary
	// must sit for the chunker to back off to it instead of cutting at the
	// window edge.
	boundaryBackoffFloor = 200
)

// SplitChunks splits document text into an ordered, non-overlapping sequence
// of trimmed segments of at most maxChars characters each. The cut point
// backs off to the nearest preceding sentence or line boundary that is at
// least boundaryBackoffFloor characters into the window, to avoid
// mid-sentence cuts. Deterministic: the same input always yields the same
// sequence.
func SplitChunks(text string, maxChars int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	if maxChars < MinChunkChars {
		maxChars = MinChunkChars
	}

	runes := []rune(text)
	var chunks []string
	pos := 0
	for pos < len(runes) {
		end := pos + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			if cut := lastBoundary(runes[pos:end]); cut >= boundaryBackoffFloor {
				end = pos + cut + 1 // include the boundary character
			}
		}
		segment := strings.TrimSpace(string(runes[pos:end]))
		if segment != "" {
			chunks = append(chunks, segment)
		}
		pos = end
	}
	return chunks, nil
}

// lastBoundary returns the index of the last sentence or line boundary in
// the window, or -1 if there is none.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	return -1
}
