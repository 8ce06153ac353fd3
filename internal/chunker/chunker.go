// Package chunker splits document text into bounded, overlapping segments
// for embedding and retrieval.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultSize is the chunk window in characters.
	DefaultSize = 500
	// DefaultOverlap is the number of characters consecutive chunks share.
	DefaultOverlap = 100
)

// sentenceEnd matches sentence-terminating punctuation.
var (
	sentenceEnd = regexp.MustCompile(`[.!?]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Split cuts text into windows of at most size characters, overlapping by
// overlap characters. When a window boundary falls mid-sentence the cut is
// retracted to the nearest sentence-terminating punctuation within the
// overlap lookback; otherwise it cuts at the raw character boundary.
//
// Split is a pure function of its inputs: empty text yields no chunks, text
// shorter than size yields exactly one chunk equal to the whole text.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap <= 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must satisfy 0 < overlap < size, got overlap=%d size=%d", overlap, size)
	}

	// Collapse runs of whitespace so chunk boundaries are stable regardless
	// of the source formatting.
	runes := []rune(strings.TrimSpace(whitespace.ReplaceAllString(text, " ")))
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= size {
		return []string{string(runes)}, nil
	}

	step := size - overlap
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		// Prefer a sentence boundary within the overlap lookback.
		if cut := lastSentenceEnd(runes[start:end], overlap); cut > 0 {
			end = start + cut
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[start:end])))

		// The next window starts overlap characters before the cut. The
		// step guard keeps progress monotonic when a retracted cut lands
		// close to the window start.
		next := end - overlap
		if next <= start {
			next = start + step
		}
		start = next
	}
	return chunks, nil
}

// lastSentenceEnd returns the index just past the last sentence terminator
// within the final lookback characters of window, or 0 when none exists.
func lastSentenceEnd(window []rune, lookback int) int {
	floor := len(window) - lookback
	if floor < 0 {
		floor = 0
	}
	for i := len(window) - 1; i >= floor; i-- {
		if sentenceEnd.MatchString(string(window[i])) {
			return i + 1
		}
	}
	return 0
}
