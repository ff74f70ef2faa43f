package chunker

import (
	"strings"
	"unicode"

	"pdfrag/internal/domain"
)

// DefaultChunkSize is the chunk length in characters (runes).
const DefaultChunkSize = 1000

// DefaultOverlap is how many characters consecutive chunks share.
const DefaultOverlap = 200

// TextChunker splits page text into overlapping fixed-size spans. Chunks are
// contiguous windows over the page, so concatenating the non-overlapping part
// of each chunk in order reproduces the page text exactly.
type TextChunker struct {
	chunkSize int
	overlap   int
}

// NewTextChunker creates a chunker with the given size and overlap.
// Out-of-range values fall back to the defaults.
func NewTextChunker(chunkSize, overlap int) *TextChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &TextChunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits a page into chunks of at most chunkSize runes. Each chunk
// after the first starts overlap runes before the previous chunk's end.
// Splits land on paragraph, sentence or word boundaries when one exists in
// the window; otherwise the cut is a hard one.
func (c *TextChunker) Chunk(page domain.Page) ([]domain.Chunk, error) {
	if strings.TrimSpace(page.Text) == "" {
		return nil, nil
	}
	runes := []rune(page.Text)
	n := len(runes)

	var chunks []domain.Chunk
	start := 0
	idx := 0
	for start < n {
		end := start + c.chunkSize
		if end >= n {
			end = n
		} else {
			end = c.splitPoint(runes, start, end)
		}
		chunks = append(chunks, domain.Chunk{
			Source: page.Source,
			Page:   page.Number,
			Index:  idx,
			Text:   string(runes[start:end]),
		})
		if end == n {
			break
		}
		next := end - c.overlap
		if next <= start {
			// splitPoint's floor keeps the cut past start+overlap,
			// so this is only a guard against looping forever
			next = end
		}
		start = next
		idx++
	}
	return chunks, nil
}

// splitPoint picks where to end the chunk starting at start, preferring a
// paragraph break, then a sentence end, then a word boundary within the
// window. Boundaries in the first half of the window, or within the overlap
// of the window start, are ignored so chunks do not collapse and every
// non-final chunk keeps the full overlap with its successor; with nothing
// usable the cut falls at end.
func (c *TextChunker) splitPoint(runes []rune, start, end int) int {
	floor := start + c.chunkSize/2
	if m := start + c.overlap; m > floor {
		floor = m
	}
	if floor <= start {
		floor = start + 1
	}

	if p := lastParagraphBreak(runes, floor, end); p > 0 {
		return p
	}
	if p := lastSentenceEnd(runes, floor, end); p > 0 {
		return p
	}
	if p := lastWordBreak(runes, floor, end); p > 0 {
		return p
	}
	return end
}

// lastParagraphBreak returns the position just after the last "\n\n" in
// [floor, end), or 0 when there is none.
func lastParagraphBreak(runes []rune, floor, end int) int {
	for i := end - 1; i > floor; i-- {
		if runes[i-1] == '\n' && runes[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lastSentenceEnd returns the position just after the last sentence
// terminator followed by whitespace in [floor, end), or 0 when there is none.
func lastSentenceEnd(runes []rune, floor, end int) int {
	for i := end - 1; i > floor; i-- {
		if isSentenceEnd(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return 0
}

// lastWordBreak returns the position just after the last whitespace rune in
// [floor, end), or 0 when there is none.
func lastWordBreak(runes []rune, floor, end int) int {
	for i := end - 1; i >= floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return 0
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
