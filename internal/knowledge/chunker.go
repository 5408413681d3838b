package knowledge

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 150
)

// Chunker splits document text into overlapping pieces sized for the
// embedding model's context window.
type Chunker struct {
	// Size is the target chunk length in characters.
	Size int
	// Overlap is how many characters consecutive chunks share.
	Overlap int
}

// NewChunker creates a Chunker with sane defaults for invalid values.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split breaks text into chunks of roughly Size characters, breaking on
// word boundaries where possible. Whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.Size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.Size
		if end >= len(text) {
			chunk := strings.TrimSpace(text[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		// Back up to the last whitespace so words stay intact. If the
		// window has no whitespace at all, cut mid-word, but never
		// mid-rune.
		cut := end
		if idx := strings.LastIndexAny(text[start:end], " \t\n"); idx > 0 {
			cut = start + idx
		} else {
			for cut > start && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == start {
				// Window smaller than one rune; take the whole rune.
				_, n := utf8.DecodeRuneInString(text[start:])
				cut = start + n
			}
		}

		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - c.Overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}
