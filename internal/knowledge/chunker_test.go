package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100, 20)
	chunks := c.Split("a short document")
	if len(chunks) != 1 || chunks[0] != "a short document" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSplit_WhitespaceOnly(t *testing.T) {
	c := NewChunker(100, 20)
	if chunks := c.Split("  \n\t  "); chunks != nil {
		t.Errorf("chunks = %q, want nil", chunks)
	}
}

func TestSplit_BreaksOnWordBoundaries(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = "token"
	}
	text := strings.Join(words, " ")

	c := NewChunker(50, 10)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		for _, w := range strings.Fields(chunk) {
			if w != "token" {
				t.Errorf("chunk %d contains split word %q", i, w)
			}
		}
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = "token"
	}
	text := strings.Join(words, " ")

	c := NewChunker(60, 15)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Overlap means total chunk text exceeds the source text.
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total <= len(text)-len(chunks) {
		t.Errorf("no overlap: total chunk chars %d, source %d", total, len(text))
	}
}

func TestSplit_LongUnbrokenText(t *testing.T) {
	text := strings.Repeat("x", 250)
	c := NewChunker(100, 20)
	chunks := c.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d length = %d, want <= 100", i, len(chunk))
		}
	}
}

func TestSplit_MultibyteUnbrokenText(t *testing.T) {
	// Cyrillic runes are two bytes each; with no whitespace in the
	// window the cut must still land on a rune boundary.
	text := strings.Repeat("я", 300)
	c := NewChunker(101, 20)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, chunk)
		}
		if len(chunk) > 101 {
			t.Errorf("chunk %d length = %d, want <= 101", i, len(chunk))
		}
	}
}

func TestSplit_CoversAllText(t *testing.T) {
	words := make([]string, 150)
	for i := range words {
		words[i] = "w" + strings.Repeat("x", i%7)
	}
	text := strings.Join(words, " ")

	c := NewChunker(80, 0)
	chunks := c.Split(text)

	// With zero overlap every source word must appear in some chunk.
	seen := strings.Join(chunks, " ")
	for _, w := range strings.Fields(text) {
		if !strings.Contains(seen, w) {
			t.Fatalf("word %q missing from chunks", w)
		}
	}
}

func TestNewChunker_SanitizesInvalidValues(t *testing.T) {
	c := NewChunker(0, -5)
	if c.Size <= 0 {
		t.Errorf("Size = %d", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		t.Errorf("Overlap = %d with Size %d", c.Overlap, c.Size)
	}

	c = NewChunker(10, 50)
	if c.Overlap >= c.Size {
		t.Errorf("Overlap = %d not clamped below Size %d", c.Overlap, c.Size)
	}
}
