package service

import (
	"strings"
	"testing"
)

func TestChunker_ShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100, 10)
	chunks := c.Split("A short paragraph.")
	if len(chunks) != 1 || chunks[0] != "A short paragraph." {
		t.Fatalf("expected single untouched chunk, got %v", chunks)
	}
}

func TestChunker_EmptyInput(t *testing.T) {
	c := NewChunker(100, 10)
	for _, text := range []string{"", "   ", "\n\n\t"} {
		if got := c.Split(text); len(got) != 0 {
			t.Errorf("expected no chunks for %q, got %v", text, got)
		}
	}
}

func TestChunker_PrefersParagraphBoundaries(t *testing.T) {
	first := strings.Repeat("alpha ", 10)  // 60 chars
	second := strings.Repeat("beta ", 10)  // 50 chars
	text := strings.TrimSpace(first) + "\n\n" + strings.TrimSpace(second)

	c := NewChunker(80, 0)
	chunks := c.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected a chunk per paragraph, got %d: %v", len(chunks), chunks)
	}
	if strings.Contains(chunks[0], "beta") || strings.Contains(chunks[1], "alpha") {
		t.Errorf("paragraphs mixed across chunks: %v", chunks)
	}
}

func TestChunker_RespectsSizeLimit(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)
	c := NewChunker(200, 20)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 200+20 {
			t.Errorf("chunk %d exceeds size limit: %d chars", i, len(chunk))
		}
	}
}

func TestChunker_OverlapCarriesContext(t *testing.T) {
	text := strings.Repeat("Sentence one is here. ", 30)
	c := NewChunker(100, 30)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each successive chunk starts with the tail of its predecessor.
	tail := chunks[0][len(chunks[0])-10:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Errorf("expected overlap between chunks, got %q then %q", chunks[0], chunks[1])
	}
}

func TestChunker_UnbrokenTextHardCut(t *testing.T) {
	text := strings.Repeat("x", 500)
	c := NewChunker(100, 0)

	chunks := c.Split(text)
	if len(chunks) != 5 {
		t.Fatalf("expected 5 hard-cut chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("hard-cut chunk exceeds limit: %d chars", len(chunk))
		}
	}
}

func TestChunker_DefaultsApplied(t *testing.T) {
	c := NewChunker(0, -1)
	if c.size != defaultChunkSize || c.overlap != defaultChunkOverlap {
		t.Fatalf("expected defaults, got size=%d overlap=%d", c.size, c.overlap)
	}
	c = NewChunker(50, 200)
	if c.overlap >= c.size {
		t.Fatalf("expected overlap capped below size, got %d >= %d", c.overlap, c.size)
	}
}
