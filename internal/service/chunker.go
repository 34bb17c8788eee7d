package service

import "strings"

const (
	defaultChunkSize    = 1500
	defaultChunkOverlap = 150
)

// separators are tried in order when a span exceeds the chunk size: paragraph
// breaks first, then lines, sentences, and finally single spaces.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

// Chunker splits document text into overlapping chunks sized for embedding.
// Splits prefer natural boundaries and fall back to coarser cuts only when a
// span will not fit.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker constructs a Chunker. Non-positive parameters fall back to the
// defaults; overlap is capped below the chunk size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = defaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split divides text into chunks of at most the configured size. Whitespace-only
// input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.size {
		return []string{text}
	}

	segments := c.segment(text, 0)
	return c.pack(segments)
}

// segment recursively cuts text into pieces no longer than the chunk size,
// trying each separator in turn before falling back to a hard cut.
func (c *Chunker) segment(text string, sepIdx int) []string {
	if len(text) <= c.size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	if sepIdx >= len(separators) {
		// No separator left, cut mid-word.
		var out []string
		for len(text) > c.size {
			out = append(out, text[:c.size])
			text = text[c.size:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}

	sep := separators[sepIdx]
	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		return c.segment(text, sepIdx+1)
	}

	var out []string
	for _, part := range parts {
		out = append(out, c.segment(part, sepIdx+1)...)
	}
	return out
}

// pack greedily joins segments into chunks up to the size limit, carrying an
// overlap tail from each chunk into the next for retrieval continuity.
func (c *Chunker) pack(segments []string) []string {
	var chunks []string
	var current strings.Builder
	overlapOnly := false

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if c.overlap > 0 && len(chunk) > c.overlap {
			current.WriteString(chunk[len(chunk)-c.overlap:])
			overlapOnly = true
		}
	}

	for _, segment := range segments {
		if current.Len() > 0 && current.Len()+len(segment) > c.size {
			flush()
		}
		current.WriteString(segment)
		overlapOnly = false
	}
	// A tail holding nothing beyond the carried overlap is already covered.
	if !overlapOnly && strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}
