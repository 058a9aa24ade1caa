package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunker(100, 20)
	if got := c.Split(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := c.Split("   \n\t  "); got != nil {
		t.Fatalf("expected nil for whitespace input, got %v", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100, 20)
	got := c.Split("hello world")
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("expected single chunk, got %v", got)
	}
}

func TestSplitParagraphBoundaries(t *testing.T) {
	c := NewChunker(2, 0)
	got := c.Split("A.\n\nB.\n\nC.")
	want := []string{"A.", "B.", "C."}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("sentence number with several words inside it.\n")
	}
	c := NewChunker(120, 24)
	chunks := c.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 120 {
			t.Fatalf("chunk %d exceeds size limit: %d runes", i, n)
		}
	}
}

func TestSplitOverlapContentMatches(t *testing.T) {
	c := NewChunker(20, 8)
	chunks := c.Split("alpha beta gamma delta epsilon zeta eta theta")
	want := []string{
		"alpha beta gamma",
		"gamma delta epsilon",
		"epsilon zeta eta",
		"zeta eta theta",
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %v, got %v", want, chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}

	// 相邻块之间的重叠是前一块的字面后缀, 也是后一块的字面前缀, 且不超过重叠上限
	for i := 0; i < len(chunks)-1; i++ {
		overlap := longestOverlap(chunks[i], chunks[i+1])
		if overlap == "" {
			t.Fatalf("chunks %d and %d share no overlap", i, i+1)
		}
		if n := utf8.RuneCountInString(overlap); n > 8 {
			t.Fatalf("overlap between chunks %d and %d exceeds limit: %d runes (%q)", i, i+1, n, overlap)
		}
		if !strings.HasSuffix(chunks[i], overlap) || !strings.HasPrefix(chunks[i+1], overlap) {
			t.Fatalf("overlap %q is not a literal suffix/prefix of chunks %d/%d", overlap, i, i+1)
		}
	}
}

// longestOverlap 返回 a 的最长后缀同时也是 b 的前缀。
func longestOverlap(a, b string) string {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for n := max; n > 0; n-- {
		if a[len(a)-n:] == b[:n] {
			return a[len(a)-n:]
		}
	}
	return ""
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon. ", 40)
	c := NewChunker(100, 20)
	first := c.Split(text)
	second := c.Split(text)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic chunk %d", i)
		}
	}
}

func TestSplitHardSplitWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)
	c := NewChunker(100, 20)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 100 {
			t.Fatalf("chunk %d exceeds size limit: %d runes", i, n)
		}
	}
}

func TestNewChunkerInvalidConfigFallsBack(t *testing.T) {
	c := NewChunker(0, -5)
	if c.chunkSize != DefaultChunkSize {
		t.Fatalf("expected default chunk size, got %d", c.chunkSize)
	}
	if c.chunkOverlap != DefaultChunkOverlap {
		t.Fatalf("expected default overlap, got %d", c.chunkOverlap)
	}

	c = NewChunker(10, 50)
	if c.chunkOverlap >= c.chunkSize {
		t.Fatalf("overlap %d must be smaller than chunk size %d", c.chunkOverlap, c.chunkSize)
	}
}
