package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/internal/domain"
)

func page(text string) domain.Page {
	return domain.Page{Source: "doc.pdf", Number: 1, Text: text}
}

// reconstruct glues the chunks back together by dropping each chunk's
// leading overlap runes, verifying on the way that consecutive chunks really
// do share those runes.
func reconstruct(t *testing.T, chunks []domain.Chunk, overlap int) string {
	t.Helper()
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c.Text)
			continue
		}
		prev := []rune(chunks[i-1].Text)
		cur := []rune(c.Text)
		require.Greater(t, len(cur), overlap, "chunk %d shorter than the overlap", i)
		shared := string(prev[len(prev)-overlap:])
		require.Equal(t, shared, string(cur[:overlap]),
			"chunk %d does not share %d runes with its predecessor", i, overlap)
		b.WriteString(string(cur[overlap:]))
	}
	return b.String()
}

func TestChunkRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
	}{
		{
			name:      "short sentences",
			text:      "The sky is blue. Grass is green.",
			chunkSize: 20,
			overlap:   5,
		},
		{
			name:      "paragraphs",
			text:      strings.Repeat("First paragraph about storage engines.\n\n", 10),
			chunkSize: 100,
			overlap:   20,
		},
		{
			name:      "no boundaries at all",
			text:      strings.Repeat("x", 950),
			chunkSize: 300,
			overlap:   50,
		},
		{
			name:      "defaults on long prose",
			text:      strings.Repeat("Retrieval quality depends on chunking. Overlap keeps context. ", 60),
			chunkSize: DefaultChunkSize,
			overlap:   DefaultOverlap,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewTextChunker(tc.chunkSize, tc.overlap)
			chunks, err := c.Chunk(page(tc.text))
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for i, ch := range chunks {
				assert.NotEmpty(t, ch.Text, "chunk %d is empty", i)
				assert.LessOrEqual(t, len([]rune(ch.Text)), tc.chunkSize, "chunk %d too large", i)
				assert.Equal(t, i, ch.Index)
				assert.Equal(t, "doc.pdf", ch.Source)
				assert.Equal(t, 1, ch.Page)
			}

			assert.Equal(t, tc.text, reconstruct(t, chunks, tc.overlap), "round trip lost text")
		})
	}
}

func TestChunkOverlapScenario(t *testing.T) {
	// Two sentences, small window: must give at least two chunks that
	// overlap and jointly cover everything.
	text := "The sky is blue. Grass is green."
	c := NewTextChunker(20, 5)
	chunks, err := c.Chunk(page(text))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		overlap := string(prev[len(prev)-5:])
		assert.True(t, strings.HasPrefix(string(cur), overlap),
			"chunk %d does not start with the previous chunk's tail", i)
	}
	assert.Equal(t, text, reconstruct(t, chunks, 5))
}

func TestChunkLargeOverlapStaysFixed(t *testing.T) {
	// overlap above half the chunk size: a sentence boundary just past the
	// window midpoint must not shrink the shared run between neighbors
	text := "Chunk sizes. Overlap keeps neighboring chunks glued together across splits."
	c := NewTextChunker(20, 15)
	chunks, err := c.Chunk(page(text))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, text, reconstruct(t, chunks, 15))
}

func TestChunkSinglePieceWhenSmall(t *testing.T) {
	c := NewTextChunker(1000, 200)
	chunks, err := c.Chunk(page("tiny"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0].Text)
}

func TestChunkEmptyPage(t *testing.T) {
	c := NewTextChunker(1000, 200)
	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := c.Chunk(page(text))
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunkPrefersSentenceBoundary(t *testing.T) {
	text := "A complete sentence ends here. Another one follows right after it."
	c := NewTextChunker(40, 10)
	chunks, err := c.Chunk(page(text))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0].Text, ". "),
		"first chunk should end after the sentence terminator, got %q", chunks[0].Text)
}

func TestNewTextChunkerNormalizesBadParams(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap at size", 100, 100},
		{"overlap above size", 100, 150},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewTextChunker(tc.chunkSize, tc.overlap)
			assert.Greater(t, c.chunkSize, 0)
			assert.GreaterOrEqual(t, c.overlap, 0)
			assert.Less(t, c.overlap, c.chunkSize)
		})
	}
}
