package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortDocumentYieldsOneChunk(t *testing.T) {
	c := NewCharacterChunker(1000, 200)
	chunks := c.Split("just a short note", "note.txt")
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a short note", chunks[0].Text)
	assert.Equal(t, "note.txt", chunks[0].SourceID)
	assert.Equal(t, 0, chunks[0].Sequence)
}

func TestSplitEmptyDocumentYieldsNothing(t *testing.T) {
	c := NewCharacterChunker(1000, 200)
	assert.Empty(t, c.Split("", "empty.txt"))
	assert.Empty(t, c.Split("   \n\t  ", "blank.txt"))
}

func TestSplitSkyGrassScenario(t *testing.T) {
	c := NewCharacterChunker(20, 5)
	chunks := c.Split("The sky is blue. Grass is green.", "colors.txt")
	require.GreaterOrEqual(t, len(chunks), 2)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 20)
	}
	first := []rune(chunks[0].Text)
	second := []rune(chunks[1].Text)
	assert.Equal(t, string(first[len(first)-5:]), string(second[:5]),
		"second chunk must start with the last 5 characters of the first")
}

func TestSplitOverlapInvariant(t *testing.T) {
	texts := []string{
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40),
		"para one\n\npara two\n\npara three\n\n" + strings.Repeat("filler words here ", 30),
		strings.Repeat("x", 500), // no separators at all, hard cuts only
		strings.Repeat("héllo wörld ünicode ", 25),
	}
	const size, overlap = 100, 20
	c := NewCharacterChunker(size, overlap)
	for _, text := range texts {
		chunks := c.Split(text, "doc")
		require.NotEmpty(t, chunks)
		for i, ch := range chunks {
			runes := []rune(ch.Text)
			assert.LessOrEqual(t, len(runes), size)
			assert.Equal(t, i, ch.Sequence)
			if i == len(chunks)-1 {
				continue
			}
			next := []rune(chunks[i+1].Text)
			require.GreaterOrEqual(t, len(runes), overlap)
			require.GreaterOrEqual(t, len(next), overlap)
			assert.Equal(t, string(runes[len(runes)-overlap:]), string(next[:overlap]),
				"trailing overlap of chunk %d must lead chunk %d", i, i+1)
		}
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	c := NewCharacterChunker(50, 10)
	text := "First paragraph with some words.\n\nSecond paragraph with more words to push past the limit."
	chunks := c.Split(text, "doc")
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"),
		"first cut should land on the paragraph break, got %q", chunks[0].Text)
}

func TestSplitReassemblesOriginalText(t *testing.T) {
	const size, overlap = 80, 15
	c := NewCharacterChunker(size, overlap)
	text := strings.TrimSpace(strings.Repeat("All work and no play makes for dull documentation. ", 20))
	chunks := c.Split(text, "doc")
	require.NotEmpty(t, chunks)

	var sb strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		if i == 0 {
			sb.WriteString(ch.Text)
			continue
		}
		sb.WriteString(string(runes[overlap:]))
	}
	assert.Equal(t, text, sb.String())
}

func TestNewCharacterChunkerClampsBadConfig(t *testing.T) {
	c := NewCharacterChunker(0, -1)
	assert.Equal(t, 1000, c.chunkSize)
	assert.Equal(t, 0, c.chunkOverlap)

	c = NewCharacterChunker(100, 100)
	assert.Less(t, c.chunkOverlap, c.chunkSize)
}
