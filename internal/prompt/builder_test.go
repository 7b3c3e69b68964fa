package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder()
	chunks := []domain.Chunk{
		{Text: "The sky is blue.", SourceID: "colors.txt", Sequence: 0},
		{Text: "Grass is green.", SourceID: "colors.txt", Sequence: 1},
	}
	first := b.Build("What color is the sky?", chunks)
	second := b.Build("What color is the sky?", chunks)
	assert.Equal(t, first, second)
}

func TestBuildKeepsChunksInRankOrder(t *testing.T) {
	b := NewBuilder()
	chunks := []domain.Chunk{
		{Text: "most relevant passage"},
		{Text: "second passage"},
		{Text: "third passage"},
	}
	out := b.Build("question?", chunks)
	require.Contains(t, out, "most relevant passage\n\nsecond passage\n\nthird passage")
	assert.Contains(t, out, "Question: question?")
	assert.True(t, strings.HasSuffix(out, "Answer:"))
}

func TestBuildWithNoChunksStillWellFormed(t *testing.T) {
	b := NewBuilder()
	out := b.Build("anything?", nil)
	assert.Contains(t, out, "Question: anything?")
	assert.Contains(t, out, emptyContext)
	assert.NotContains(t, out, "%CONTEXT%")
	assert.NotContains(t, out, "%QUESTION%")
}
