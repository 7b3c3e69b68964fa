package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

// stubIndex returns a canned ranking, trimmed to k.
type stubIndex struct {
	exists  bool
	results []domain.SearchResult
}

func (s *stubIndex) Add(context.Context, []domain.Chunk) error     { return nil }
func (s *stubIndex) Rebuild(context.Context, []domain.Chunk) error { return nil }
func (s *stubIndex) Exists() bool                                  { return s.exists }
func (s *stubIndex) Load() bool                                    { return s.exists }

func (s *stubIndex) Search(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	if k > len(s.results) {
		k = len(s.results)
	}
	return s.results[:k], nil
}

func TestRetrieveDeduplicatesSourcesInRankOrder(t *testing.T) {
	idx := &stubIndex{exists: true, results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "a", SourceID: "manual.txt", Sequence: 0}, Score: 0.9},
		{Chunk: domain.Chunk{Text: "b", SourceID: "faq.txt", Sequence: 0}, Score: 0.8},
		{Chunk: domain.Chunk{Text: "c", SourceID: "manual.txt", Sequence: 3}, Score: 0.7},
	}}
	r := New(idx)

	res, err := r.Retrieve(context.Background(), "question", 3)
	require.NoError(t, err)
	assert.Len(t, res.Chunks, 3)
	assert.Equal(t, []string{"manual.txt", "faq.txt"}, res.Sources)
}

func TestRetrieveMissingIndexYieldsEmptyResult(t *testing.T) {
	r := New(&stubIndex{exists: false})
	res, err := r.Retrieve(context.Background(), "question", 4)
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.Empty(t, res.Sources)
}

func TestRetrieveDefaultsK(t *testing.T) {
	results := make([]domain.SearchResult, 10)
	for i := range results {
		results[i] = domain.SearchResult{Chunk: domain.Chunk{Text: "x", SourceID: "doc", Sequence: i}}
	}
	r := New(&stubIndex{exists: true, results: results})

	res, err := r.Retrieve(context.Background(), "question", 0)
	require.NoError(t, err)
	assert.Len(t, res.Chunks, DefaultTopK)
}
