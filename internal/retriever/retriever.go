package retriever

import (
	"context"

	"docqa/internal/domain"
)

// DefaultTopK matches the retrieval depth the prompt budget is sized for.
const DefaultTopK = 4

// Retriever wraps index search and collapses the matched chunks' source
// identifiers into a citation list.
type Retriever struct {
	index domain.VectorIndex
}

func New(index domain.VectorIndex) *Retriever {
	return &Retriever{index: index}
}

// Retrieve returns the top-k chunks for the question, ranked most-similar
// first, with sources deduplicated in first-seen rank order. An absent or
// empty index yields an empty result: "no grounding available" is not an
// error at this level.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if !r.index.Exists() {
		return domain.RetrievalResult{}, nil
	}
	results, err := r.index.Search(ctx, question, k)
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	out := domain.RetrievalResult{Chunks: make([]domain.Chunk, 0, len(results))}
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		out.Chunks = append(out.Chunks, res.Chunk)
		if _, ok := seen[res.Chunk.SourceID]; ok {
			continue
		}
		seen[res.Chunk.SourceID] = struct{}{}
		out.Sources = append(out.Sources, res.Chunk.SourceID)
	}
	return out, nil
}
