package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

// Index is a persistent in-memory vector index over document chunks.
// Reads run concurrently under an RWMutex; mutations are serialized and take
// the write lock only for the in-memory swap, never for embedding calls or
// persistence I/O. Every mutation is followed by a full snapshot to disk.
type Index struct {
	embedder domain.Embedder
	dir      string
	log      *logrus.Logger

	writeMu sync.Mutex   // serializes Add/Rebuild end to end
	mu      sync.RWMutex // guards the fields below
	chunks  []domain.Chunk
	vectors [][]float32
	loaded  bool
}

func New(dir string, embedder domain.Embedder, log *logrus.Logger) *Index {
	if log == nil {
		log = logrus.New()
	}
	return &Index{embedder: embedder, dir: dir, log: log}
}

// Exists reports whether a valid index is currently held in memory, either
// freshly built or loaded from disk.
func (ix *Index) Exists() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loaded
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Add embeds the given chunks, appends them to the index and persists the
// result. Safe to call with an empty slice (no-op, nothing rewritten).
// A persistence failure is returned to the caller: memory holds the new
// state, disk holds the last good snapshot.
func (ix *Index) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	vectors, err := ix.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	ix.chunks = append(ix.chunks, chunks...)
	ix.vectors = append(ix.vectors, vectors...)
	ix.loaded = true
	snap := ix.snapshotLocked()
	ix.mu.Unlock()

	return ix.persist(snap)
}

// Rebuild discards all existing chunks, embeds the given ones and replaces
// the persisted snapshot. Readers observe either the old index or the new
// one, never a partial state.
func (ix *Index) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	vectors, err := ix.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	ix.chunks = chunks
	ix.vectors = vectors
	ix.loaded = true
	snap := ix.snapshotLocked()
	ix.mu.Unlock()

	return ix.persist(snap)
}

// Search embeds the query and returns up to k chunks ranked by cosine
// similarity, highest first. Ties go to the earlier-inserted chunk. An empty
// index yields an empty result, not an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 4
	}
	ix.mu.RLock()
	empty := len(ix.chunks) == 0
	ix.mu.RUnlock()
	if empty {
		return nil, nil
	}

	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make([]float32, len(ix.vectors))
	for i := range ix.vectors {
		scores[i] = dot(ix.vectors[i], qvec)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool {
		if scores[idxs[a]] == scores[idxs[b]] {
			return idxs[a] < idxs[b]
		}
		return scores[idxs[a]] > scores[idxs[b]]
	})
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, j := range idxs[:k] {
		results = append(results, domain.SearchResult{Chunk: ix.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func (ix *Index) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	dim := 0
	ix.mu.RLock()
	if len(ix.vectors) > 0 {
		dim = len(ix.vectors[0])
	}
	ix.mu.RUnlock()
	for i := range chunks {
		vec, err := ix.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s/%d: %w", chunks[i].SourceID, chunks[i].Sequence, err)
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, errors.New("vector dimension mismatch")
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// dot assumes L2-normalized vectors, making it equivalent to cosine similarity.
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
