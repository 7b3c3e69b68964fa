package domain

import "context"

// Document is a single extracted text supplied by an upstream loader.
type Document struct {
	SourceID string
	Text     string
}

// Chunk is a bounded segment of a source document, the unit of retrieval.
// Immutable once produced; Sequence is the emission order within its source.
type Chunk struct {
	Text     string
	SourceID string
	Sequence int
}

// SearchResult is a matching chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// RetrievalResult holds the ranked chunks for a question plus the distinct
// source identifiers they came from, in first-seen rank order.
type RetrievalResult struct {
	Chunks  []Chunk
	Sources []string
}

// Embedder converts free text into a numeric vector representation.
// All vectors in one index must come from the same Fingerprint.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Fingerprint() string
}

// Chunker splits raw document text into overlapping chunks.
type Chunker interface {
	Split(text, sourceID string) []Chunk
}

// VectorIndex stores chunk embeddings and supports similarity search.
// Add appends and persists; Rebuild replaces everything; Load restores a
// previously persisted index and reports whether one was found.
type VectorIndex interface {
	Add(ctx context.Context, chunks []Chunk) error
	Rebuild(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
	Exists() bool
	Load() bool
}

// Retriever returns the top-k chunks for a question with deduplicated sources.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) (RetrievalResult, error)
}

// TokenStream yields generated tokens in production order.
// Recv returns io.EOF after the final token.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Completer is the language model boundary: one blocking completion call,
// or an incremental token stream for the same prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string) (TokenStream, error)
}
