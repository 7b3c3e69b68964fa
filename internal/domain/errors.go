package domain

import (
	"errors"
	"fmt"
)

// ErrNotReady means no index has been built or loaded yet.
var ErrNotReady = errors.New("knowledge base not ready: ingest documents first")

// IngestionError marks a single document that failed chunking or extraction.
// Per-document and non-fatal: the rest of the batch proceeds.
type IngestionError struct {
	SourceID string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.SourceID, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// PersistenceError marks an index save or load I/O failure.
// Fatal for the mutation that triggered it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("index %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError marks a failed model invocation. Fatal for that query only.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
