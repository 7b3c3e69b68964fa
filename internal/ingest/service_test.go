package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/domain"
)

// recordingIndex captures mutations so tests can assert add-vs-rebuild.
type recordingIndex struct {
	mu      sync.Mutex
	exists  bool
	added   [][]domain.Chunk
	rebuilt [][]domain.Chunk
	err     error
	gate    chan struct{} // when set, mutations block here first
}

func (r *recordingIndex) Add(_ context.Context, chunks []domain.Chunk) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.added = append(r.added, chunks)
	r.exists = true
	return nil
}

func (r *recordingIndex) Rebuild(_ context.Context, chunks []domain.Chunk) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rebuilt = append(r.rebuilt, chunks)
	r.exists = true
	return nil
}

func (r *recordingIndex) Search(context.Context, string, int) ([]domain.SearchResult, error) {
	return nil, nil
}

func (r *recordingIndex) Exists() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exists
}

func (r *recordingIndex) Load() bool { return r.Exists() }

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testDocs() []domain.Document {
	return []domain.Document{
		{SourceID: "a.txt", Text: "The sky is blue. Grass is green."},
		{SourceID: "b.txt", Text: "Roses are red."},
	}
}

func TestIngestRebuildsWhenNoIndexExists(t *testing.T) {
	idx := &recordingIndex{}
	svc := New(chunker.NewCharacterChunker(1000, 200), idx, quietLog())

	n, err := svc.Ingest(context.Background(), testDocs(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, idx.rebuilt, 1)
	assert.Empty(t, idx.added)
}

func TestIngestAppendsToExistingIndex(t *testing.T) {
	idx := &recordingIndex{exists: true}
	svc := New(chunker.NewCharacterChunker(1000, 200), idx, quietLog())

	_, err := svc.Ingest(context.Background(), testDocs(), false)
	require.NoError(t, err)
	assert.Len(t, idx.added, 1)
	assert.Empty(t, idx.rebuilt)
}

func TestIngestForceRebuildReplacesExistingIndex(t *testing.T) {
	idx := &recordingIndex{exists: true}
	svc := New(chunker.NewCharacterChunker(1000, 200), idx, quietLog())

	_, err := svc.Ingest(context.Background(), testDocs(), true)
	require.NoError(t, err)
	assert.Len(t, idx.rebuilt, 1)
	assert.Empty(t, idx.added)
}

func TestIngestSkipsDocumentsWithoutText(t *testing.T) {
	idx := &recordingIndex{}
	svc := New(chunker.NewCharacterChunker(1000, 200), idx, quietLog())

	docs := append(testDocs(), domain.Document{SourceID: "broken.txt", Text: "   "})
	n, err := svc.Ingest(context.Background(), docs, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "empty documents contribute zero chunks without failing the batch")
}

func TestIngestSurfacesIndexFailure(t *testing.T) {
	idx := &recordingIndex{err: &domain.PersistenceError{Op: "save", Err: errors.New("disk full")}}
	svc := New(chunker.NewCharacterChunker(1000, 200), idx, quietLog())

	_, err := svc.Ingest(context.Background(), testDocs(), false)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)

	status, message := svc.Status()
	assert.Equal(t, StatusNotReady, status)
	assert.Contains(t, message, "last ingest failed")
}

func TestStatusTransitions(t *testing.T) {
	idx := &recordingIndex{gate: make(chan struct{})}
	svc := New(chunker.NewCharacterChunker(1000, 200), idx, quietLog())

	status, _ := svc.Status()
	assert.Equal(t, StatusNotReady, status)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Ingest(context.Background(), testDocs(), false)
	}()

	require.Eventually(t, func() bool {
		status, _ := svc.Status()
		return status == StatusProcessing
	}, time.Second, 5*time.Millisecond)

	// A second ingest while one is running is rejected.
	_, err := svc.Ingest(context.Background(), testDocs(), false)
	assert.Error(t, err)

	close(idx.gate)
	<-done

	status, _ = svc.Status()
	assert.Equal(t, StatusReady, status)
}

func TestLoadDirReadsPlainTextOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	docs, err := LoadDir(dir, quietLog())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	ids := []string{docs[0].SourceID, docs[1].SourceID}
	assert.ElementsMatch(t, []string{"guide.txt", "notes.md"}, ids)
}

func TestLoadDirMissingDirectoryIsAnError(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), quietLog())
	assert.Error(t, err)
}
