package index

import (
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

const snapshotFile = "index.gob"

// snapshot is the on-disk form of the index. The embedder fingerprint is
// stored alongside the vectors: mixing embedding spaces silently corrupts
// ranking, so Load refuses a snapshot built by a different embedder.
type snapshot struct {
	Fingerprint string
	Dimension   int
	Chunks      []domain.Chunk
	Vectors     [][]float32
}

func (ix *Index) snapshotLocked() snapshot {
	dim := 0
	if len(ix.vectors) > 0 {
		dim = len(ix.vectors[0])
	}
	chunks := make([]domain.Chunk, len(ix.chunks))
	copy(chunks, ix.chunks)
	vectors := make([][]float32, len(ix.vectors))
	copy(vectors, ix.vectors)
	return snapshot{
		Fingerprint: ix.embedder.Fingerprint(),
		Dimension:   dim,
		Chunks:      chunks,
		Vectors:     vectors,
	}
}

// persist writes the snapshot to a temp file and renames it into place, so a
// reader of the snapshot path never observes a partial write.
func (ix *Index) persist(snap snapshot) error {
	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	tmp, err := os.CreateTemp(ix.dir, "index-*.gob")
	if err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp.Name(), filepath.Join(ix.dir, snapshotFile)); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	ix.log.WithFields(logrus.Fields{"chunks": len(snap.Chunks), "dir": ix.dir}).
		Debug("index snapshot persisted")
	return nil
}

// Load restores a previously persisted index. It returns false and leaves
// the index untouched on a missing file, a decode failure, or an embedder
// fingerprint mismatch. It never returns an error: callers treat absence as
// "not yet built".
func (ix *Index) Load() bool {
	path := filepath.Join(ix.dir, snapshotFile)
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ix.log.WithError(err).WithField("path", path).Warn("cannot open index snapshot")
		}
		return false
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		ix.log.WithError(err).WithField("path", path).Warn("corrupt index snapshot, ignoring")
		return false
	}
	if snap.Fingerprint != ix.embedder.Fingerprint() {
		ix.log.WithFields(logrus.Fields{
			"snapshot": snap.Fingerprint,
			"embedder": ix.embedder.Fingerprint(),
		}).Error("index snapshot was built with a different embedder, rebuild required")
		return false
	}

	ix.mu.Lock()
	ix.chunks = snap.Chunks
	ix.vectors = snap.Vectors
	ix.loaded = true
	ix.mu.Unlock()

	ix.log.WithFields(logrus.Fields{"chunks": len(snap.Chunks), "dim": snap.Dimension}).
		Info("index snapshot loaded")
	return true
}
