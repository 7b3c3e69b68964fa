package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

// Status is the readiness of the knowledge base as seen by callers polling
// after triggering an ingest.
type Status string

const (
	StatusNotReady   Status = "not_ready"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
)

// Service chunks documents and feeds them into the vector index. Document
// failures are per-document: a bad file is logged and skipped, the batch
// continues. Index mutation failures abort the batch.
type Service struct {
	chunker domain.Chunker
	index   domain.VectorIndex
	log     *logrus.Logger

	mu         sync.Mutex
	processing bool
	message    string
}

func New(chunker domain.Chunker, index domain.VectorIndex, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{chunker: chunker, index: index, log: log}
}

// Status reports the current readiness plus a human-readable message.
func (s *Service) Status() (Status, string) {
	s.mu.Lock()
	processing, message := s.processing, s.message
	s.mu.Unlock()
	if processing {
		return StatusProcessing, "ingestion in progress"
	}
	if s.index.Exists() {
		return StatusReady, "knowledge base ready for queries"
	}
	if message != "" {
		return StatusNotReady, message
	}
	return StatusNotReady, "no documents ingested yet"
}

// Ingest chunks the given documents and adds them to the index, or rebuilds
// it from scratch when force is set or no index exists yet. Returns the
// number of chunks indexed.
func (s *Service) Ingest(ctx context.Context, docs []domain.Document, force bool) (int, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return 0, fmt.Errorf("ingestion already in progress")
	}
	s.processing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	var chunks []domain.Chunk
	for _, doc := range docs {
		split := s.chunker.Split(doc.Text, doc.SourceID)
		if len(split) == 0 {
			// Nothing extracted upstream; not an error for the chunker.
			s.log.WithField("source", doc.SourceID).Warn("document produced no chunks, skipping")
			continue
		}
		chunks = append(chunks, split...)
	}

	var err error
	if force || !s.index.Exists() {
		err = s.index.Rebuild(ctx, chunks)
	} else {
		err = s.index.Add(ctx, chunks)
	}
	if err != nil {
		s.setMessage(fmt.Sprintf("last ingest failed: %v", err))
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"documents": len(docs), "chunks": len(chunks)}).
		Info("documents ingested")
	s.setMessage("")
	return len(chunks), nil
}

// IngestDir loads all supported documents under dir and ingests them.
func (s *Service) IngestDir(ctx context.Context, dir string, force bool) (int, error) {
	docs, err := LoadDir(dir, s.log)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no documents found in %s", dir)
	}
	return s.Ingest(ctx, docs, force)
}

// StartBackground kicks off IngestDir in a goroutine, reporting whether it
// started. Progress is observable via Status.
func (s *Service) StartBackground(dir string, force bool) bool {
	s.mu.Lock()
	busy := s.processing
	s.mu.Unlock()
	if busy {
		return false
	}
	go func() {
		if _, err := s.IngestDir(context.Background(), dir, force); err != nil {
			s.log.WithError(err).Error("background ingestion failed")
		}
	}()
	return true
}

func (s *Service) setMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}
