package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

// Plain-text formats the loader reads directly. Binary formats (PDF and the
// like) are an external extractor's job; this loader consumes its output.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// LoadDir reads every supported document under dir, non-recursively, using
// the file base name as the source identifier. An unreadable file is logged
// and skipped; only a missing or unreadable directory is an error.
func LoadDir(dir string, log *logrus.Logger) ([]domain.Document, error) {
	if log == nil {
		log = logrus.New()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			ierr := &domain.IngestionError{SourceID: entry.Name(), Err: err}
			log.WithError(ierr).Warn("skipping unreadable document")
			continue
		}
		docs = append(docs, domain.Document{
			SourceID: entry.Name(),
			Text:     string(data),
		})
	}
	return docs, nil
}
