package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"docqa/internal/engine"
	"docqa/internal/ingest"
)

// Engine is the query-side port the server drives.
type Engine interface {
	Answer(ctx context.Context, question string) (string, []string, error)
	Stream(ctx context.Context, question string) (*engine.Session, error)
}

// Ingestor is the ingestion-side port the server drives.
type Ingestor interface {
	Status() (ingest.Status, string)
	StartBackground(dir string, force bool) bool
}

// Server exposes the knowledge base over HTTP: synchronous and streaming
// queries, ingestion trigger, and readiness.
type Server struct {
	engine  Engine
	ingest  Ingestor
	docsDir string
	log     *logrus.Logger
	router  chi.Router
}

func NewServer(eng Engine, ing Ingestor, docsDir string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{engine: eng, ingest: ing, docsDir: docsDir, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/status", s.handleStatus)
	r.Post("/ingest", s.handleIngest)
	r.Post("/query", s.handleQuery)
	r.Post("/query/stream", s.handleQueryStream)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
