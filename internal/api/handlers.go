package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"docqa/internal/domain"
)

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type ingestRequest struct {
	ForceRebuild bool `json:"force_rebuild"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, message := s.ingest.Status()
	writeJSON(w, http.StatusOK, statusResponse{Status: string(status), Message: message})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.Body != nil {
		// Empty body means default options.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if _, err := os.Stat(s.docsDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(s.docsDir, 0o755); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Status:  "warning",
			Message: fmt.Sprintf("document directory created, add documents to %s and try again", s.docsDir),
		})
		return
	}
	if !s.ingest.StartBackground(s.docsDir, req.ForceRebuild) {
		writeJSON(w, http.StatusAccepted, statusResponse{
			Status:  "processing",
			Message: "ingestion already in progress",
		})
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{
		Status:  "processing",
		Message: "document processing started in the background",
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}
	answer, sources, err := s.engine.Answer(r.Context(), question)
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.log.WithError(err).Error("query failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Answer: answer, Sources: sources})
}

// handleQueryStream answers over server-sent events: one "token" event per
// generated token, a single "sources" event, then a terminal "done" or
// "error" event. The stream is closed after the terminal event, never left
// open.
func (s *Server) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}
	sess, err := s.engine.Stream(r.Context(), question)
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.log.WithError(err).Error("stream failed to start")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range sess.Events() {
		switch {
		case ev.Err != nil:
			writeEvent(w, "error", errorResponse{Error: ev.Err.Error()})
		case ev.Done:
			sources := ev.Sources
			if sources == nil {
				sources = []string{}
			}
			writeEvent(w, "sources", sources)
			writeEvent(w, "done", struct{}{})
		default:
			writeEvent(w, "token", map[string]string{"content": ev.Token})
		}
		flusher.Flush()
	}
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return "", false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return "", false
	}
	return question, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEvent(w http.ResponseWriter, event string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
