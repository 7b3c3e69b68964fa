package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"docqa/internal/api"
	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/engine"
	"docqa/internal/index"
	"docqa/internal/ingest"
	"docqa/internal/llm"
	"docqa/internal/prompt"
	"docqa/internal/retriever"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "config.yaml", "Path to YAML config file")
		addr    = flag.String("address", "", "Listen address (overrides config)")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	emb := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	idx := index.New(cfg.Index.Dir, emb, log)
	if idx.Load() {
		log.WithField("chunks", idx.Size()).Info("knowledge base loaded")
	} else {
		log.Info("no knowledge base yet, waiting for ingestion")
	}

	ch := chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	svc := ingest.New(ch, idx, log)

	completer := llm.NewClient(llm.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		Seed:        cfg.Generator.Seed,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	eng := engine.New(idx, retriever.New(idx), prompt.NewBuilder(), completer, cfg.Retriever.TopK, log)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: api.NewServer(eng, svc, cfg.DocsDir, log).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("address", cfg.Server.Address).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	stop()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
