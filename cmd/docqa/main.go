package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/engine"
	"docqa/internal/index"
	"docqa/internal/ingest"
	"docqa/internal/llm"
	"docqa/internal/prompt"
	"docqa/internal/retriever"
	"docqa/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   = flag.String("config", "config.yaml", "Path to YAML config file")
		ingestDir = flag.String("ingest", "", "Ingest documents from this directory and exit")
		rebuild   = flag.Bool("rebuild", false, "Rebuild the index from scratch when ingesting")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	emb := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	idx := index.New(cfg.Index.Dir, emb, log)
	idx.Load()

	if *ingestDir != "" {
		ch := chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
		svc := ingest.New(ch, idx, log)
		n, err := svc.IngestDir(context.Background(), *ingestDir, *rebuild)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
		fmt.Printf("Indexed %d chunks from %s\n", n, *ingestDir)
		return
	}

	if !idx.Exists() {
		fmt.Fprintf(os.Stderr, "Knowledge base not found. Ingest documents first:\n\n  docqa -ingest %s\n", cfg.DocsDir)
		os.Exit(1)
	}

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

	if _, err := tea.NewProgram(tui.New(eng)).Run(); err != nil {
		log.Fatal(err)
	}
}
