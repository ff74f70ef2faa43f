package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pdfrag/internal/chunker"
	"pdfrag/internal/config"
	"pdfrag/internal/domain"
	"pdfrag/internal/embedding"
	"pdfrag/internal/llm"
	"pdfrag/internal/loader"
	"pdfrag/internal/service"
	"pdfrag/internal/vectorstore/memory"
	"pdfrag/internal/vectorstore/qdrant"
	"pdfrag/internal/vectorstore/sqlite"
)

// app holds the assembled pipeline for one command invocation.
type app struct {
	cfg   *config.AppConfig
	log   zerolog.Logger
	svc   *service.Service
	store domain.VectorStore
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
}

// loadConfig resolves the --config flag or the default locations.
func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// buildApp assembles the pipeline from an already loaded config. With
// forInit the persistent store is created if missing; otherwise a missing
// store is an error so the query path never runs against a half-configured
// system.
func buildApp(cfg *config.AppConfig, forInit bool) (*app, error) {
	log := newLogger()

	apiKey := cfg.Embedder.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%w: export %s or put it in .env", domain.ErrMissingAPIKey, cfg.Embedder.APIKeyEnv)
	}

	emb, err := embedding.NewClient(embedding.Config{
		BaseURL: cfg.Embedder.BaseURL,
		APIKey:  apiKey,
		Model:   cfg.Embedder.Model,
		Timeout: time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	gen, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("language-model client: %w", err)
	}

	store, err := buildStore(cfg, forInit)
	if err != nil {
		return nil, err
	}

	svc := service.New(service.Options{
		Loader:    loader.NewPDFLoader(log),
		Chunker:   chunker.NewTextChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap),
		Embedder:  emb,
		LLM:       gen,
		Store:     store,
		TopK:      cfg.Retrieval.TopK,
		BatchSize: cfg.Embedder.BatchSize,
		Logger:    log,
	})
	return &app{cfg: cfg, log: log, svc: svc, store: store}, nil
}

func buildStore(cfg *config.AppConfig, forInit bool) (domain.VectorStore, error) {
	switch cfg.Store.Type {
	case "sqlite", "":
		if forInit {
			return sqlite.Create(cfg.Store.Path)
		}
		return sqlite.Open(cfg.Store.Path)
	case "memory":
		// not persistent across processes; mainly for experiments
		return memory.NewStore(), nil
	case "qdrant":
		if cfg.Store.Qdrant == nil {
			return nil, fmt.Errorf("qdrant store selected but qdrant config missing")
		}
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}
