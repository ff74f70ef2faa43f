// Package service orchestrates the ingestion and question-answering
// pipelines over the loader, chunker, embedder, vector store and
// language-model capabilities.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"pdfrag/internal/domain"
)

// systemPrompt instructs the model to answer only from the supplied context.
const systemPrompt = "You answer questions using only the provided context. " +
	"If the answer is not in the context, say that you don't know. " +
	"Do not make up facts that are not present in the context."

// DefaultTopK is how many chunks are retrieved per question.
const DefaultTopK = 4

// DefaultBatchSize is how many chunk texts are embedded per request.
const DefaultBatchSize = 32

// Service wires the pipeline stages together. Ingest runs them once to build
// the store; Answer runs per question against the built store.
type Service struct {
	loader    domain.Loader
	chunker   domain.Chunker
	embedder  domain.Embedder
	llm       domain.LLM
	store     domain.VectorStore
	topK      int
	batchSize int
	log       zerolog.Logger
}

// Options configures a Service. Zero TopK and BatchSize fall back to the
// defaults.
type Options struct {
	Loader    domain.Loader
	Chunker   domain.Chunker
	Embedder  domain.Embedder
	LLM       domain.LLM
	Store     domain.VectorStore
	TopK      int
	BatchSize int
	Logger    zerolog.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Service{
		loader:    opts.Loader,
		chunker:   opts.Chunker,
		embedder:  opts.Embedder,
		llm:       opts.LLM,
		store:     opts.Store,
		topK:      topK,
		batchSize: batch,
		log:       opts.Logger,
	}
}

// Ingest builds the vector store from the PDFs in dir: load pages, chunk
// them, embed every chunk and append the entries. A store that already holds
// entries is reused as-is without re-embedding; delete the store directory to
// force a rebuild. Ingestion is all-or-nothing: nothing is written to the
// store until every chunk has been embedded.
func (s *Service) Ingest(ctx context.Context, dir string) (domain.IngestStats, error) {
	if count, err := s.store.Count(ctx); err == nil && count > 0 {
		s.log.Info().Int("entries", count).Msg("store already built, reusing it")
		return domain.IngestStats{Chunks: count, Reused: true}, nil
	}

	pages, err := s.loader.Load(ctx, dir)
	if err != nil {
		return domain.IngestStats{}, err
	}

	var chunks []domain.Chunk
	docs := map[string]struct{}{}
	for _, page := range pages {
		docs[page.Source] = struct{}{}
		pageChunks, err := s.chunker.Chunk(page)
		if err != nil {
			return domain.IngestStats{}, fmt.Errorf("chunk %s page %d: %w", page.Source, page.Number, err)
		}
		chunks = append(chunks, pageChunks...)
	}
	if len(chunks) == 0 {
		return domain.IngestStats{}, fmt.Errorf("%w: ingestion produced no chunks", domain.ErrEmptyIndex)
	}
	s.log.Info().
		Int("documents", len(docs)).
		Int("pages", len(pages)).
		Int("chunks", len(chunks)).
		Msg("chunked documents")

	entries, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return domain.IngestStats{}, err
	}
	if err := s.store.Init(ctx, s.embedder.ModelName(), s.embedder.Dimensions()); err != nil {
		return domain.IngestStats{}, fmt.Errorf("initialize store: %w", err)
	}
	if err := s.store.Append(ctx, entries); err != nil {
		return domain.IngestStats{}, fmt.Errorf("append entries: %w", err)
	}

	return domain.IngestStats{Documents: len(docs), Pages: len(pages), Chunks: len(chunks)}, nil
}

// embedChunks embeds chunks in batches and returns the resulting entries.
// The store is untouched until every batch has succeeded, so a failed run
// leaves no partial index behind on any backend.
func (s *Service) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.Entry, error) {
	entries := make([]domain.Entry, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: %d vectors for %d chunks", domain.ErrEmbeddingService, len(vectors), len(batch))
		}
		for i := range batch {
			entries = append(entries, domain.Entry{Chunk: batch[i], Vector: vectors[i]})
		}
		s.log.Debug().Int("from", start).Int("to", end).Msg("embedded batch")
	}
	return entries, nil
}

// Answer embeds the question, retrieves the top-k nearest chunks and asks the
// language model to answer from them. The returned sources are the distinct
// (file, page) pairs of the retrieved chunks in retrieval-rank order.
func (s *Service) Answer(ctx context.Context, question string) (domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, errors.New("empty question")
	}

	model, err := s.store.Model(ctx)
	if err != nil {
		return domain.Answer{}, err
	}
	if model != "" && model != s.embedder.ModelName() {
		return domain.Answer{}, fmt.Errorf("%w: store has %q, configured %q",
			domain.ErrModelMismatch, model, s.embedder.ModelName())
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return domain.Answer{}, err
	}
	if count == 0 {
		return domain.Answer{}, domain.ErrEmptyIndex
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}
	results, err := s.store.Search(ctx, vector, s.topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("search store: %w", err)
	}
	s.log.Debug().Int("retrieved", len(results)).Msg("retrieved context chunks")

	text, err := s.llm.Generate(ctx, systemPrompt, buildPrompt(question, results))
	if err != nil {
		return domain.Answer{}, err
	}

	return domain.Answer{Text: strings.TrimSpace(text), Sources: collectSources(results)}, nil
}

// buildPrompt lays out the retrieved chunks, each labelled with its origin,
// followed by the question.
func buildPrompt(question string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "\n[%s, page %d]\n%s\n", r.Chunk.Source, r.Chunk.Page, r.Chunk.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// collectSources de-duplicates (source, page) pairs, keeping the order of
// first appearance in retrieval rank.
func collectSources(results []domain.SearchResult) []domain.SourceRef {
	seen := map[domain.SourceRef]struct{}{}
	var sources []domain.SourceRef
	for _, r := range results {
		ref := domain.SourceRef{Source: r.Chunk.Source, Page: r.Chunk.Page}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		sources = append(sources, ref)
	}
	return sources
}
