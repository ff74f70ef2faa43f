package domain

import "context"

// Loader reads source documents and produces pages in file-then-page order.
type Loader interface {
	Load(ctx context.Context, dir string) ([]Page, error)
}

// Chunker splits a page into overlapping chunks suitable for retrieval.
type Chunker interface {
	Chunk(page Page) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// LLM produces a completion for a system instruction plus user prompt.
type LLM interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	ModelName() string
}

// VectorStore persists embedded chunks and supports nearest-neighbor search.
// Search returns results nearest-first; ties are broken by insertion order so
// repeated searches against an unchanged store are reproducible.
type VectorStore interface {
	Init(ctx context.Context, model string, dimension int) error
	Append(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	// Model reports the embedding model the store was built with, or ""
	// when the backend does not record it.
	Model(ctx context.Context) (string, error)
	Close() error
}
