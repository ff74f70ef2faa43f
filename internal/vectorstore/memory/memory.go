// Package memory is a brute-force in-memory vector store, used by tests and
// throwaway runs. It satisfies domain.VectorStore but persists nothing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pdfrag/internal/domain"
	"pdfrag/internal/vectorstore"
)

// Store keeps all entries in memory and searches with a linear cosine scan.
type Store struct {
	mu        sync.RWMutex
	model     string
	dimension int
	entries   []domain.Entry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store { return &Store{} }

// Init records the embedding model and vector dimension and clears any
// previous contents.
func (s *Store) Init(_ context.Context, model string, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.dimension = dimension
	s.entries = nil
	return nil
}

// Append adds entries in order.
func (s *Store) Append(_ context.Context, entries []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return domain.ErrStoreNotInitialized
	}
	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.entries = append(s.entries, entries...)
	return nil
}

// Search returns up to k entries nearest to the query vector, nearest-first,
// ties broken by insertion order.
func (s *Store) Search(_ context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return nil, domain.ErrStoreNotInitialized
	}
	if k <= 0 {
		k = 4
	}

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(s.entries))
	for i, e := range s.entries {
		scores[i] = scored{pos: i, score: vectorstore.Cosine(e.Vector, vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]domain.SearchResult, 0, k)
	for i := 0; i < k; i++ {
		results = append(results, domain.SearchResult{
			Chunk: s.entries[scores[i].pos].Chunk,
			Score: scores[i].score,
		})
	}
	return results, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return 0, domain.ErrStoreNotInitialized
	}
	return len(s.entries), nil
}

// Model returns the embedding model recorded at Init.
func (s *Store) Model(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
